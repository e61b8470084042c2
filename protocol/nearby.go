package protocol

// NearbyCharacter is a character entry of a nearby snapshot.
type NearbyCharacter struct {
	PlayerID  int
	Name      string
	MapID     int
	X         int
	Y         int
	Direction Direction
	ClassID   int
	GuildTag  string
	Level     int
	Gender    int
	HairStyle int
	HairColor int
	Skin      int
	MaxHP     int
	HP        int
	MaxTP     int
	TP        int
}

// NearbyNpc is an NPC entry of a nearby snapshot.
type NearbyNpc struct {
	Index     int
	ID        int
	X         int
	Y         int
	Direction Direction
}

// NearbyItem is a ground item entry of a nearby snapshot.
type NearbyItem struct {
	UID    int
	ID     int
	X      int
	Y      int
	Amount int
}

// NearbyInfo lists the characters, NPCs and items in view.
type NearbyInfo struct {
	Characters []NearbyCharacter
	Npcs       []NearbyNpc
	Items      []NearbyItem
}

const (
	npcRecordSize  = 6
	itemRecordSize = 9
)

// ParseNearby reads a nearby snapshot. The reader is switched to chunked
// mode if it is not already.
//
// Layout: character count, break, one chunk per character, NPC records up
// to the next break, then item records to the end of the body.
func ParseNearby(r *Reader) (NearbyInfo, error) {
	r.EnableChunked()

	var info NearbyInfo
	count, err := r.ReadChar()
	if err != nil {
		return info, err
	}
	if err := r.NextChunk(); err != nil {
		return info, err
	}

	info.Characters = make([]NearbyCharacter, 0, count)
	for i := 0; i < count; i++ {
		c, err := parseNearbyCharacter(r)
		if err != nil {
			return info, err
		}
		info.Characters = append(info.Characters, c)
		if err := r.NextChunk(); err != nil {
			return info, err
		}
	}

	for !r.ChunkBoundaryReached() {
		if r.Remaining() < npcRecordSize {
			return info, ErrTruncatedData
		}
		n, err := parseNearbyNpc(r)
		if err != nil {
			return info, err
		}
		info.Npcs = append(info.Npcs, n)
	}
	if err := r.NextChunk(); err != nil {
		return info, err
	}

	for !r.ChunkBoundaryReached() {
		if r.Remaining() < itemRecordSize {
			return info, ErrTruncatedData
		}
		it, err := parseNearbyItem(r)
		if err != nil {
			return info, err
		}
		info.Items = append(info.Items, it)
	}

	return info, nil
}

// parseNearbyCharacter reads the leading fields of a character chunk. The
// caller skips whatever follows (equipment, sit state) with NextChunk.
func parseNearbyCharacter(r *Reader) (NearbyCharacter, error) {
	var c NearbyCharacter
	var err error

	if c.Name, err = r.ReadString(); err != nil {
		return c, err
	}
	if err = r.NextChunk(); err != nil {
		return c, err
	}

	fields := []*int{&c.PlayerID, &c.MapID, &c.X, &c.Y}
	for _, f := range fields {
		if *f, err = r.ReadShort(); err != nil {
			return c, err
		}
	}

	dir, err := r.ReadChar()
	if err != nil {
		return c, err
	}
	c.Direction = Direction(dir)

	if c.ClassID, err = r.ReadChar(); err != nil {
		return c, err
	}
	if c.GuildTag, err = r.ReadFixedString(3); err != nil {
		return c, err
	}

	for _, f := range []*int{&c.Level, &c.Gender, &c.HairStyle, &c.HairColor, &c.Skin} {
		if *f, err = r.ReadChar(); err != nil {
			return c, err
		}
	}
	for _, f := range []*int{&c.MaxHP, &c.HP, &c.MaxTP, &c.TP} {
		if *f, err = r.ReadShort(); err != nil {
			return c, err
		}
	}
	return c, nil
}

func parseNearbyNpc(r *Reader) (NearbyNpc, error) {
	var n NearbyNpc
	var err error
	if n.Index, err = r.ReadChar(); err != nil {
		return n, err
	}
	if n.ID, err = r.ReadShort(); err != nil {
		return n, err
	}
	if n.X, err = r.ReadChar(); err != nil {
		return n, err
	}
	if n.Y, err = r.ReadChar(); err != nil {
		return n, err
	}
	dir, err := r.ReadChar()
	n.Direction = Direction(dir)
	return n, err
}

func parseNearbyItem(r *Reader) (NearbyItem, error) {
	var it NearbyItem
	var err error
	if it.UID, err = r.ReadShort(); err != nil {
		return it, err
	}
	if it.ID, err = r.ReadShort(); err != nil {
		return it, err
	}
	if it.X, err = r.ReadChar(); err != nil {
		return it, err
	}
	if it.Y, err = r.ReadChar(); err != nil {
		return it, err
	}
	it.Amount, err = r.ReadThree()
	return it, err
}

// WriteNearby serializes a snapshot in the layout ParseNearby reads. The
// character chunks carry zeroed equipment and sit state.
func WriteNearby(w *Writer, info NearbyInfo) {
	w.AddChar(len(info.Characters))
	w.AddBreak()
	for _, c := range info.Characters {
		w.AddString(c.Name)
		w.AddBreak()
		w.AddShort(c.PlayerID)
		w.AddShort(c.MapID)
		w.AddShort(c.X)
		w.AddShort(c.Y)
		w.AddChar(int(c.Direction))
		w.AddChar(c.ClassID)
		w.AddFixedString(c.GuildTag, 3)
		w.AddChar(c.Level)
		w.AddChar(c.Gender)
		w.AddChar(c.HairStyle)
		w.AddChar(c.HairColor)
		w.AddChar(c.Skin)
		w.AddShort(c.MaxHP)
		w.AddShort(c.HP)
		w.AddShort(c.MaxTP)
		w.AddShort(c.TP)
		for i := 0; i < 9; i++ {
			w.AddShort(0)
		}
		w.AddChar(0)
		w.AddChar(0)
		w.AddBreak()
	}
	for _, n := range info.Npcs {
		w.AddChar(n.Index)
		w.AddShort(n.ID)
		w.AddChar(n.X)
		w.AddChar(n.Y)
		w.AddChar(int(n.Direction))
	}
	w.AddBreak()
	for _, it := range info.Items {
		w.AddShort(it.UID)
		w.AddShort(it.ID)
		w.AddChar(it.X)
		w.AddChar(it.Y)
		w.AddThree(it.Amount)
	}
}
