package protocol

// InitReplyCode is the first byte of a handshake-family reply.
type InitReplyCode int

const (
	InitReplyOutOfDate   InitReplyCode = 1
	InitReplyOk          InitReplyCode = 2
	InitReplyBanned      InitReplyCode = 3
	InitReplyWarpMap     InitReplyCode = 4
	InitReplyFileEmf     InitReplyCode = 5
	InitReplyFileEif     InitReplyCode = 6
	InitReplyFileEnf     InitReplyCode = 7
	InitReplyFileEsf     InitReplyCode = 8
	InitReplyPlayersList InitReplyCode = 9
	InitReplyFileEcf     InitReplyCode = 12
)

// MapData reports whether the reply carries map or pub file contents.
func (c InitReplyCode) MapData() bool {
	switch c {
	case InitReplyWarpMap, InitReplyFileEmf, InitReplyFileEif, InitReplyFileEnf,
		InitReplyFileEsf, InitReplyFileEcf:
		return true
	}
	return false
}

// InitOk is the payload of a successful handshake reply.
type InitOk struct {
	Seq1                     int
	Seq2                     int
	ServerEncryptionMultiple int
	ClientEncryptionMultiple int
	PlayerID                 int
	ChallengeResponse        int
}

// InitReply is the server's answer in the handshake family. Ok is set
// only for InitReplyOk; Data holds the raw payload of every other code.
type InitReply struct {
	Code InitReplyCode
	Ok   *InitOk
	Data []byte
}

func (InitReply) Family() Family { return FamilyInit }
func (InitReply) Action() Action { return ActionInit }

func (m InitReply) Serialize(w *Writer) {
	w.AddByte(byte(m.Code))
	if m.Code == InitReplyOk && m.Ok != nil {
		w.AddByte(byte(m.Ok.Seq1))
		w.AddByte(byte(m.Ok.Seq2))
		w.AddByte(byte(m.Ok.ServerEncryptionMultiple))
		w.AddByte(byte(m.Ok.ClientEncryptionMultiple))
		w.AddShort(m.Ok.PlayerID)
		w.AddThree(m.Ok.ChallengeResponse)
		return
	}
	w.AddBytes(m.Data)
}

// ParseInitReply reads a handshake-family reply.
func ParseInitReply(r *Reader) (InitReply, error) {
	var m InitReply
	code, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.Code = InitReplyCode(code)

	if m.Code != InitReplyOk {
		data, err := r.ReadBytes(r.Remaining())
		m.Data = data
		return m, err
	}

	raw, err := r.ReadBytes(4)
	if err != nil {
		return m, err
	}
	ok := &InitOk{
		Seq1:                     int(raw[0]),
		Seq2:                     int(raw[1]),
		ServerEncryptionMultiple: int(raw[2]),
		ClientEncryptionMultiple: int(raw[3]),
	}
	if ok.PlayerID, err = r.ReadShort(); err != nil {
		return m, err
	}
	if ok.ChallengeResponse, err = r.ReadThree(); err != nil {
		return m, err
	}
	m.Ok = ok
	return m, nil
}

// ConnectionPlayer is the server keep-alive. Its two values reseed the
// sequence.
type ConnectionPlayer struct {
	Seq1 int
	Seq2 int
}

func (ConnectionPlayer) Family() Family { return FamilyConnection }
func (ConnectionPlayer) Action() Action { return ActionPlayer }

func (m ConnectionPlayer) Serialize(w *Writer) {
	w.AddShort(m.Seq1)
	w.AddChar(m.Seq2)
}

// ParseConnectionPlayer reads a keep-alive.
func ParseConnectionPlayer(r *Reader) (ConnectionPlayer, error) {
	var m ConnectionPlayer
	var err error
	if m.Seq1, err = r.ReadShort(); err != nil {
		return m, err
	}
	m.Seq2, err = r.ReadChar()
	return m, err
}

// LoginReplyCode is the result of a login attempt.
type LoginReplyCode int

const (
	LoginReplyWrongUser         LoginReplyCode = 1
	LoginReplyWrongUserPassword LoginReplyCode = 2
	LoginReplyOk                LoginReplyCode = 3
	LoginReplyBanned            LoginReplyCode = 4
	LoginReplyLoggedIn          LoginReplyCode = 5
	LoginReplyBusy              LoginReplyCode = 6
)

// CharacterSummary is one entry of the character list.
type CharacterSummary struct {
	ID    int
	Name  string
	Level int
}

// LoginReply answers a login request.
type LoginReply struct {
	Code       LoginReplyCode
	Characters []CharacterSummary
}

func (LoginReply) Family() Family { return FamilyLogin }
func (LoginReply) Action() Action { return ActionReply }

func (m LoginReply) Serialize(w *Writer) {
	w.AddShort(int(m.Code))
	if m.Code != LoginReplyOk {
		return
	}
	w.AddChar(len(m.Characters))
	w.AddChar(0)
	w.AddBreak()
	for _, c := range m.Characters {
		w.AddString(c.Name)
		w.AddBreak()
		w.AddInt(c.ID)
		w.AddChar(c.Level)
		w.AddBreak()
	}
}

// ParseLoginReply reads a login reply. Each character chunk is the name,
// a break, then id and level; trailing appearance fields are skipped.
func ParseLoginReply(r *Reader) (LoginReply, error) {
	var m LoginReply
	code, err := r.ReadShort()
	if err != nil {
		return m, err
	}
	m.Code = LoginReplyCode(code)
	if m.Code != LoginReplyOk {
		return m, nil
	}

	r.EnableChunked()
	count, err := r.ReadChar()
	if err != nil {
		return m, err
	}
	if err := r.NextChunk(); err != nil {
		return m, err
	}

	m.Characters = make([]CharacterSummary, 0, count)
	for i := 0; i < count; i++ {
		var c CharacterSummary
		if c.Name, err = r.ReadString(); err != nil {
			return m, err
		}
		if err = r.NextChunk(); err != nil {
			return m, err
		}
		if c.ID, err = r.ReadInt(); err != nil {
			return m, err
		}
		if c.Level, err = r.ReadChar(); err != nil {
			return m, err
		}
		if err = r.NextChunk(); err != nil {
			return m, err
		}
		m.Characters = append(m.Characters, c)
	}
	return m, nil
}

// WelcomeCode selects the variant of a welcome reply.
type WelcomeCode int

const (
	WelcomeSelectCharacter WelcomeCode = 1
	WelcomeEnterGame       WelcomeCode = 2
)

// SelectCharacter is the welcome reply to a character acknowledgment.
type SelectCharacter struct {
	SessionID   int
	CharacterID int
	MapID       int
	MapRID      [2]int
	MapFileSize int
	Name        string
	Title       string
	GuildName   string
	GuildRank   string
	ClassID     int
	GuildTag    string
	Admin       int
	Level       int
	Experience  int
	Usage       int
}

// EnterGame is the welcome reply that puts the character in the world.
type EnterGame struct {
	News   []string
	Weight [2]int
	Items  [][2]int
	Spells [][2]int
	Nearby NearbyInfo
}

// WelcomeReply carries either a SelectCharacter or an EnterGame payload.
type WelcomeReply struct {
	Code            WelcomeCode
	SelectCharacter *SelectCharacter
	EnterGame       *EnterGame
}

func (WelcomeReply) Family() Family { return FamilyWelcome }
func (WelcomeReply) Action() Action { return ActionReply }

func (m WelcomeReply) Serialize(w *Writer) {
	w.AddShort(int(m.Code))
	switch {
	case m.Code == WelcomeSelectCharacter && m.SelectCharacter != nil:
		s := m.SelectCharacter
		w.AddShort(s.SessionID)
		w.AddInt(s.CharacterID)
		w.AddShort(s.MapID)
		w.AddShort(s.MapRID[0])
		w.AddShort(s.MapRID[1])
		w.AddThree(s.MapFileSize)
		for i := 0; i < 4; i++ {
			w.AddShort(0)
			w.AddShort(0)
			w.AddShort(0)
		}
		w.AddString(s.Name)
		w.AddBreak()
		w.AddString(s.Title)
		w.AddBreak()
		w.AddString(s.GuildName)
		w.AddBreak()
		w.AddString(s.GuildRank)
		w.AddBreak()
		w.AddChar(s.ClassID)
		w.AddFixedString(s.GuildTag, 3)
		w.AddChar(s.Admin)
		w.AddChar(s.Level)
		w.AddInt(s.Experience)
		w.AddInt(s.Usage)
		w.AddBreak()
	case m.Code == WelcomeEnterGame && m.EnterGame != nil:
		e := m.EnterGame
		w.AddBreak()
		for i := 0; i < newsLines; i++ {
			if i < len(e.News) {
				w.AddString(e.News[i])
			}
			w.AddBreak()
		}
		w.AddChar(e.Weight[0])
		w.AddChar(e.Weight[1])
		for _, it := range e.Items {
			w.AddShort(it[0])
			w.AddInt(it[1])
		}
		w.AddBreak()
		for _, sp := range e.Spells {
			w.AddShort(sp[0])
			w.AddShort(sp[1])
		}
		w.AddBreak()
		WriteNearby(w, e.Nearby)
	}
}

const newsLines = 9

// ParseWelcomeReply reads a welcome reply. Unknown codes parse to a reply
// with neither payload set.
func ParseWelcomeReply(r *Reader) (WelcomeReply, error) {
	var m WelcomeReply
	code, err := r.ReadShort()
	if err != nil {
		return m, err
	}
	m.Code = WelcomeCode(code)

	switch m.Code {
	case WelcomeSelectCharacter:
		s, err := parseSelectCharacter(r)
		if err != nil {
			return m, err
		}
		m.SelectCharacter = &s
	case WelcomeEnterGame:
		e, err := parseEnterGame(r)
		if err != nil {
			return m, err
		}
		m.EnterGame = &e
	}
	return m, nil
}

func parseSelectCharacter(r *Reader) (SelectCharacter, error) {
	var s SelectCharacter
	var err error
	if s.SessionID, err = r.ReadShort(); err != nil {
		return s, err
	}
	if s.CharacterID, err = r.ReadInt(); err != nil {
		return s, err
	}
	if s.MapID, err = r.ReadShort(); err != nil {
		return s, err
	}
	if s.MapRID[0], err = r.ReadShort(); err != nil {
		return s, err
	}
	if s.MapRID[1], err = r.ReadShort(); err != nil {
		return s, err
	}
	if s.MapFileSize, err = r.ReadThree(); err != nil {
		return s, err
	}
	// pub file ids and lengths (eif, enf, esf, ecf)
	if _, err = r.ReadBytes(4 * 3 * 2); err != nil {
		return s, err
	}

	r.EnableChunked()
	for _, f := range []*string{&s.Name, &s.Title, &s.GuildName, &s.GuildRank} {
		if *f, err = r.ReadString(); err != nil {
			return s, err
		}
		if err = r.NextChunk(); err != nil {
			return s, err
		}
	}
	if s.ClassID, err = r.ReadChar(); err != nil {
		return s, err
	}
	if s.GuildTag, err = r.ReadFixedString(3); err != nil {
		return s, err
	}
	if s.Admin, err = r.ReadChar(); err != nil {
		return s, err
	}
	if s.Level, err = r.ReadChar(); err != nil {
		return s, err
	}
	if s.Experience, err = r.ReadInt(); err != nil {
		return s, err
	}
	s.Usage, err = r.ReadInt()
	return s, err
}

func parseEnterGame(r *Reader) (EnterGame, error) {
	var e EnterGame
	r.EnableChunked()
	if err := r.NextChunk(); err != nil {
		return e, err
	}

	for i := 0; i < newsLines; i++ {
		line, err := r.ReadString()
		if err != nil {
			return e, err
		}
		if line != "" {
			e.News = append(e.News, line)
		}
		if err := r.NextChunk(); err != nil {
			return e, err
		}
	}

	var err error
	if e.Weight[0], err = r.ReadChar(); err != nil {
		return e, err
	}
	if e.Weight[1], err = r.ReadChar(); err != nil {
		return e, err
	}

	for !r.ChunkBoundaryReached() {
		id, err := r.ReadShort()
		if err != nil {
			return e, err
		}
		amount, err := r.ReadInt()
		if err != nil {
			return e, err
		}
		e.Items = append(e.Items, [2]int{id, amount})
	}
	if err := r.NextChunk(); err != nil {
		return e, err
	}

	for !r.ChunkBoundaryReached() {
		id, err := r.ReadShort()
		if err != nil {
			return e, err
		}
		level, err := r.ReadShort()
		if err != nil {
			return e, err
		}
		e.Spells = append(e.Spells, [2]int{id, level})
	}
	if err := r.NextChunk(); err != nil {
		return e, err
	}

	e.Nearby, err = ParseNearby(r)
	return e, err
}

// NearbyUpdate is the shared shape of the messages that carry a full
// nearby snapshot: players-agree, refresh-reply and range-reply.
type NearbyUpdate struct {
	Kind   MessageKind
	Nearby NearbyInfo
}

func (m NearbyUpdate) Family() Family {
	switch m.Kind {
	case KindRefreshReply:
		return FamilyRefresh
	case KindRangeReply:
		return FamilyRange
	}
	return FamilyPlayers
}

func (m NearbyUpdate) Action() Action {
	switch m.Kind {
	case KindRefreshReply, KindRangeReply:
		return ActionReply
	}
	return ActionAgree
}

func (m NearbyUpdate) Serialize(w *Writer) {
	WriteNearby(w, m.Nearby)
}

// ParseNearbyUpdate reads any of the snapshot-carrying messages.
func ParseNearbyUpdate(kind MessageKind, r *Reader) (NearbyUpdate, error) {
	info, err := ParseNearby(r)
	return NearbyUpdate{Kind: kind, Nearby: info}, err
}

// PlayerRemoved is the shape of players-remove and avatar-remove.
type PlayerRemoved struct {
	Kind       MessageKind
	PlayerID   int
	WarpEffect int
}

func (m PlayerRemoved) Family() Family {
	if m.Kind == KindAvatarRemove {
		return FamilyAvatar
	}
	return FamilyPlayers
}

func (PlayerRemoved) Action() Action { return ActionRemove }

func (m PlayerRemoved) Serialize(w *Writer) {
	w.AddShort(m.PlayerID)
	if m.Kind == KindAvatarRemove && m.WarpEffect != 0 {
		w.AddChar(m.WarpEffect)
	}
}

// ParsePlayerRemoved reads players-remove or avatar-remove. The avatar
// variant may carry a trailing warp effect.
func ParsePlayerRemoved(kind MessageKind, r *Reader) (PlayerRemoved, error) {
	m := PlayerRemoved{Kind: kind}
	var err error
	if m.PlayerID, err = r.ReadShort(); err != nil {
		return m, err
	}
	if kind == KindAvatarRemove && r.Remaining() > 0 {
		m.WarpEffect, err = r.ReadChar()
	}
	return m, err
}

// NpcPosition is one moved NPC in an NPC update batch.
type NpcPosition struct {
	Index     int
	X         int
	Y         int
	Direction Direction
}

// NpcAttack is one NPC attack in an NPC update batch.
type NpcAttack struct {
	Index        int
	Killed       int
	Direction    Direction
	PlayerID     int
	Damage       int
	HPPercentage int
}

// NpcChat is one NPC speech line in an NPC update batch.
type NpcChat struct {
	Index   int
	Message string
}

// NpcPlayer batches NPC movement, attacks and speech. Each batch is a
// chunk of fixed-size records whose count is implied by the chunk length.
type NpcPlayer struct {
	Positions []NpcPosition
	Attacks   []NpcAttack
	Chats     []NpcChat
	HP        int
	TP        int
}

func (NpcPlayer) Family() Family { return FamilyNpc }
func (NpcPlayer) Action() Action { return ActionPlayer }

func (m NpcPlayer) Serialize(w *Writer) {
	for _, p := range m.Positions {
		w.AddChar(p.Index)
		w.AddChar(p.X)
		w.AddChar(p.Y)
		w.AddChar(int(p.Direction))
	}
	w.AddBreak()
	for _, a := range m.Attacks {
		w.AddChar(a.Index)
		w.AddChar(a.Killed)
		w.AddChar(int(a.Direction))
		w.AddShort(a.PlayerID)
		w.AddThree(a.Damage)
		w.AddThree(a.HPPercentage)
	}
	w.AddBreak()
	for _, c := range m.Chats {
		w.AddChar(c.Index)
		w.AddChar(len(c.Message))
		w.AddString(c.Message)
	}
	w.AddBreak()
	if m.HP != 0 || m.TP != 0 {
		w.AddShort(m.HP)
		w.AddShort(m.TP)
	}
}

const (
	npcPositionSize = 4
	npcAttackSize   = 11
)

// ParseNpcPlayer reads an NPC update.
func ParseNpcPlayer(r *Reader) (NpcPlayer, error) {
	var m NpcPlayer
	r.EnableChunked()

	for !r.ChunkBoundaryReached() {
		if r.Remaining() < npcPositionSize {
			return m, ErrTruncatedData
		}
		var p NpcPosition
		b, _ := r.ReadBytes(npcPositionSize)
		p.Index = DecodeNumber(b[0:1])
		p.X = DecodeNumber(b[1:2])
		p.Y = DecodeNumber(b[2:3])
		p.Direction = Direction(DecodeNumber(b[3:4]))
		m.Positions = append(m.Positions, p)
	}
	if err := r.NextChunk(); err != nil {
		return m, err
	}

	for !r.ChunkBoundaryReached() {
		if r.Remaining() < npcAttackSize {
			return m, ErrTruncatedData
		}
		b, _ := r.ReadBytes(npcAttackSize)
		m.Attacks = append(m.Attacks, NpcAttack{
			Index:        DecodeNumber(b[0:1]),
			Killed:       DecodeNumber(b[1:2]),
			Direction:    Direction(DecodeNumber(b[2:3])),
			PlayerID:     DecodeNumber(b[3:5]),
			Damage:       DecodeNumber(b[5:8]),
			HPPercentage: DecodeNumber(b[8:11]),
		})
	}
	if err := r.NextChunk(); err != nil {
		return m, err
	}

	for !r.ChunkBoundaryReached() {
		var c NpcChat
		var err error
		if c.Index, err = r.ReadChar(); err != nil {
			return m, err
		}
		n, err := r.ReadChar()
		if err != nil {
			return m, err
		}
		if c.Message, err = r.ReadFixedString(n); err != nil {
			return m, err
		}
		m.Chats = append(m.Chats, c)
	}
	if err := r.NextChunk(); err != nil {
		return m, err
	}

	if r.Remaining() >= 4 {
		m.HP, _ = r.ReadShort()
		m.TP, _ = r.ReadShort()
	}
	return m, nil
}

// WarpType distinguishes a same-map warp from a map switch.
type WarpType int

const (
	WarpLocal     WarpType = 1
	WarpMapSwitch WarpType = 2
)

// WarpRequest asks the client to accept a warp.
type WarpRequest struct {
	Type        WarpType
	MapID       int
	MapRID      [2]int
	MapFileSize int
	SessionID   int
}

func (WarpRequest) Family() Family { return FamilyWarp }
func (WarpRequest) Action() Action { return ActionRequest }

func (m WarpRequest) Serialize(w *Writer) {
	w.AddChar(int(m.Type))
	w.AddShort(m.MapID)
	if m.Type == WarpMapSwitch {
		w.AddShort(m.MapRID[0])
		w.AddShort(m.MapRID[1])
		w.AddThree(m.MapFileSize)
	}
	w.AddShort(m.SessionID)
}

// ParseWarpRequest reads a warp request.
func ParseWarpRequest(r *Reader) (WarpRequest, error) {
	var m WarpRequest
	t, err := r.ReadChar()
	if err != nil {
		return m, err
	}
	m.Type = WarpType(t)
	if m.MapID, err = r.ReadShort(); err != nil {
		return m, err
	}
	if m.Type == WarpMapSwitch {
		if m.MapRID[0], err = r.ReadShort(); err != nil {
			return m, err
		}
		if m.MapRID[1], err = r.ReadShort(); err != nil {
			return m, err
		}
		if m.MapFileSize, err = r.ReadThree(); err != nil {
			return m, err
		}
	}
	m.SessionID, err = r.ReadShort()
	return m, err
}

// PlayerWalked is a walk broadcast for another character.
type PlayerWalked struct {
	PlayerID  int
	Direction Direction
	X         int
	Y         int
}

func (PlayerWalked) Family() Family { return FamilyWalk }
func (PlayerWalked) Action() Action { return ActionPlayer }

func (m PlayerWalked) Serialize(w *Writer) {
	w.AddShort(m.PlayerID)
	w.AddChar(int(m.Direction))
	w.AddChar(m.X)
	w.AddChar(m.Y)
}

// ParsePlayerWalked reads a walk broadcast.
func ParsePlayerWalked(r *Reader) (PlayerWalked, error) {
	var m PlayerWalked
	var err error
	if m.PlayerID, err = r.ReadShort(); err != nil {
		return m, err
	}
	dir, err := r.ReadChar()
	if err != nil {
		return m, err
	}
	m.Direction = Direction(dir)
	if m.X, err = r.ReadChar(); err != nil {
		return m, err
	}
	m.Y, err = r.ReadChar()
	return m, err
}

// PlayerFaced is a turn broadcast for another character.
type PlayerFaced struct {
	PlayerID  int
	Direction Direction
}

func (PlayerFaced) Family() Family { return FamilyFace }
func (PlayerFaced) Action() Action { return ActionPlayer }

func (m PlayerFaced) Serialize(w *Writer) {
	w.AddShort(m.PlayerID)
	w.AddChar(int(m.Direction))
}

// ParsePlayerFaced reads a turn broadcast.
func ParsePlayerFaced(r *Reader) (PlayerFaced, error) {
	var m PlayerFaced
	var err error
	if m.PlayerID, err = r.ReadShort(); err != nil {
		return m, err
	}
	dir, err := r.ReadChar()
	m.Direction = Direction(dir)
	return m, err
}

// PlayerTalked is a local chat line from another character.
type PlayerTalked struct {
	PlayerID int
	Message  string
}

func (PlayerTalked) Family() Family { return FamilyTalk }
func (PlayerTalked) Action() Action { return ActionPlayer }

func (m PlayerTalked) Serialize(w *Writer) {
	w.AddShort(m.PlayerID)
	w.AddString(m.Message)
}

// ParsePlayerTalked reads a local chat line.
func ParsePlayerTalked(r *Reader) (PlayerTalked, error) {
	var m PlayerTalked
	var err error
	if m.PlayerID, err = r.ReadShort(); err != nil {
		return m, err
	}
	m.Message, err = r.ReadString()
	return m, err
}
