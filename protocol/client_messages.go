package protocol

// Version is the client version announced in the handshake.
type Version struct {
	Major int
	Minor int
	Patch int
}

// InitInit opens the handshake. It is the only message sent before the
// encryption multiples are known.
type InitInit struct {
	Challenge int
	Version   Version
	HDID      string
}

func (InitInit) Family() Family { return FamilyInit }
func (InitInit) Action() Action { return ActionInit }

func (m InitInit) Serialize(w *Writer) {
	w.AddThree(m.Challenge)
	w.AddChar(m.Version.Major)
	w.AddChar(m.Version.Minor)
	w.AddChar(m.Version.Patch)
	w.AddChar(112)
	w.AddChar(len(m.HDID))
	w.AddString(m.HDID)
}

// ConnectionAccept confirms the encryption parameters from the handshake
// reply.
type ConnectionAccept struct {
	ClientEncryptionMultiple int
	ServerEncryptionMultiple int
	PlayerID                 int
}

func (ConnectionAccept) Family() Family { return FamilyConnection }
func (ConnectionAccept) Action() Action { return ActionAccept }

func (m ConnectionAccept) Serialize(w *Writer) {
	w.AddShort(m.ClientEncryptionMultiple)
	w.AddShort(m.ServerEncryptionMultiple)
	w.AddShort(m.PlayerID)
}

// ConnectionPing answers a server keep-alive. It has no body.
type ConnectionPing struct{}

func (ConnectionPing) Family() Family    { return FamilyConnection }
func (ConnectionPing) Action() Action    { return ActionPing }
func (ConnectionPing) Serialize(*Writer) {}

// LoginRequest carries the account credentials.
type LoginRequest struct {
	Username string
	Password string
}

func (LoginRequest) Family() Family { return FamilyLogin }
func (LoginRequest) Action() Action { return ActionRequest }

func (m LoginRequest) Serialize(w *Writer) {
	w.AddString(m.Username)
	w.AddBreak()
	w.AddString(m.Password)
}

// WelcomeRequest acknowledges the chosen character.
type WelcomeRequest struct {
	CharacterID int
}

func (WelcomeRequest) Family() Family { return FamilyWelcome }
func (WelcomeRequest) Action() Action { return ActionRequest }

func (m WelcomeRequest) Serialize(w *Writer) {
	w.AddInt(m.CharacterID)
}

// WelcomeMsg asks to enter the world with the selected character.
type WelcomeMsg struct {
	SessionID   int
	CharacterID int
}

func (WelcomeMsg) Family() Family { return FamilyWelcome }
func (WelcomeMsg) Action() Action { return ActionMsg }

func (m WelcomeMsg) Serialize(w *Writer) {
	w.AddThree(m.SessionID)
	w.AddInt(m.CharacterID)
}

// RefreshRequest asks for a complete nearby snapshot.
type RefreshRequest struct{}

func (RefreshRequest) Family() Family { return FamilyRefresh }
func (RefreshRequest) Action() Action { return ActionRequest }

func (RefreshRequest) Serialize(w *Writer) {
	w.AddByte('y')
}

// WarpAccept confirms a warp the server requested.
type WarpAccept struct {
	MapID     int
	SessionID int
}

func (WarpAccept) Family() Family { return FamilyWarp }
func (WarpAccept) Action() Action { return ActionAccept }

func (m WarpAccept) Serialize(w *Writer) {
	w.AddShort(m.MapID)
	w.AddShort(m.SessionID)
}

// WarpTake requests the map file for a pending warp.
type WarpTake struct {
	MapID     int
	SessionID int
}

func (WarpTake) Family() Family { return FamilyWarp }
func (WarpTake) Action() Action { return ActionTake }

func (m WarpTake) Serialize(w *Writer) {
	w.AddShort(m.MapID)
	w.AddShort(m.SessionID)
}

// AttackUse swings in a direction.
type AttackUse struct {
	Direction Direction
	Timestamp int
}

func (AttackUse) Family() Family { return FamilyAttack }
func (AttackUse) Action() Action { return ActionUse }

func (m AttackUse) Serialize(w *Writer) {
	w.AddChar(int(m.Direction))
	w.AddThree(m.Timestamp)
}

// WalkPlayer moves one tile. X and Y are the destination tile.
type WalkPlayer struct {
	Direction Direction
	Timestamp int
	X         int
	Y         int
}

func (WalkPlayer) Family() Family { return FamilyWalk }
func (WalkPlayer) Action() Action { return ActionPlayer }

func (m WalkPlayer) Serialize(w *Writer) {
	w.AddChar(int(m.Direction))
	w.AddThree(m.Timestamp)
	w.AddChar(m.X)
	w.AddChar(m.Y)
}

// TalkReport says something in local chat.
type TalkReport struct {
	Message string
}

func (TalkReport) Family() Family { return FamilyTalk }
func (TalkReport) Action() Action { return ActionReport }

func (m TalkReport) Serialize(w *Writer) {
	w.AddString(m.Message)
}

// FacePlayer turns in place.
type FacePlayer struct {
	Direction Direction
}

func (FacePlayer) Family() Family { return FamilyFace }
func (FacePlayer) Action() Action { return ActionPlayer }

func (m FacePlayer) Serialize(w *Writer) {
	w.AddChar(int(m.Direction))
}
