package client

import "fmt"

// State is the connection state of a session.
type State int

const (
	StateDisconnected State = iota
	StateAwaitingHandshake
	StateAwaitingLogin
	StateAwaitingCharacterList
	StateAwaitingWelcome
	StateInWorld
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateAwaitingHandshake:
		return "AwaitingHandshake"
	case StateAwaitingLogin:
		return "AwaitingLogin"
	case StateAwaitingCharacterList:
		return "AwaitingCharacterList"
	case StateAwaitingWelcome:
		return "AwaitingWelcome"
	case StateInWorld:
		return "InWorld"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the per-connection protocol state. A reconnect replaces it
// with the zero value.
type Session struct {
	State                    State
	ClientEncryptionMultiple int
	ServerEncryptionMultiple int
	PlayerID                 int
	SessionID                int
	SelectedCharacterID      int
	HasEnteredGame           bool
	MapLoaded                bool
	AttackCount              int

	// pendingWarp is a map-switch warp waiting for its map data.
	pendingWarp *pendingWarp
}

type pendingWarp struct {
	MapID     int
	SessionID int
}

// Status is a human-readable line for the presentation layer.
// CanReconnect is set after any failure that leaves the session unusable.
type Status struct {
	Text         string
	State        State
	CanReconnect bool
	Err          error
}
