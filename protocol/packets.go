package protocol

import (
	"fmt"
	"strings"
)

// Family is the category byte of a message id.
type Family byte

const (
	FamilyConnection Family = 1
	FamilyLogin      Family = 4
	FamilyWelcome    Family = 5
	FamilyWalk       Family = 6
	FamilyFace       Family = 7
	FamilyAttack     Family = 11
	FamilyTalk       Family = 18
	FamilyWarp       Family = 19
	FamilyPlayers    Family = 22
	FamilyAvatar     Family = 23
	FamilyRefresh    Family = 26
	FamilyRange      Family = 27
	FamilyNpc        Family = 34
	FamilyInit       Family = 0xFF
)

func (f Family) String() string {
	switch f {
	case FamilyConnection:
		return "Connection"
	case FamilyLogin:
		return "Login"
	case FamilyWelcome:
		return "Welcome"
	case FamilyWalk:
		return "Walk"
	case FamilyFace:
		return "Face"
	case FamilyAttack:
		return "Attack"
	case FamilyTalk:
		return "Talk"
	case FamilyWarp:
		return "Warp"
	case FamilyPlayers:
		return "Players"
	case FamilyAvatar:
		return "Avatar"
	case FamilyRefresh:
		return "Refresh"
	case FamilyRange:
		return "Range"
	case FamilyNpc:
		return "Npc"
	case FamilyInit:
		return "Init"
	default:
		return fmt.Sprintf("Family(%d)", byte(f))
	}
}

// Action is the operation byte of a message id.
type Action byte

const (
	ActionRequest Action = 1
	ActionAccept  Action = 2
	ActionReply   Action = 3
	ActionRemove  Action = 4
	ActionAgree   Action = 5
	ActionCreate  Action = 6
	ActionPlayer  Action = 8
	ActionTake    Action = 9
	ActionUse     Action = 10
	ActionMsg     Action = 15
	ActionReport  Action = 21
	ActionPing    Action = 240
	ActionInit    Action = 0xFF
)

func (a Action) String() string {
	switch a {
	case ActionRequest:
		return "Request"
	case ActionAccept:
		return "Accept"
	case ActionReply:
		return "Reply"
	case ActionRemove:
		return "Remove"
	case ActionAgree:
		return "Agree"
	case ActionCreate:
		return "Create"
	case ActionPlayer:
		return "Player"
	case ActionTake:
		return "Take"
	case ActionUse:
		return "Use"
	case ActionMsg:
		return "Msg"
	case ActionReport:
		return "Report"
	case ActionPing:
		return "Ping"
	case ActionInit:
		return "Init"
	default:
		return fmt.Sprintf("Action(%d)", byte(a))
	}
}

// MessageKind is the closed set of inbound messages the client handles.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindInitReply
	KindConnectionPlayer
	KindLoginReply
	KindWelcomeReply
	KindPlayersAgree
	KindPlayersRemove
	KindAvatarRemove
	KindRefreshReply
	KindRangeReply
	KindNpcPlayer
	KindWarpRequest
	KindWarpCreate
	KindWalkPlayer
	KindFacePlayer
	KindTalkPlayer
)

var kindNames = [...]string{
	KindUnknown:          "Unknown",
	KindInitReply:        "InitReply",
	KindConnectionPlayer: "ConnectionPlayer",
	KindLoginReply:       "LoginReply",
	KindWelcomeReply:     "WelcomeReply",
	KindPlayersAgree:     "PlayersAgree",
	KindPlayersRemove:    "PlayersRemove",
	KindAvatarRemove:     "AvatarRemove",
	KindRefreshReply:     "RefreshReply",
	KindRangeReply:       "RangeReply",
	KindNpcPlayer:        "NpcPlayer",
	KindWarpRequest:      "WarpRequest",
	KindWarpCreate:       "WarpCreate",
	KindWalkPlayer:       "WalkPlayer",
	KindFacePlayer:       "FacePlayer",
	KindTalkPlayer:       "TalkPlayer",
}

func (k MessageKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

type messageID struct {
	family Family
	action Action
}

var serverKinds = map[messageID]MessageKind{
	{FamilyInit, ActionInit}:         KindInitReply,
	{FamilyConnection, ActionPlayer}: KindConnectionPlayer,
	{FamilyLogin, ActionReply}:       KindLoginReply,
	{FamilyWelcome, ActionReply}:     KindWelcomeReply,
	{FamilyPlayers, ActionAgree}:     KindPlayersAgree,
	{FamilyPlayers, ActionRemove}:    KindPlayersRemove,
	{FamilyAvatar, ActionRemove}:     KindAvatarRemove,
	{FamilyRefresh, ActionReply}:     KindRefreshReply,
	{FamilyRange, ActionReply}:       KindRangeReply,
	{FamilyNpc, ActionPlayer}:        KindNpcPlayer,
	{FamilyWarp, ActionRequest}:      KindWarpRequest,
	{FamilyWarp, ActionCreate}:       KindWarpCreate,
	{FamilyWalk, ActionPlayer}:       KindWalkPlayer,
	{FamilyFace, ActionPlayer}:       KindFacePlayer,
	{FamilyTalk, ActionPlayer}:       KindTalkPlayer,
}

// Classify maps a (family, action) pair to a MessageKind. Pairs outside
// the catalog yield KindUnknown.
func Classify(family Family, action Action) MessageKind {
	return serverKinds[messageID{family, action}]
}

// IsSentinel reports whether the pair marks the unencrypted handshake.
func IsSentinel(family Family, action Action) bool {
	return family == FamilyInit && action == ActionInit
}

// Direction a character faces or moves in.
type Direction int

const (
	DirectionDown  Direction = 0
	DirectionLeft  Direction = 1
	DirectionUp    Direction = 2
	DirectionRight Direction = 3
)

func (d Direction) String() string {
	switch d {
	case DirectionDown:
		return "Down"
	case DirectionLeft:
		return "Left"
	case DirectionUp:
		return "Up"
	case DirectionRight:
		return "Right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Valid reports whether d is one of the four compass directions.
func (d Direction) Valid() bool {
	return d >= DirectionDown && d <= DirectionRight
}

// ParseDirection accepts direction names ("up") and WASD keys, in any
// case.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "down", "s":
		return DirectionDown, true
	case "left", "a":
		return DirectionLeft, true
	case "up", "w":
		return DirectionUp, true
	case "right", "d":
		return DirectionRight, true
	}
	return 0, false
}

// Step returns the tile one step away from (x, y) in direction d.
func (d Direction) Step(x, y int) (int, int) {
	switch d {
	case DirectionUp:
		return x, y - 1
	case DirectionRight:
		return x + 1, y
	case DirectionDown:
		return x, y + 1
	case DirectionLeft:
		return x - 1, y
	}
	return x, y
}
