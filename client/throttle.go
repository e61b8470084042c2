package client

import (
	"time"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

// ActionKind names a throttled command.
type ActionKind int

const (
	ActionAttack ActionKind = iota
	ActionWalk
)

func (k ActionKind) String() string {
	switch k {
	case ActionAttack:
		return "attack"
	case ActionWalk:
		return "walk"
	}
	return "unknown"
}

// Default cooldowns between accepted commands.
const (
	AttackCooldown = 10 * time.Millisecond
	WalkCooldown   = 150 * time.Millisecond
)

// Throttle enforces a minimum interval between accepted commands of the
// same kind. Only accepted commands move the stamp.
type Throttle struct {
	cooldowns map[ActionKind]time.Duration
	last      map[ActionKind]time.Time
}

// NewThrottle returns a throttle with the default cooldowns.
func NewThrottle() *Throttle {
	return &Throttle{
		cooldowns: map[ActionKind]time.Duration{
			ActionAttack: AttackCooldown,
			ActionWalk:   WalkCooldown,
		},
		last: make(map[ActionKind]time.Time),
	}
}

// Check reports whether a command of kind issued at now may be sent and
// the time since the previous accepted command of that kind. It does
// not stamp; call Stamp once the command has gone out.
func (t *Throttle) Check(kind ActionKind, now time.Time) (bool, time.Duration) {
	last, seen := t.last[kind]
	if !seen {
		return true, 0
	}
	since := now.Sub(last)
	return since >= t.cooldowns[kind], since
}

// Stamp records now as the last accepted command of kind.
func (t *Throttle) Stamp(kind ActionKind, now time.Time) {
	t.last[kind] = now
}

// Reset forgets every stamp.
func (t *Throttle) Reset() {
	t.last = make(map[ActionKind]time.Time)
}

// Timestamp is the replay stamp carried by walk and attack commands:
// hundredths of a second since the epoch, wrapped to a three-byte field.
func Timestamp(now time.Time) int {
	return int((now.UnixMilli() / 10) % protocol.ThreeMax)
}
