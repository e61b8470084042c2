package client

import (
	"testing"
	"time"
)

func TestThrottle(t *testing.T) {
	base := time.Unix(1700000000, 0)
	tests := []struct {
		name string
		kind ActionKind
		gap  time.Duration
		want bool
	}{
		{"attack 5ms", ActionAttack, 5 * time.Millisecond, false},
		{"attack 15ms", ActionAttack, 15 * time.Millisecond, true},
		{"attack exactly cooldown", ActionAttack, 10 * time.Millisecond, true},
		{"walk 149ms", ActionWalk, 149 * time.Millisecond, false},
		{"walk 151ms", ActionWalk, 151 * time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := NewThrottle()
			if ok, _ := th.Check(tt.kind, base); !ok {
				t.Fatal("first command rejected")
			}
			th.Stamp(tt.kind, base)
			if ok, _ := th.Check(tt.kind, base.Add(tt.gap)); ok != tt.want {
				t.Errorf("second command after %v: allowed = %v, want %v", tt.gap, ok, tt.want)
			}
		})
	}
}

func TestThrottleRejectionKeepsStamp(t *testing.T) {
	base := time.Unix(1700000000, 0)
	th := NewThrottle()
	th.Stamp(ActionWalk, base)

	if ok, _ := th.Check(ActionWalk, base.Add(100*time.Millisecond)); ok {
		t.Fatal("walk at 100ms allowed")
	}
	// 160ms after the accepted walk, 60ms after the rejected one.
	if ok, since := th.Check(ActionWalk, base.Add(160*time.Millisecond)); !ok || since != 160*time.Millisecond {
		t.Errorf("Check() = %v, %v; want true, 160ms", ok, since)
	}
}

func TestThrottleKindsIndependent(t *testing.T) {
	base := time.Unix(1700000000, 0)
	th := NewThrottle()
	th.Stamp(ActionWalk, base)
	if ok, _ := th.Check(ActionAttack, base.Add(time.Millisecond)); !ok {
		t.Error("attack blocked by walk cooldown")
	}
}

func TestThrottleCheckDoesNotStamp(t *testing.T) {
	base := time.Unix(1700000000, 0)
	th := NewThrottle()
	th.Check(ActionWalk, base)
	if ok, _ := th.Check(ActionWalk, base.Add(time.Millisecond)); !ok {
		t.Error("unstamped check blocked the next walk")
	}
}

func TestTimestamp(t *testing.T) {
	now := time.UnixMilli(1234567890)
	if got, want := Timestamp(now), 123456789%16194277; got != want {
		t.Errorf("Timestamp() = %d, want %d", got, want)
	}
	if got := Timestamp(time.UnixMilli(16194277 * 10)); got != 0 {
		t.Errorf("Timestamp() at wrap = %d, want 0", got)
	}
}
