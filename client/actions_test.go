package client

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

func TestWalkPredictsAndThrottles(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	e, d := newTestEngine(t, Options{Now: clock.Now})
	inWorld(e)

	if err := e.walk(protocol.DirectionRight); err != nil {
		t.Fatal(err)
	}
	if e.world.Player.X != 11 || e.world.Player.Direction != protocol.DirectionRight {
		t.Errorf("player = %+v", e.world.Player)
	}
	sent := d.transport(0).frames()
	f := decodeSent(t, sent[0], 2)
	if f.Family != protocol.FamilyWalk || f.Action != protocol.ActionPlayer {
		t.Fatalf("frame = %v_%v", f.Family, f.Action)
	}
	r := protocol.NewReader(f.Body)
	dir, _ := r.ReadChar()
	stamp, _ := r.ReadThree()
	x, _ := r.ReadChar()
	y, _ := r.ReadChar()
	if protocol.Direction(dir) != protocol.DirectionRight || x != 11 || y != 12 {
		t.Errorf("walk = dir %d to (%d,%d)", dir, x, y)
	}
	if stamp != Timestamp(clock.now) {
		t.Errorf("timestamp = %d, want %d", stamp, Timestamp(clock.now))
	}

	clock.Advance(149 * time.Millisecond)
	if err := e.walk(protocol.DirectionRight); !errors.Is(err, ErrThrottled) {
		t.Errorf("walk at 149ms = %v, want ErrThrottled", err)
	}
	if e.world.Player.X != 11 || len(d.transport(0).frames()) != 1 {
		t.Error("throttled walk moved the player or sent a frame")
	}

	clock.Advance(2 * time.Millisecond)
	if err := e.walk(protocol.DirectionRight); err != nil {
		t.Errorf("walk at 151ms = %v", err)
	}
	if e.world.Player.X != 12 {
		t.Errorf("player x = %d, want 12", e.world.Player.X)
	}
}

func TestWalkOffMapDoesNotStamp(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	e, d := newTestEngine(t, Options{Now: clock.Now})
	inWorld(e)
	e.world.Player.X = 0
	seqBefore := e.seq.Peek()

	if err := e.walk(protocol.DirectionLeft); !errors.Is(err, ErrOffMap) {
		t.Fatalf("walk off the edge = %v, want ErrOffMap", err)
	}
	if n := len(d.transport(0).frames()); n != 0 {
		t.Fatalf("sent %d frames for an off-map walk", n)
	}
	if e.seq.Peek() != seqBefore {
		t.Error("off-map walk consumed a sequence value")
	}

	clock.Advance(10 * time.Millisecond)
	if err := e.walk(protocol.DirectionRight); err != nil {
		t.Fatalf("walk after rejected walk = %v", err)
	}
	if e.world.Player.X != 1 || len(d.transport(0).frames()) != 1 {
		t.Errorf("player x = %d, frames = %d", e.world.Player.X, len(d.transport(0).frames()))
	}
}

func TestAttack(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	e, d := newTestEngine(t, Options{Now: clock.Now})
	inWorld(e)
	e.world.Player.Direction = protocol.DirectionLeft

	if err := e.attack(e.world.Player.Direction); err != nil {
		t.Fatal(err)
	}
	clock.Advance(5 * time.Millisecond)
	if err := e.attack(protocol.DirectionUp); !errors.Is(err, ErrThrottled) {
		t.Errorf("attack at 5ms = %v", err)
	}
	clock.Advance(10 * time.Millisecond)
	if err := e.attack(protocol.DirectionUp); err != nil {
		t.Errorf("attack at 15ms = %v", err)
	}

	if e.session.AttackCount != 2 {
		t.Errorf("AttackCount = %d, want 2", e.session.AttackCount)
	}
	sent := d.transport(0).frames()
	if len(sent) != 2 {
		t.Fatalf("sent %d frames, want 2", len(sent))
	}
	f := decodeSent(t, sent[0], 2)
	if f.Family != protocol.FamilyAttack || f.Action != protocol.ActionUse {
		t.Fatalf("frame = %v_%v", f.Family, f.Action)
	}
	if dir, _ := protocol.NewReader(f.Body).ReadChar(); protocol.Direction(dir) != protocol.DirectionLeft {
		t.Errorf("attack direction = %d", dir)
	}
}

func TestFaceAndSayAreNotThrottled(t *testing.T) {
	e, d := newTestEngine(t, Options{})
	inWorld(e)

	for i := 0; i < 3; i++ {
		if err := e.face(protocol.DirectionUp); err != nil {
			t.Fatalf("face %d: %v", i, err)
		}
		if err := e.say("hello"); err != nil {
			t.Fatalf("say %d: %v", i, err)
		}
	}
	if n := len(d.transport(0).frames()); n != 6 {
		t.Errorf("sent %d frames, want 6", n)
	}
	if e.world.Player.Direction != protocol.DirectionUp || e.world.Player.Y != 12 {
		t.Errorf("player = %+v", e.world.Player)
	}

	f := decodeSent(t, d.transport(0).frames()[1], 2)
	if f.Family != protocol.FamilyTalk || string(f.Body) != "hello" {
		t.Errorf("chat frame = %v %q", f.Family, f.Body)
	}

	if err := e.say(""); err == nil {
		t.Error("empty chat accepted")
	}
}

func TestCommandsRequireWorld(t *testing.T) {
	e, d := newTestEngine(t, Options{})
	open(e)

	cmds := map[string]func() error{
		"walk":    func() error { return e.walk(protocol.DirectionUp) },
		"attack":  func() error { return e.attack(protocol.DirectionUp) },
		"face":    func() error { return e.face(protocol.DirectionUp) },
		"say":     func() error { return e.say("hi") },
		"refresh": e.refresh,
	}
	for name, cmd := range cmds {
		t.Run(name, func(t *testing.T) {
			if err := cmd(); !errors.Is(err, ErrNotInGame) {
				t.Errorf("%s = %v, want ErrNotInGame", name, err)
			}
		})
	}
	if n := len(d.transport(0).frames()); n != 1 {
		t.Errorf("sent %d frames, want only the handshake", n)
	}
}

func TestInvalidDirection(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	inWorld(e)
	if err := e.walk(protocol.Direction(7)); err == nil {
		t.Error("walk accepted direction 7")
	}
}

func TestSequenceStrategyToggle(t *testing.T) {
	e, d := newTestEngine(t, Options{LoginDelay: time.Hour})
	open(e)
	deliver(t, e, handshakeReply())
	base := byte(protocol.InitSequenceStart(12, 40))

	e.session.HasEnteredGame = true
	e.session.State = StateInWorld
	e.useCyclic(true)
	if err := e.refresh(); err != nil {
		t.Fatal(err)
	}
	e.seq.ResetCounter()
	if err := e.refresh(); err != nil {
		t.Fatal(err)
	}

	sent := d.transport(0).frames()
	first := decodeSent(t, sent[2], 2)
	second := decodeSent(t, sent[3], 2)
	if first.Seq != base+1 || second.Seq != base+1 {
		t.Errorf("cyclic seqs = %d, %d; want %d twice", first.Seq, second.Seq, base+1)
	}

	e.useCyclic(false)
	if e.seq.Cyclic() {
		t.Error("still cyclic")
	}
}

func TestCyclicOption(t *testing.T) {
	e, d := newTestEngine(t, Options{CyclicSequence: true, LoginDelay: time.Hour})
	open(e)
	deliver(t, e, handshakeReply())

	base := byte(protocol.InitSequenceStart(12, 40))
	accept := decodeSent(t, d.transport(0).frames()[1], 2)
	if accept.Seq != base+1 {
		t.Errorf("accept seq = %d, want %d", accept.Seq, base+1)
	}
}

func TestSelectCharacterState(t *testing.T) {
	e, _ := newTestEngine(t, Options{})
	open(e)
	if err := e.selectCharacter(1); !errors.Is(err, ErrUnexpectedState) {
		t.Errorf("selectCharacter = %v, want ErrUnexpectedState", err)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	e, _ := newTestEngine(t, Options{Metrics: m, Now: clock.Now})
	inWorld(e)

	_ = e.walk(protocol.DirectionUp)
	_ = e.walk(protocol.DirectionUp)
	deliver(t, e, protocol.ConnectionPlayer{Seq1: 10, Seq2: 2})
	deliverRaw(e, protocol.FamilyRefresh, protocol.ActionReply, []byte{2})

	if got := counterValue(t, m.sent.WithLabelValues("Walk_Player")); got != 1 {
		t.Errorf("walks sent = %v", got)
	}
	if got := counterValue(t, m.rejected.WithLabelValues("walk", "throttled")); got != 1 {
		t.Errorf("walks throttled = %v", got)
	}
	if got := counterValue(t, m.received.WithLabelValues("ConnectionPlayer")); got != 1 {
		t.Errorf("pings received = %v", got)
	}
	if got := counterValue(t, m.malformed.WithLabelValues("RefreshReply")); got != 1 {
		t.Errorf("malformed = %v", got)
	}
}
