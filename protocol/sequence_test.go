package protocol

import "testing"

func TestCyclicOffsetPeriod(t *testing.T) {
	const base = 250
	q := NewSequencer()
	q.UseCyclic(base)

	for i := 0; i < 20; i++ {
		want := byte((base + (i+1)%sequenceWindow) % 256)
		if got := q.Next(); got != want {
			t.Errorf("call %d: Next() = %d, want %d", i, got, want)
		}
	}
}

func TestSeededAdvance(t *testing.T) {
	q := NewSequencer()
	start := InitSequenceStart(10, 5)
	if start != 62 {
		t.Fatalf("InitSequenceStart(10, 5) = %d, want 62", start)
	}
	q.Seed(start)

	for i := 0; i < 12; i++ {
		want := byte(start + i%sequenceWindow)
		if got := q.Next(); got != want {
			t.Errorf("call %d: Next() = %d, want %d", i, got, want)
		}
	}
}

func TestSeedReplacesState(t *testing.T) {
	q := NewSequencer()
	q.Seed(40)
	q.Next()
	q.Next()

	q.Seed(PingSequenceStart(100, 20))
	if got := q.Next(); got != 80 {
		t.Errorf("Next() after reseed = %d, want 80", got)
	}
}

func TestPeekDoesNotAdvance(t *testing.T) {
	q := NewSequencer()
	q.Seed(7)
	if q.Peek() != 7 || q.Peek() != 7 {
		t.Fatal("Peek() advanced the sequence")
	}
	if got := q.Next(); got != 7 {
		t.Errorf("Next() = %d, want 7", got)
	}
}

func TestSeededWrapsIntoByte(t *testing.T) {
	q := NewSequencer()
	q.Seed(255)
	q.Next()
	if got := q.Next(); got != 0 {
		t.Errorf("Next() = %d, want 0", got)
	}
}

func TestSwitchingStrategies(t *testing.T) {
	q := NewSequencer()
	q.Seed(20)
	q.UseCyclic(int(q.Peek()))
	if !q.Cyclic() {
		t.Fatal("Cyclic() = false after UseCyclic")
	}
	if got := q.Next(); got != 21 {
		t.Errorf("cyclic Next() = %d, want 21", got)
	}

	// The seeded state keeps following seeds while inactive.
	q.Seed(90)
	q.UseSeeded()
	if got := q.Next(); got != 90 {
		t.Errorf("seeded Next() = %d, want 90", got)
	}
}

func TestResetCounterAndReset(t *testing.T) {
	q := NewSequencer()
	q.UseCyclic(10)
	q.Next()
	q.Next()
	q.ResetCounter()
	if got := q.Next(); got != 11 {
		t.Errorf("Next() after ResetCounter = %d, want 11", got)
	}

	q.Reset()
	if !q.Cyclic() {
		t.Error("Reset() changed the active strategy")
	}
	if got := q.Next(); got != 1 {
		t.Errorf("Next() after Reset = %d, want 1", got)
	}
	s, ok := q.Strategy().(*CyclicOffset)
	if !ok || s.Counter != 1 || s.Base != 0 {
		t.Errorf("Strategy() = %#v", q.Strategy())
	}
}
