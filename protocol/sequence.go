package protocol

// sequenceWindow is the size of the counter cycle shared by both
// strategies.
const sequenceWindow = 10

// InitSequenceStart derives the seeded start value from the two seeds in
// the handshake reply.
func InitSequenceStart(seq1, seq2 int) int {
	return seq1*7 + seq2 - 13
}

// PingSequenceStart derives the seeded start value from the two seeds in
// a server keep-alive.
func PingSequenceStart(seq1, seq2 int) int {
	return seq1 - seq2
}

// SequenceStrategy is one of SeededAdvance or CyclicOffset.
type SequenceStrategy interface {
	sequenceStrategy()
}

// SeededAdvance issues Start+Counter, with Counter cycling through the
// window after every call.
type SeededAdvance struct {
	Start   int
	Counter int
}

// CyclicOffset increments Counter through the window first and then
// issues Base+Counter. It never looks at the seeded state.
type CyclicOffset struct {
	Base    int
	Counter int
}

func (*SeededAdvance) sequenceStrategy() {}
func (*CyclicOffset) sequenceStrategy()  {}

func (s *SeededAdvance) peek() byte {
	return byte((s.Start + s.Counter) & 0xFF)
}

func (s *SeededAdvance) next() byte {
	v := s.peek()
	s.Counter = (s.Counter + 1) % sequenceWindow
	return v
}

func (s *CyclicOffset) next() byte {
	s.Counter = (s.Counter + 1) % sequenceWindow
	return byte((s.Base + s.Counter) & 0xFF)
}

// Sequencer issues the anti-replay byte attached to outbound frames.
//
// The seeded state keeps following handshake and keep-alive seeds even
// while the cyclic strategy is active, so switching back resumes in step
// with the server. Switching strategies mid-session is a compatibility
// risk: the server's expectation was seeded by the handshake, not by the
// cyclic scheme.
type Sequencer struct {
	seeded SeededAdvance
	cyclic CyclicOffset
	active SequenceStrategy
}

// NewSequencer returns a sequencer at its zero starting point using the
// seeded strategy.
func NewSequencer() *Sequencer {
	q := &Sequencer{}
	q.active = &q.seeded
	return q
}

// Next returns the next sequence value and advances the active strategy.
func (q *Sequencer) Next() byte {
	switch s := q.active.(type) {
	case *CyclicOffset:
		return s.next()
	case *SeededAdvance:
		return s.next()
	default:
		panic("protocol: sequencer has no strategy")
	}
}

// Peek returns the value the seeded strategy would issue next without
// advancing it.
func (q *Sequencer) Peek() byte {
	return q.seeded.peek()
}

// Seed replaces the seeded state entirely.
func (q *Sequencer) Seed(start int) {
	q.seeded = SeededAdvance{Start: start}
}

// UseSeeded activates the seeded strategy.
func (q *Sequencer) UseSeeded() {
	q.active = &q.seeded
}

// UseCyclic activates the cyclic strategy with the given base and a
// zeroed counter.
func (q *Sequencer) UseCyclic(base int) {
	q.cyclic = CyclicOffset{Base: base}
	q.active = &q.cyclic
}

// SetCyclicBase changes the cyclic base without touching the counter or
// the active strategy.
func (q *Sequencer) SetCyclicBase(base int) {
	q.cyclic.Base = base
}

// ResetCounter zeroes the cyclic counter.
func (q *Sequencer) ResetCounter() {
	q.cyclic.Counter = 0
}

// Cyclic reports whether the cyclic strategy is active.
func (q *Sequencer) Cyclic() bool {
	_, ok := q.active.(*CyclicOffset)
	return ok
}

// Strategy returns a copy of the active strategy state.
func (q *Sequencer) Strategy() SequenceStrategy {
	switch s := q.active.(type) {
	case *CyclicOffset:
		c := *s
		return &c
	case *SeededAdvance:
		c := *s
		return &c
	}
	return nil
}

// Reset returns both strategies to their zero state. The active strategy
// is configuration and survives.
func (q *Sequencer) Reset() {
	cyclic := q.Cyclic()
	q.seeded = SeededAdvance{}
	q.cyclic = CyclicOffset{}
	if cyclic {
		q.active = &q.cyclic
	} else {
		q.active = &q.seeded
	}
}
