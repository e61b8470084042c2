package protocol

import "fmt"

// MaxFrameLength is the largest frame whose length fits the two-byte
// prefix.
const MaxFrameLength = ShortMax - 1

// Message is anything that can be written as a frame body.
type Message interface {
	Family() Family
	Action() Action
	Serialize(w *Writer)
}

// SequenceSource issues sequence bytes for outbound frames.
type SequenceSource interface {
	Next() byte
}

// Packet is a decoded inbound frame.
type Packet struct {
	Family Family
	Action Action
	Body   []byte
}

// Kind classifies the packet.
func (p Packet) Kind() MessageKind {
	return Classify(p.Family, p.Action)
}

// Reader returns a fresh flat-mode reader over the body.
func (p Packet) Reader() *Reader {
	return NewReader(p.Body)
}

func (p Packet) String() string {
	return fmt.Sprintf("%s_%s (%d bytes)", p.Family, p.Action, len(p.Body))
}

// EncodeFrame serializes msg into wire bytes: a two-byte encoded length
// followed by the frame. The frame is [action, family, seq?, body...]
// passed through the transform chain, except for the handshake sentinel
// which travels in the clear and without a sequence byte. A sequence
// value is drawn from seq only when one is written.
func EncodeFrame(msg Message, seq SequenceSource, clientMultiple int) ([]byte, error) {
	w := NewWriter()
	msg.Serialize(w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("serialize %s_%s: %w", msg.Family(), msg.Action(), err)
	}
	body := w.Bytes()

	family, action := msg.Family(), msg.Action()
	sentinel := IsSentinel(family, action)
	size := len(body) + 2
	if !sentinel {
		size++
	}
	// A refused frame must not consume a sequence value.
	if size > MaxFrameLength {
		return nil, fmt.Errorf("%s_%s: %d bytes: %w", family, action, size, ErrFrameTooLarge)
	}

	frame := make([]byte, 0, size)
	frame = append(frame, byte(action), byte(family))
	if !sentinel {
		frame = append(frame, seq.Next())
	}
	frame = append(frame, body...)

	if !sentinel {
		EncodeChain(frame, clientMultiple)
	}

	length := EncodeNumber(len(frame))
	out := make([]byte, 0, len(frame)+2)
	out = append(out, length[0], length[1])
	return append(out, frame...), nil
}

// DecodeFrame reverses the transform chain on raw (one frame, no length
// prefix) and splits off the action and family bytes. raw is not
// modified.
func DecodeFrame(raw []byte, serverMultiple int) (Packet, error) {
	if len(raw) < 2 {
		return Packet{}, ErrTruncatedData
	}

	buf := make([]byte, len(raw))
	copy(buf, raw)
	if !(buf[0] == 0xFF && buf[1] == 0xFF) {
		DecodeChain(buf, serverMultiple)
	}

	return Packet{
		Action: Action(buf[0]),
		Family: Family(buf[1]),
		Body:   buf[2:],
	}, nil
}

// EncodeServerFrame builds a frame the way a server does: no sequence
// byte and no length prefix, transformed with the server multiple unless
// it is the handshake sentinel.
func EncodeServerFrame(msg Message, serverMultiple int) ([]byte, error) {
	w := NewWriter()
	msg.Serialize(w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("serialize %s_%s: %w", msg.Family(), msg.Action(), err)
	}

	frame := make([]byte, 0, w.Len()+2)
	frame = append(frame, byte(msg.Action()), byte(msg.Family()))
	frame = append(frame, w.Bytes()...)
	if !IsSentinel(msg.Family(), msg.Action()) {
		EncodeChain(frame, serverMultiple)
	}
	return frame, nil
}
