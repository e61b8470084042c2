package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type countingSequence struct {
	calls int
	value byte
}

func (c *countingSequence) Next() byte {
	c.calls++
	return c.value
}

func TestEncodeFrameSentinel(t *testing.T) {
	seq := &countingSequence{value: 9}
	msg := InitInit{Challenge: 12345, Version: Version{Patch: 28}, HDID: "161726351"}

	out, err := EncodeFrame(msg, seq, 5)
	if err != nil {
		t.Fatal(err)
	}
	if seq.calls != 0 {
		t.Errorf("sentinel frame drew %d sequence values", seq.calls)
	}
	frame := out[2:]
	if got := DecodeNumber(out[:2]); got != len(frame) {
		t.Errorf("length prefix = %d, want %d", got, len(frame))
	}
	if frame[0] != 0xFF || frame[1] != 0xFF {
		t.Errorf("sentinel frame was transformed: % x", frame[:2])
	}
	if !bytes.HasSuffix(frame, []byte("161726351")) {
		t.Errorf("hdid not at end of clear frame: % x", frame)
	}
}

func TestEncodeFrameSequencedAndTransformed(t *testing.T) {
	seq := &countingSequence{value: 42}
	msg := FacePlayer{Direction: DirectionRight}

	for k := 0; k < 10; k++ {
		out, err := EncodeFrame(msg, seq, k)
		if err != nil {
			t.Fatal(err)
		}
		frame := append([]byte(nil), out[2:]...)
		if got := DecodeNumber(out[:2]); got != len(frame) {
			t.Fatalf("length prefix = %d, want %d", got, len(frame))
		}

		DecodeChain(frame, k)
		want := []byte{byte(ActionPlayer), byte(FamilyFace), 42, EncodeNumber(3)[0]}
		if !bytes.Equal(frame, want) {
			t.Errorf("k=%d: decoded frame = % x, want % x", k, frame, want)
		}
	}
	if seq.calls != 10 {
		t.Errorf("sequence calls = %d, want 10", seq.calls)
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	msg := TalkReport{Message: strings.Repeat("x", MaxFrameLength)}
	_, err := EncodeFrame(msg, &countingSequence{}, 3)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("EncodeFrame() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestEncodeFrameTooLargeKeepsSequence(t *testing.T) {
	seq := NewSequencer()
	seq.Seed(100)
	before := seq.Peek()

	msg := TalkReport{Message: strings.Repeat("x", 70000)}
	if _, err := EncodeFrame(msg, seq, 3); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("EncodeFrame() error = %v, want ErrFrameTooLarge", err)
	}
	if after := seq.Peek(); after != before {
		t.Errorf("sequence moved from %d to %d on a refused frame", before, after)
	}
}

func TestEncodeFrameSerializeError(t *testing.T) {
	_, err := EncodeFrame(WalkPlayer{X: -1}, &countingSequence{}, 3)
	if !errors.Is(err, ErrNumberTooLarge) {
		t.Errorf("EncodeFrame() error = %v, want ErrNumberTooLarge", err)
	}
}

func TestServerFrameRoundTrip(t *testing.T) {
	msg := PlayerFaced{PlayerID: 77, Direction: DirectionLeft}
	for k := 0; k < 10; k++ {
		raw, err := EncodeServerFrame(msg, k)
		if err != nil {
			t.Fatal(err)
		}
		pkt, err := DecodeFrame(raw, k)
		if err != nil {
			t.Fatal(err)
		}
		if pkt.Kind() != KindFacePlayer {
			t.Fatalf("k=%d: Kind() = %v", k, pkt.Kind())
		}
		got, err := ParsePlayerFaced(pkt.Reader())
		if err != nil || got != msg {
			t.Errorf("k=%d: ParsePlayerFaced() = %+v, %v", k, got, err)
		}
	}
}

func TestDecodeFrameDoesNotMutateInput(t *testing.T) {
	raw, _ := EncodeServerFrame(PlayerFaced{PlayerID: 3}, 4)
	orig := append([]byte(nil), raw...)
	if _, err := DecodeFrame(raw, 4); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, orig) {
		t.Error("DecodeFrame modified its input")
	}
}

func TestDecodeFrameTruncated(t *testing.T) {
	if _, err := DecodeFrame([]byte{1}, 0); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("DecodeFrame() error = %v, want ErrTruncatedData", err)
	}
}

func TestStreamFrames(t *testing.T) {
	var buf bytes.Buffer
	frames := [][]byte{{1, 2, 3}, bytes.Repeat([]byte{7}, 300)}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatal(err)
		}
	}
	for _, want := range frames {
		got, err := ReadFrame(&buf, MaxFrameLength)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadFrame() = % x, want % x", got, want)
		}
	}
	if _, err := ReadFrame(&buf, MaxFrameLength); err == nil {
		t.Error("ReadFrame() on empty stream succeeded")
	}
}

func TestReadFrameRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteFrame(&buf, make([]byte, 100))
	if _, err := ReadFrame(&buf, 50); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("ReadFrame() error = %v, want ErrFrameTooLarge", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		family Family
		action Action
		want   MessageKind
	}{
		{FamilyInit, ActionInit, KindInitReply},
		{FamilyConnection, ActionPlayer, KindConnectionPlayer},
		{FamilyWelcome, ActionReply, KindWelcomeReply},
		{FamilyAvatar, ActionRemove, KindAvatarRemove},
		{FamilyNpc, ActionPlayer, KindNpcPlayer},
		{Family(99), ActionReply, KindUnknown},
	}
	for _, tc := range tests {
		if got := Classify(tc.family, tc.action); got != tc.want {
			t.Errorf("Classify(%s, %s) = %s, want %s", tc.family, tc.action, got, tc.want)
		}
	}
}
