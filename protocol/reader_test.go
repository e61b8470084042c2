package protocol

import (
	"errors"
	"testing"
)

func TestReaderChunkedStrings(t *testing.T) {
	r := NewReader([]byte{'a', 'b', 'c', Break, 'd', 'e', Break})
	r.EnableChunked()

	if r.ChunkBoundaryReached() {
		t.Fatal("boundary reached before reading")
	}
	s, err := r.ReadString()
	if err != nil || s != "abc" {
		t.Fatalf("ReadString() = %q, %v; want abc", s, err)
	}
	if !r.ChunkBoundaryReached() {
		t.Error("boundary not reached after first string")
	}

	if err := r.NextChunk(); err != nil {
		t.Fatalf("NextChunk() error = %v", err)
	}
	if r.ChunkBoundaryReached() {
		t.Error("boundary still reached after NextChunk")
	}

	s, err = r.ReadString()
	if err != nil || s != "de" {
		t.Fatalf("ReadString() = %q, %v; want de", s, err)
	}
	if !r.ChunkBoundaryReached() {
		t.Error("boundary not reached after second string")
	}
	if err := r.NextChunk(); err != nil {
		t.Fatalf("NextChunk() error = %v", err)
	}
}

func TestReaderFlatReads(t *testing.T) {
	w := NewWriter()
	w.AddByte(0x7A)
	w.AddChar(12)
	w.AddShort(3000)
	w.AddThree(70000)
	w.AddInt(20000000)
	w.AddString("tail")
	if err := w.Err(); err != nil {
		t.Fatal(err)
	}

	r := NewReader(w.Bytes())
	b, _ := r.ReadByte()
	c, _ := r.ReadChar()
	s, _ := r.ReadShort()
	th, _ := r.ReadThree()
	i, _ := r.ReadInt()
	str, err := r.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x7A || c != 12 || s != 3000 || th != 70000 || i != 20000000 || str != "tail" {
		t.Errorf("got %#x %d %d %d %d %q", b, c, s, th, i, str)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
	if r.ChunkBoundaryReached() {
		t.Error("flat reader reports a chunk boundary")
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{1})
	if _, err := r.ReadShort(); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("ReadShort() error = %v, want ErrTruncatedData", err)
	}
	if r.Position() != 0 {
		t.Errorf("failed read moved the cursor to %d", r.Position())
	}
}

func TestReaderChunkLimitsFixedReads(t *testing.T) {
	// A short cannot straddle the delimiter.
	r := NewReader([]byte{5, Break, 6, 7})
	r.EnableChunked()
	if _, err := r.ReadShort(); !errors.Is(err, ErrTruncatedData) {
		t.Errorf("ReadShort() across a break error = %v, want ErrTruncatedData", err)
	}
}

func TestReaderRepeatedRecords(t *testing.T) {
	w := NewWriter()
	for _, v := range []int{10, 20, 30} {
		w.AddShort(v)
	}
	w.AddBreak()
	w.AddChar(9)

	r := NewReader(w.Bytes())
	r.EnableChunked()
	var got []int
	for !r.ChunkBoundaryReached() {
		v, err := r.ReadShort()
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	if err := r.NextChunk(); err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 10 || got[2] != 30 {
		t.Errorf("records = %v", got)
	}
	if v, err := r.ReadChar(); err != nil || v != 9 {
		t.Errorf("ReadChar() after chunk = %d, %v", v, err)
	}
}

func TestNextChunkRequiresChunkedMode(t *testing.T) {
	r := NewReader([]byte{1, Break})
	if err := r.NextChunk(); !errors.Is(err, ErrNotChunked) {
		t.Errorf("NextChunk() error = %v, want ErrNotChunked", err)
	}
}

func TestWriterRejectsOverflow(t *testing.T) {
	w := NewWriter()
	w.AddChar(CharMax)
	if !errors.Is(w.Err(), ErrNumberTooLarge) {
		t.Errorf("Err() = %v, want ErrNumberTooLarge", w.Err())
	}
}
