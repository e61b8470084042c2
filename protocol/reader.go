package protocol

// Break is the delimiter byte that ends a chunk.
const Break byte = 0xFF

// Reader is a cursor over a message body.
//
// In flat mode fixed-width reads advance by exactly the field width and a
// string read consumes the rest of the body. Once EnableChunked is called
// the body is treated as a sequence of chunks separated by Break: reads
// never cross the end of the current chunk, string reads stop at the
// delimiter, and NextChunk moves past it.
type Reader struct {
	data     []byte
	pos      int
	chunked  bool
	chunkEnd int
}

// NewReader wraps data. The slice is not copied.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current read offset.
func (r *Reader) Position() int { return r.pos }

// Remaining returns the number of readable bytes, bounded by the current
// chunk in chunked mode.
func (r *Reader) Remaining() int {
	if r.pos >= r.limit() {
		return 0
	}
	return r.limit() - r.pos
}

// EnableChunked switches the reader into chunked mode. There is no way
// back: the chunk bookkeeping would desynchronize.
func (r *Reader) EnableChunked() {
	if r.chunked {
		return
	}
	r.chunked = true
	r.chunkEnd = r.findBreak(r.pos)
}

// ChunkBoundaryReached reports whether the cursor sits at the end of the
// current chunk. Always false in flat mode.
func (r *Reader) ChunkBoundaryReached() bool {
	return r.chunked && r.pos >= r.chunkEnd
}

// NextChunk skips the rest of the current chunk and its delimiter.
func (r *Reader) NextChunk() error {
	if !r.chunked {
		return ErrNotChunked
	}
	r.pos = r.chunkEnd
	if r.pos < len(r.data) {
		r.pos++
	}
	r.chunkEnd = r.findBreak(r.pos)
	return nil
}

// ReadByte reads one raw byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= r.limit() {
		return 0, ErrTruncatedData
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads n raw bytes. The returned slice aliases the body.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > r.limit() {
		return nil, ErrTruncatedData
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadChar reads a 1-byte encoded number.
func (r *Reader) ReadChar() (int, error) { return r.readNumber(1) }

// ReadShort reads a 2-byte encoded number.
func (r *Reader) ReadShort() (int, error) { return r.readNumber(2) }

// ReadThree reads a 3-byte encoded number.
func (r *Reader) ReadThree() (int, error) { return r.readNumber(3) }

// ReadInt reads a 4-byte encoded number.
func (r *Reader) ReadInt() (int, error) { return r.readNumber(4) }

// ReadString reads up to the end of the current chunk (chunked mode) or
// the end of the body (flat mode). The delimiter is not consumed.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadFixedString reads exactly n bytes as a string.
func (r *Reader) ReadFixedString(n int) (string, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) readNumber(width int) (int, error) {
	b, err := r.ReadBytes(width)
	if err != nil {
		return 0, err
	}
	return DecodeNumber(b), nil
}

func (r *Reader) limit() int {
	if r.chunked {
		return r.chunkEnd
	}
	return len(r.data)
}

func (r *Reader) findBreak(from int) int {
	for i := from; i < len(r.data); i++ {
		if r.data[i] == Break {
			return i
		}
	}
	return len(r.data)
}
