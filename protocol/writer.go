package protocol

// Writer builds a message body. The first encoding error is kept and
// reported by Err; later writes still append so that offsets stay
// predictable for callers that only check at the end.
type Writer struct {
	buf []byte
	err error
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes returns the encoded body.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Err returns the first encoding error, if any.
func (w *Writer) Err() error { return w.err }

// AddByte appends a raw byte.
func (w *Writer) AddByte(b byte) { w.buf = append(w.buf, b) }

// AddBytes appends raw bytes.
func (w *Writer) AddBytes(b []byte) { w.buf = append(w.buf, b...) }

// AddBreak appends the chunk delimiter.
func (w *Writer) AddBreak() { w.buf = append(w.buf, Break) }

// AddChar appends n as a 1-byte encoded number.
func (w *Writer) AddChar(n int) { w.addNumber(n, 1, CharMax) }

// AddShort appends n as a 2-byte encoded number.
func (w *Writer) AddShort(n int) { w.addNumber(n, 2, ShortMax) }

// AddThree appends n as a 3-byte encoded number.
func (w *Writer) AddThree(n int) { w.addNumber(n, 3, ThreeMax) }

// AddInt appends n as a 4-byte encoded number.
func (w *Writer) AddInt(n int) { w.addNumber(n, 4, IntMax) }

// AddString appends the raw bytes of s.
func (w *Writer) AddString(s string) { w.buf = append(w.buf, s...) }

// AddFixedString appends s truncated or padded with spaces to n bytes.
func (w *Writer) AddFixedString(s string, n int) {
	for i := 0; i < n; i++ {
		if i < len(s) {
			w.buf = append(w.buf, s[i])
		} else {
			w.buf = append(w.buf, ' ')
		}
	}
}

func (w *Writer) addNumber(n, width, max int) {
	if (n < 0 || n >= max) && w.err == nil {
		w.err = ErrNumberTooLarge
	}
	enc := EncodeNumber(n)
	w.buf = append(w.buf, enc[:width]...)
}
