package protocol

import (
	"fmt"
	"io"
)

// ReadFrame reads one length-prefixed frame from a byte stream and
// returns the frame without its prefix.
func ReadFrame(r io.Reader, maxLen int) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	n := DecodeNumber(header[:])
	if n <= 0 || n > maxLen {
		return nil, fmt.Errorf("invalid frame length %d: %w", n, ErrFrameTooLarge)
	}

	frame := make([]byte, n)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", n, err)
	}
	return frame, nil
}

// WriteFrame prefixes frame with its encoded length and writes both in a
// single call.
func WriteFrame(w io.Writer, frame []byte) error {
	if len(frame) > MaxFrameLength {
		return ErrFrameTooLarge
	}
	length := EncodeNumber(len(frame))
	out := make([]byte, 0, len(frame)+2)
	out = append(out, length[0], length[1])
	out = append(out, frame...)
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
