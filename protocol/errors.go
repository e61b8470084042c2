package protocol

import "errors"

var (
	// ErrTruncatedData is returned when a read needs more bytes than the
	// body (or the current chunk) still holds.
	ErrTruncatedData = errors.New("protocol: truncated data")

	// ErrFrameTooLarge is returned when a frame's length does not fit in
	// the two-byte length prefix.
	ErrFrameTooLarge = errors.New("protocol: frame too large")

	// ErrNumberTooLarge is returned when a value does not fit the encoded
	// field width it is written to.
	ErrNumberTooLarge = errors.New("protocol: number too large for field")

	ErrNotChunked = errors.New("protocol: reader is not in chunked mode")
)
