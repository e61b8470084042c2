package client

import (
	"errors"
	"fmt"
)

var (
	ErrHandshakeRejected    = errors.New("handshake rejected")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTransportClosed      = errors.New("transport closed")
	ErrTransportError       = errors.New("transport error")
	ErrNotInGame            = errors.New("not in game")
	ErrThrottled            = errors.New("throttled")
	ErrNotConnected         = errors.New("not connected")
	ErrUnexpectedState      = errors.New("unexpected state")
	ErrOffMap               = errors.New("destination off the map")
)

// ReplyError is a server reply with a non-success code. It unwraps to
// ErrHandshakeRejected or ErrAuthenticationFailed.
type ReplyError struct {
	Op   string
	Code int
	Err  error
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %v (code %d)", e.Op, e.Err, e.Code)
}

func (e *ReplyError) Unwrap() error { return e.Err }
