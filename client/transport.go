package client

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sjbmcg/eo-ws-bridge/protocol"
)

// EventKind is what a transport reports to the engine.
type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventClose
	EventError

	eventLoginDue
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	case eventLoginDue:
		return "login-due"
	}
	return "unknown"
}

// Event is one transport notification. Gen is the connection generation
// it belongs to; the engine stamps it.
type Event struct {
	Gen  uint64
	Kind EventKind
	Data []byte
	Err  error
}

// Transport is an open, message-framed connection. Send is only called
// from the engine loop.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Dialer opens transports. The returned transport reports EventOpen and
// then one EventMessage per inbound frame through emit, ending with a
// single EventClose or EventError unless it was closed locally.
type Dialer interface {
	Dial(ctx context.Context, emit func(Event)) (Transport, error)
}

// WSDialer connects over websocket. Inbound binary messages are frames
// without a length prefix; outbound messages carry it.
type WSDialer struct {
	URL          string
	WriteTimeout time.Duration
	Dialer       *websocket.Dialer
}

func (d WSDialer) Dial(ctx context.Context, emit func(Event)) (Transport, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		return nil, err
	}
	t := &wsTransport{conn: conn, writeTimeout: d.WriteTimeout}
	go t.readLoop(emit)
	return t, nil
}

type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
	closed       atomic.Bool
}

func (t *wsTransport) readLoop(emit func(Event)) {
	emit(Event{Kind: EventOpen})
	for {
		mt, data, err := t.conn.ReadMessage()
		if err != nil {
			if t.closed.Load() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				errors.Is(err, io.EOF) {
				emit(Event{Kind: EventClose, Err: err})
			} else {
				emit(Event{Kind: EventError, Err: err})
			}
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		emit(Event{Kind: EventMessage, Data: data})
	}
}

func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeTimeout > 0 {
		_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	}
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *wsTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.mu.Lock()
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.mu.Unlock()
	return t.conn.Close()
}

// TCPDialer connects straight to a game server and splits the byte
// stream on the length prefix.
type TCPDialer struct {
	Addr     string
	Timeout  time.Duration
	MaxFrame int
}

func (d TCPDialer) Dial(ctx context.Context, emit func(Event)) (Transport, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", d.Addr)
	if err != nil {
		return nil, err
	}
	maxFrame := d.MaxFrame
	if maxFrame <= 0 {
		maxFrame = protocol.MaxFrameLength
	}
	t := &tcpTransport{conn: conn}
	go t.readLoop(emit, maxFrame)
	return t, nil
}

type tcpTransport struct {
	conn   net.Conn
	closed atomic.Bool
}

func (t *tcpTransport) readLoop(emit func(Event), maxFrame int) {
	emit(Event{Kind: EventOpen})
	for {
		frame, err := protocol.ReadFrame(t.conn, maxFrame)
		if err != nil {
			if t.closed.Load() {
				return
			}
			if errors.Is(err, io.EOF) {
				emit(Event{Kind: EventClose, Err: err})
			} else {
				emit(Event{Kind: EventError, Err: err})
			}
			return
		}
		emit(Event{Kind: EventMessage, Data: frame})
	}
}

// Send writes data, which already carries its length prefix.
func (t *tcpTransport) Send(data []byte) error {
	_, err := t.conn.Write(data)
	return err
}

func (t *tcpTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.conn.Close()
}
