package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

var (
	errSlowConsumer = errors.New("websocket client too slow")
	errClosed       = errors.New("session closed")
)

const sendQueueSize = 64

// ClientConn owns the websocket side of a session. Only writePump writes
// data messages.
type ClientConn struct {
	ws           *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration
	readTimeout  time.Duration
}

func newClientConn(ws *websocket.Conn, readTimeout, writeTimeout time.Duration) *ClientConn {
	return &ClientConn{
		ws:           ws,
		send:         make(chan []byte, sendQueueSize),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// enqueue queues a frame for the websocket. Frames cannot be dropped
// without breaking the session, so a full queue fails instead.
func (c *ClientConn) enqueue(b []byte) error {
	select {
	case c.send <- b:
		return nil
	default:
		return errSlowConsumer
	}
}

func (c *ClientConn) close() {
	_ = c.ws.Close()
}

// writePump sends queued frames as binary messages and pings the client
// so its read deadline keeps moving. It returns when the queue is closed.
func (c *ClientConn) writePump(ctx context.Context) error {
	var tick <-chan time.Time
	if c.readTimeout > 0 {
		ticker := time.NewTicker(c.readTimeout * 9 / 10)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-c.send:
			if !ok {
				_ = c.ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "upstream closed"),
					time.Now().Add(time.Second))
				return errClosed
			}
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return err
			}
		case <-tick:
			c.setWriteDeadline()
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (c *ClientConn) setWriteDeadline() {
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
}

// readPump hands every binary message to onFrame until the socket fails
// or onFrame returns an error.
func (c *ClientConn) readPump(maxMessage int, onFrame func([]byte) error) error {
	c.ws.SetReadLimit(int64(maxMessage))
	c.extendReadDeadline()
	c.ws.SetPongHandler(func(string) error {
		c.extendReadDeadline()
		return nil
	})

	for {
		mt, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errClosed
			}
			return err
		}
		c.extendReadDeadline()
		if mt != websocket.BinaryMessage {
			continue
		}
		if err := onFrame(payload); err != nil {
			return err
		}
	}
}

func (c *ClientConn) extendReadDeadline() {
	if c.readTimeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
}
