package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn adapts a gorilla WebSocket connection to the frame transport
// used by sessions and the registry. Reads happen only from the owning
// session's goroutine; writes can come from any relaying session and
// are serialized with a mutex and bounded by a write deadline, so a
// stuck peer surfaces as a send error instead of a wedged sender.
type wsConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{
		ws:           ws,
		writeTimeout: writeTimeout,
	}
}

// Receive blocks until the next frame. Text and binary frames are
// treated alike; control frames are handled by gorilla internally.
func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Send writes one text frame.
func (c *wsConn) Send(ctx context.Context, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Time{}
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	c.ws.SetWriteDeadline(deadline)

	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Close sends a best-effort close frame and tears down the connection.
// Safe to call more than once.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
