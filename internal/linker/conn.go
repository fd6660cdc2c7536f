// Package linker maintains the hub's outbound websocket connections toward
// upstream game servers: dialing, the identify handshake, the read loop
// that feeds the match core, and fixed-delay reconnection.
package linker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// ServerConn is one live (or once-live) connection to a game server. A
// reconnect produces a fresh ServerConn: connection identity is what scopes
// queue entries and seats, so a new socket must be a new identity.
type ServerConn struct {
	url string
	ws  *websocket.Conn
	log *zap.Logger

	mu   sync.Mutex
	open bool
}

func newServerConn(url string, ws *websocket.Conn, log *zap.Logger) *ServerConn {
	return &ServerConn{url: url, ws: ws, log: log}
}

// Send writes one JSON frame with a bounded deadline. Write errors are
// logged here and returned; a stale send is simply lost.
func (c *ServerConn) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		c.log.Error("encoding outbound frame", zap.String("url", c.url), zap.Error(err))
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := c.ws.Write(ctx, websocket.MessageText, payload); err != nil {
		c.log.Warn("dropping outbound frame", zap.String("url", c.url), zap.Error(err))
		return err
	}
	return nil
}

// Open reports whether the identify handshake completed and the socket has
// not been observed closed.
func (c *ServerConn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *ServerConn) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}
