// internal/server/handlers/client.go
package handlers

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"chatroom/internal/server/models"
	"chatroom/pkg/protocol"

	"github.com/google/uuid"
)

var ErrClientClosed = errors.New("client connection closed")

// Client is the server side of one connection. Username is empty until the
// handshake succeeds and never changes afterwards.
type Client struct {
	Conn         net.Conn
	ID           string
	Username     string
	ConnectedAt  time.Time
	writeTimeout time.Duration

	writeMu   sync.Mutex
	connected atomic.Bool
	closeOnce sync.Once
}

func NewClient(conn net.Conn, writeTimeout time.Duration) *Client {
	c := &Client{
		Conn:         conn,
		ID:           uuid.NewString(),
		ConnectedAt:  time.Now(),
		writeTimeout: writeTimeout,
	}
	c.connected.Store(true)
	return c
}

// Send writes one frame synchronously. Concurrent callers are serialized so
// frames never interleave on the wire. A failed or timed-out write may leave
// a partial frame behind, so it closes the connection; the session's read
// loop then tears it down.
func (c *Client) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("send to %s: %w", c.label(), err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !c.connected.Load() {
		return ErrClientClosed
	}

	if c.writeTimeout > 0 {
		c.Conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		defer c.Conn.SetWriteDeadline(time.Time{})
	}

	if _, err := c.Conn.Write(data); err != nil {
		c.Close()
		return fmt.Errorf("send %s to %s: %w", msg.Type(), c.label(), err)
	}
	return nil
}

// Receive blocks until one frame is read.
func (c *Client) Receive() (protocol.Message, error) {
	return protocol.ReadMessage(c.Conn)
}

// Close cleans up the client's resources. Safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.connected.Store(false)
		err = c.Conn.Close()
	})
	return err
}

// IsConnected checks if the client is still connected
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

func (c *Client) Info() models.SessionInfo {
	info := models.SessionInfo{
		ID:          c.ID,
		Username:    c.Username,
		ConnectedAt: c.ConnectedAt,
	}
	if addr := c.Conn.RemoteAddr(); addr != nil {
		info.RemoteAddr = addr.String()
	}
	return info
}

func (c *Client) label() string {
	if c.Username != "" {
		return c.Username
	}
	return c.ID
}
