// internal/client/network/handler.go
package network

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"chatroom/pkg/protocol"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrRejected     = errors.New("connection rejected by server")
)

const writeTimeout = 10 * time.Second

// ConnectionHandler owns the client side of one chat connection. Sends are
// synchronous; received messages are delivered from a single read goroutine.
type ConnectionHandler struct {
	conn         net.Conn
	onMessage    func(protocol.Message)
	onDisconnect func(unexpected bool)
	done         chan struct{}
	closeOnce    sync.Once
	mu           sync.RWMutex
	writeMu      sync.Mutex
	connected    atomic.Bool
	username     string
}

func NewConnectionHandler(conn net.Conn) *ConnectionHandler {
	return &ConnectionHandler{
		conn: conn,
		done: make(chan struct{}),
	}
}

// Connect performs the handshake and returns the server's greeting. A
// negative response is returned as ErrRejected carrying the server's reason.
func (h *ConnectionHandler) Connect(username string, timeout time.Duration) (string, error) {
	log.Printf("Sending connect request for user: %s", username)
	if err := h.write(protocol.Connect{Username: username}); err != nil {
		return "", err
	}

	if timeout > 0 {
		h.conn.SetReadDeadline(time.Now().Add(timeout))
		defer h.conn.SetReadDeadline(time.Time{})
	}
	msg, err := protocol.ReadMessage(h.conn)
	if err != nil {
		return "", fmt.Errorf("read connect response: %w", err)
	}

	resp, ok := msg.(protocol.ConnectResponse)
	if !ok {
		return "", fmt.Errorf("unexpected %s during handshake", msg.Type())
	}
	if !resp.Success {
		return resp.Message, fmt.Errorf("%w: %s", ErrRejected, resp.Message)
	}

	h.mu.Lock()
	h.username = username
	h.mu.Unlock()
	h.connected.Store(true)
	log.Printf("Connected as %s", username)
	return resp.Message, nil
}

// Start runs the read loop. Call it after Connect succeeded.
func (h *ConnectionHandler) Start() {
	log.Printf("Starting connection handler")
	go h.readLoop()
}

func (h *ConnectionHandler) readLoop() {
	for {
		msg, err := protocol.ReadMessage(h.conn)
		if err != nil {
			unexpected := h.connected.Load()
			if unexpected && !errors.Is(err, io.EOF) {
				log.Printf("Read error: %v", err)
			}
			h.handleDisconnect(unexpected)
			return
		}

		log.Printf("Received message type: %s", msg.Type())

		// after a logoff the server answers with a ConnectResponse and hangs up
		_, logoffAck := msg.(protocol.ConnectResponse)
		if logoffAck {
			h.connected.Store(false)
		}

		h.mu.RLock()
		onMessage := h.onMessage
		h.mu.RUnlock()
		if onMessage != nil {
			onMessage(msg)
		}

		if logoffAck {
			h.handleDisconnect(false)
			return
		}
	}
}

func (h *ConnectionHandler) write(msg protocol.Message) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	h.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := protocol.WriteMessage(h.conn, msg); err != nil {
		log.Printf("Write error: %v", err)
		return err
	}
	log.Printf("Successfully sent message type: %s", msg.Type())
	return nil
}

// Send writes msg to the server. It fails once the session has ended.
func (h *ConnectionHandler) Send(msg protocol.Message) error {
	if !h.connected.Load() {
		return ErrNotConnected
	}
	return h.write(msg)
}

// Logoff asks the server to end the session. The acknowledgement arrives
// through the message handler, followed by the disconnect handler.
func (h *ConnectionHandler) Logoff() error {
	return h.Send(protocol.Disconnect{Username: h.Username()})
}

func (h *ConnectionHandler) Username() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.username
}

func (h *ConnectionHandler) IsConnected() bool {
	return h.connected.Load()
}

func (h *ConnectionHandler) SetMessageHandler(handler func(protocol.Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = handler
}

func (h *ConnectionHandler) SetDisconnectHandler(handler func(unexpected bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconnect = handler
}

// Done is closed once the connection has ended.
func (h *ConnectionHandler) Done() <-chan struct{} {
	return h.done
}

func (h *ConnectionHandler) handleDisconnect(unexpected bool) {
	h.closeOnce.Do(func() {
		h.connected.Store(false)
		close(h.done)
		h.conn.Close()

		h.mu.RLock()
		onDisconnect := h.onDisconnect
		h.mu.RUnlock()
		if onDisconnect != nil {
			onDisconnect(unexpected)
		}
	})
}

// Close ends the connection without reporting it as lost.
func (h *ConnectionHandler) Close() error {
	h.connected.Store(false)
	h.handleDisconnect(false)
	return nil
}
