// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"chatroom/internal/server/handlers"
	"chatroom/internal/server/models"
	"chatroom/pkg/protocol"
)

var ErrServerClosed = errors.New("server closed")

// bounds for the pause after a failed Accept
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptDelay
	}
	d *= 2
	if d > maxAcceptDelay {
		d = maxAcceptDelay
	}
	return d
}

type Server struct {
	cfg         Config
	registry    *handlers.Registry
	authHandler *handlers.AuthHandler
	msgHandler  *handlers.MessageHandler

	active atomic.Int32
	wg     sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closing  bool
}

func NewServer(cfg Config, insults handlers.InsultGenerator) *Server {
	if cfg.MaxClients < 1 {
		cfg.MaxClients = DefaultMaxClients
	}
	registry := handlers.NewRegistry()

	return &Server{
		cfg:         cfg,
		registry:    registry,
		authHandler: handlers.NewAuthHandler(registry, cfg.HandshakeTimeout),
		msgHandler:  handlers.NewMessageHandler(registry, insults),
		conns:       make(map[net.Conn]struct{}),
	}
}

// Registry exposes the live sessions, read-only by convention.
func (s *Server) Registry() *handlers.Registry {
	return s.registry
}

func (s *Server) Start(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until it is closed. After Shutdown
// it returns ErrServerClosed.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		listener.Close()
		return ErrServerClosed
	}
	s.listener = listener
	s.mu.Unlock()

	log.Printf("Server started on %s", listener.Addr())

	var delay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isClosing() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			delay = nextAcceptDelay(delay)
			log.Printf("Error accepting connection: %v; retrying in %v", err, delay)
			time.Sleep(delay)
			continue
		}
		delay = 0

		if int(s.active.Add(1)) > s.cfg.MaxClients {
			s.active.Add(-1)
			log.Printf("Maximum client limit reached. Connection from %s rejected.", conn.RemoteAddr())
			conn.Close()
			continue
		}

		if !s.track(conn) {
			s.active.Add(-1)
			conn.Close()
			return ErrServerClosed
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	client := handlers.NewClient(conn, s.cfg.WriteTimeout)
	state := models.StateAwaitingHandshake

	defer func() {
		// the registry announces the departure if the client was registered
		if s.registry.Remove(client) {
			log.Printf("Client %s (%s) left", client.Username, client.ID)
		}
		client.Close()
		s.untrack(conn)
		s.active.Add(-1)
		log.Printf("Connection %s: %s -> %s", client.ID, state, models.StateClosed)
		s.wg.Done()
	}()

	if err := s.authHandler.HandleAuth(client); err != nil {
		log.Printf("Authentication error from %s: %v", conn.RemoteAddr(), err)
		return
	}

	state = models.StateActive
	log.Printf("Client registered: %s (%s)", client.Username, client.ID)
	s.authHandler.Announce(client)

	for {
		msg, err := client.Receive()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, protocol.ErrTruncatedStream) && client.IsConnected() {
				log.Printf("Read error from %s: %v", client.Username, err)
			}
			break
		}

		logoff, err := s.msgHandler.HandleMessage(client, msg)
		if err != nil {
			log.Printf("Error answering %s: %v", client.Username, err)
		}
		if logoff {
			log.Printf("Client %s logged off", client.Username)
			break
		}
	}
}

// Shutdown closes the listener and every open connection, then waits for
// the connection handlers to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, info := range s.Sessions() {
		log.Printf("Closing session %s (%s) from %s, online since %s",
			info.Username, info.ID, info.RemoteAddr, info.ConnectedAt.Format(time.RFC3339))
	}

	s.mu.Lock()
	s.closing = true
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Printf("Server stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}

// Sessions describes the registered sessions in join order.
func (s *Server) Sessions() []models.SessionInfo {
	clients := s.registry.Snapshot()
	infos := make([]models.SessionInfo, 0, len(clients))
	for _, c := range clients {
		infos = append(infos, c.Info())
	}
	return infos
}

// ActiveConnections counts accepted connections, including those still in
// the handshake.
func (s *Server) ActiveConnections() int {
	return int(s.active.Load())
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
