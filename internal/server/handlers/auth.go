// internal/server/handlers/auth.go
package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"chatroom/internal/server/models"
	"chatroom/pkg/protocol"
)

var (
	ErrNoConnect       = errors.New("first message was not a connect request")
	ErrInvalidUsername = errors.New("username is empty")
	ErrUsernameTaken   = errors.New("username already taken")
)

// AuthHandler runs the connect handshake: one Connect request, one
// ConnectResponse, and registration of the session on success.
type AuthHandler struct {
	registry *Registry
	timeout  time.Duration
}

func NewAuthHandler(registry *Registry, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		registry: registry,
		timeout:  timeout,
	}
}

// HandleAuth reads the first request of client. On success the client is
// registered under its username and has been told how many others are
// online. On failure a negative response has been sent (when possible) and
// the caller must close the connection.
func (h *AuthHandler) HandleAuth(client *Client) error {
	// Set a read deadline to prevent hanging
	if h.timeout > 0 {
		client.Conn.SetReadDeadline(time.Now().Add(h.timeout))
	}

	msg, err := client.Receive()
	if err != nil {
		return fmt.Errorf("failed to read connect message: %w", err)
	}

	// Reset the deadline after successful read
	if h.timeout > 0 {
		client.Conn.SetReadDeadline(time.Time{})
	}

	connect, ok := msg.(protocol.Connect)
	if !ok {
		h.reject(client, models.ReasonNoConnect)
		return fmt.Errorf("%w: got %s", ErrNoConnect, msg.Type())
	}

	if strings.TrimSpace(connect.Username) == "" {
		h.reject(client, models.ReasonInvalidUsername)
		return ErrInvalidUsername
	}

	client.Username = connect.Username
	if !h.registry.Add(client) {
		h.reject(client, models.ReasonInvalidUsername)
		return fmt.Errorf("%w: %s", ErrUsernameTaken, connect.Username)
	}

	others := len(h.registry.ListOthers(client.Username))
	response := protocol.NewConnectResponse(true, fmt.Sprintf(models.MessageConnectedTemplate, client.Username, others))
	if err := client.Send(response); err != nil {
		return fmt.Errorf("failed to send connect response: %w", err)
	}

	return nil
}

// Announce tells every registered session, the new one included, that
// client has joined.
func (h *AuthHandler) Announce(client *Client) {
	joined := protocol.NewServerBroadcast(fmt.Sprintf(models.MessageJoinedTemplate, client.Username))
	h.registry.SendAll(joined)
}

func (h *AuthHandler) reject(client *Client, reason string) {
	if err := client.Send(protocol.NewConnectResponse(false, reason)); err != nil {
		log.Printf("Failed to send connect rejection: %v", err)
	}
}
