// internal/server/handlers/registry.go
package handlers

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"chatroom/internal/server/models"
	"chatroom/pkg/protocol"
)

// Registry holds the sessions that completed the handshake, in registration
// order. Readers work on copies, so no caller ever holds the lock while
// writing to a socket.
type Registry struct {
	mu      sync.RWMutex
	clients []*Client
}

func NewRegistry() *Registry {
	return &Registry{}
}

func sameName(a, b string) bool {
	return strings.EqualFold(a, b)
}

// IsConnected reports whether a session with this name is registered.
func (r *Registry) IsConnected(username string) bool {
	return r.Lookup(username) != nil
}

// Lookup finds a session by name, ignoring case.
func (r *Registry) Lookup(username string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.clients {
		if sameName(c.Username, username) {
			return c
		}
	}
	return nil
}

// Add registers client unless its name is already taken. The check and the
// insert happen under one lock.
func (r *Registry) Add(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.clients {
		if sameName(c.Username, client.Username) {
			return false
		}
	}
	r.clients = append(r.clients, client)
	return true
}

// Remove unregisters client and announces the departure to everyone left.
// Removing an absent client is a no-op and announces nothing.
func (r *Registry) Remove(client *Client) bool {
	r.mu.Lock()
	idx := -1
	for i, c := range r.clients {
		if c.ID == client.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	remaining := make([]*Client, 0, len(r.clients)-1)
	remaining = append(remaining, r.clients[:idx]...)
	remaining = append(remaining, r.clients[idx+1:]...)
	r.clients = remaining
	r.mu.Unlock()

	if client.Username != "" {
		leave := protocol.NewServerBroadcast(fmt.Sprintf(models.MessageLeftTemplate, client.Username))
		r.SendAll(leave)
	}
	return true
}

// ListOthers returns the names of every session except exclude.
func (r *Registry) ListOthers(exclude string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.clients))
	for _, c := range r.clients {
		if c.Username != "" && !sameName(c.Username, exclude) {
			names = append(names, c.Username)
		}
	}
	return names
}

// Snapshot returns a copy of the registered sessions.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, len(r.clients))
	copy(clients, r.clients)
	return clients
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// SendAll delivers msg to every registered session in turn. A failed send is
// logged and the fan-out carries on; the number of successful deliveries is
// returned.
func (r *Registry) SendAll(msg protocol.Message) int {
	clients := r.Snapshot()
	log.Printf("Broadcasting %s to %d clients", msg.Type(), len(clients))

	delivered := 0
	for _, client := range clients {
		if err := client.Send(msg); err != nil {
			log.Printf("Failed to send %s to %s: %v", msg.Type(), client.Username, err)
			continue
		}
		delivered++
	}
	return delivered
}
