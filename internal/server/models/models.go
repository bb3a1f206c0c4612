// internal/server/models/models.go
package models

import "time"

// State of a single connection handler.
type State int

const (
	StateAwaitingHandshake State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingHandshake:
		return "awaiting_handshake"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Insult is one row of the optional insults table.
type Insult struct {
	ID        int64     `json:"id"`
	Phrase    string    `json:"phrase"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionInfo describes a registered session for logging.
type SessionInfo struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	RemoteAddr  string    `json:"remote_addr"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Messages and reasons sent by the server.
const (
	ReasonInvalidSender      = "Invalid sender username."
	ReasonInvalidRecipient   = "Invalid recipient username."
	ReasonEmptyBroadcast     = "Broadcast message cannot be empty."
	ReasonEmptyDirect        = "Direct message cannot be empty."
	ReasonUserNotRecognized  = "User not recognized or not connected."
	ReasonUnknownRequest     = "Unknown request."
	ReasonInvalidUsername    = "Invalid or already-taken username."
	ReasonNoConnect          = "No CONNECT_MESSAGE received."
	ReasonInvalidDisconnect  = "Invalid user for disconnect."
	MessageLoggedOff         = "You are no longer connected."
	MessageConnectedTemplate = "Connected as %s. There are %d other connected clients."
	MessageJoinedTemplate    = "%s has joined the chat."
	MessageLeftTemplate      = "%s has left the chat."
)
