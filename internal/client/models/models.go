// internal/client/models/models.go
package models

import (
	"time"

	"chatroom/pkg/protocol"
)

type EntryKind int

const (
	EntryPublic EntryKind = iota
	EntryPrivate
	EntryServer
	EntryError
	EntryHelp
)

// Entry is one rendered line of the chat log.
type Entry struct {
	Kind EntryKind
	Text string
	At   time.Time
}

func NewEntry(kind EntryKind, text string) Entry {
	return Entry{Kind: kind, Text: text, At: time.Now()}
}

type (
	MessageReceived struct {
		Message protocol.Message
	}

	Disconnected struct {
		Unexpected bool
	}
)
