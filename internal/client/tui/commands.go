// internal/client/tui/commands.go
package tui

import (
	"errors"
	"strings"

	"chatroom/internal/client/models"
	"chatroom/pkg/protocol"
)

const (
	logoffCommand = "logoff"
	allCommand    = "@all"
	directPrefix  = "@"
	whoCommand    = "who"
	insultPrefix  = "!"
	helpCommand   = "?"
)

const (
	LostConnectionText = "--Error: Connection to the server was lost."
	UnknownCommandText = "--Error: Unknown command. Type '?' for help."
	unknownServerText  = "Unknown message type received from server."
)

var ErrUnknownCommand = errors.New("unknown command")

var HelpLines = []string{
	"Available commands:",
	"? - Show this help menu",
	"@username message - Send a direct message to a user",
	"@all message - Broadcast a message to all users",
	"who - List all connected users",
	"logoff - Disconnect from the server",
	"!username - Request the server to send an insult to a user",
}

type Action int

const (
	ActionSend Action = iota
	ActionLogoff
	ActionHelp
)

type Command struct {
	Action  Action
	Message protocol.Message
}

// ParseCommand turns one line of user input into a request on behalf of
// username. Empty direct content and insult recipients are sent as-is; the
// server rejects them.
func ParseCommand(input, username string) (Command, error) {
	switch {
	case strings.EqualFold(input, logoffCommand):
		return Command{Action: ActionLogoff, Message: protocol.Disconnect{Username: username}}, nil

	case input == allCommand || strings.HasPrefix(input, allCommand+" "):
		content := strings.TrimSpace(input[len(allCommand):])
		return Command{Message: protocol.Broadcast{Sender: username, Content: content}}, nil

	case strings.HasPrefix(input, directPrefix):
		recipient, content, _ := strings.Cut(input[len(directPrefix):], " ")
		return Command{Message: protocol.Direct{
			Sender:    username,
			Recipient: recipient,
			Content:   strings.TrimSpace(content),
		}}, nil

	case strings.EqualFold(input, whoCommand):
		return Command{Message: protocol.QueryUsers{Username: username}}, nil

	case strings.HasPrefix(input, insultPrefix):
		recipient := strings.TrimSpace(input[len(insultPrefix):])
		return Command{Message: protocol.Insult{Sender: username, Recipient: recipient}}, nil

	case input == helpCommand:
		return Command{Action: ActionHelp}, nil
	}
	return Command{}, ErrUnknownCommand
}

// FormatMessage renders a message received from the server.
func FormatMessage(msg protocol.Message) models.Entry {
	switch m := msg.(type) {
	case protocol.Broadcast:
		kind := models.EntryPublic
		if m.Sender == protocol.ServerName {
			kind = models.EntryServer
		}
		return models.NewEntry(kind, m.Sender+" -> all: "+m.Content)
	case protocol.QueryUsersResponse:
		if len(m.Users) == 0 {
			return models.NewEntry(models.EntryServer, "No other connected users.")
		}
		return models.NewEntry(models.EntryServer, "Connected users: "+strings.Join(m.Users, ", "))
	case protocol.Direct:
		return models.NewEntry(models.EntryPrivate, m.Sender+" -> you (private): "+m.Content)
	case protocol.Failed:
		return models.NewEntry(models.EntryError, "Server Error: "+m.Reason)
	case protocol.ConnectResponse:
		return models.NewEntry(models.EntryServer, m.Message)
	}
	return models.NewEntry(models.EntryError, unknownServerText)
}
