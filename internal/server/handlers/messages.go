// internal/server/handlers/messages.go
package handlers

import (
	"log"

	"chatroom/internal/server/models"
	"chatroom/pkg/protocol"
)

// MessageHandler validates and routes the requests of active sessions.
// It keeps no state of its own beyond the registry it routes through.
type MessageHandler struct {
	registry *Registry
	insults  InsultGenerator
}

func NewMessageHandler(registry *Registry, insults InsultGenerator) *MessageHandler {
	if insults == nil {
		insults = NewRandomInsults(0, nil)
	}
	return &MessageHandler{
		registry: registry,
		insults:  insults,
	}
}

// HandleMessage dispatches one request read from client. It reports logoff
// once the client asked to disconnect and was acknowledged. The returned
// error is a failure to answer client itself.
func (h *MessageHandler) HandleMessage(client *Client, msg protocol.Message) (logoff bool, err error) {
	log.Printf("Handling %s from %s", msg.Type(), client.Username)

	switch m := msg.(type) {
	case protocol.Disconnect:
		if sameName(m.Username, client.Username) {
			return true, client.Send(protocol.NewConnectResponse(true, models.MessageLoggedOff))
		}
		return false, client.Send(protocol.NewConnectResponse(false, models.ReasonInvalidDisconnect))

	case protocol.Broadcast:
		h.Broadcast(client, m)
		return false, nil

	case protocol.Direct:
		h.Direct(client, m)
		return false, nil

	case protocol.QueryUsers:
		if !sameName(m.Username, client.Username) {
			return false, client.Send(protocol.NewFailed(models.ReasonUserNotRecognized))
		}
		return false, client.Send(protocol.NewQueryUsersResponse(h.registry.ListOthers(client.Username)))

	case protocol.Insult:
		h.Insult(client, m)
		return false, nil

	default:
		log.Printf("Unknown request %s from %s", msg.Type(), client.Username)
		return false, client.Send(protocol.NewFailed(models.ReasonUnknownRequest))
	}
}

// Broadcast sends msg to every registered session, the sender included.
func (h *MessageHandler) Broadcast(from *Client, msg protocol.Broadcast) {
	if !h.registry.IsConnected(msg.Sender) {
		h.fail(from, models.ReasonInvalidSender)
		return
	}
	if msg.Content == "" {
		h.fail(from, models.ReasonEmptyBroadcast)
		return
	}
	h.registry.SendAll(msg)
}

// Direct sends msg to its recipient only.
func (h *MessageHandler) Direct(from *Client, msg protocol.Direct) {
	if !h.registry.IsConnected(msg.Sender) {
		h.fail(from, models.ReasonInvalidSender)
		return
	}
	recipient := h.registry.Lookup(msg.Recipient)
	if recipient == nil {
		h.fail(from, models.ReasonInvalidRecipient)
		return
	}
	if msg.Content == "" {
		h.fail(from, models.ReasonEmptyDirect)
		return
	}

	if err := recipient.Send(msg); err != nil {
		log.Printf("Failed to send direct message to %s: %v", recipient.Username, err)
		return
	}
	log.Printf("Direct message sent from %s to %s", msg.Sender, recipient.Username)
}

// Insult forwards generated text to the recipient as a direct message.
func (h *MessageHandler) Insult(from *Client, msg protocol.Insult) {
	if !h.registry.IsConnected(msg.Sender) {
		h.fail(from, models.ReasonInvalidSender)
		return
	}
	if !h.registry.IsConnected(msg.Recipient) {
		h.fail(from, models.ReasonInvalidRecipient)
		return
	}

	h.Direct(from, protocol.Direct{
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		Content:   h.insults.Generate(),
	})
}

// fail reports a rejected request to the session that issued it.
func (h *MessageHandler) fail(to *Client, reason string) {
	if err := to.Send(protocol.NewFailed(reason)); err != nil {
		log.Printf("Failed to send failure notice to %s: %v", to.Username, err)
	}
}
