package handlers

import (
	"net"
	"testing"
	"time"

	"chatroom/pkg/protocol"
)

// peer is a registered client whose remote end is drained into inbox.
type peer struct {
	client *Client
	remote net.Conn
	inbox  chan protocol.Message
}

func newPeer(t *testing.T, registry *Registry, name string) *peer {
	t.Helper()

	serverSide, clientSide := net.Pipe()
	c := NewClient(serverSide, time.Second)
	c.Username = name

	p := &peer{client: c, remote: clientSide, inbox: make(chan protocol.Message, 64)}
	go func() {
		defer close(p.inbox)
		for {
			msg, err := protocol.ReadMessage(clientSide)
			if err != nil {
				return
			}
			p.inbox <- msg
		}
	}()
	t.Cleanup(func() {
		c.Close()
		clientSide.Close()
	})

	if registry != nil && name != "" {
		if !registry.Add(c) {
			t.Fatalf("could not register %q", name)
		}
	}
	return p
}

func (p *peer) expect(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case msg, ok := <-p.inbox:
		if !ok {
			t.Fatalf("%s: connection closed while waiting for a message", p.client.Username)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("%s: no message received", p.client.Username)
	}
	return nil
}

func (p *peer) expectNone(t *testing.T) {
	t.Helper()
	select {
	case msg, ok := <-p.inbox:
		if ok {
			t.Fatalf("%s: unexpected message %#v", p.client.Username, msg)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

type fixedInsult string

func (f fixedInsult) Generate() string { return string(f) }
