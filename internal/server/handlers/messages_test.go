package handlers

import (
	"reflect"
	"testing"

	"chatroom/pkg/protocol"
)

func newRoom(t *testing.T, names ...string) (*MessageHandler, map[string]*peer) {
	t.Helper()
	r := NewRegistry()
	peers := make(map[string]*peer, len(names))
	for _, name := range names {
		peers[name] = newPeer(t, r, name)
	}
	return NewMessageHandler(r, fixedInsult("You compile with warnings.")), peers
}

func expectFailed(t *testing.T, p *peer, reason string) {
	t.Helper()
	got := p.expect(t)
	want := protocol.Failed{Reason: reason}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%s got %#v, want %#v", p.client.Username, got, want)
	}
}

func TestBroadcastReachesEveryone(t *testing.T) {
	h, peers := newRoom(t, "alice", "bob", "carol")

	msg := protocol.Broadcast{Sender: "alice", Content: "hi"}
	h.Broadcast(peers["alice"].client, msg)

	for name, p := range peers {
		if got := p.expect(t); !reflect.DeepEqual(got, msg) {
			t.Errorf("%s got %#v, want %#v", name, got, msg)
		}
	}
}

func TestBroadcastValidation(t *testing.T) {
	cases := []struct {
		name   string
		msg    protocol.Broadcast
		reason string
	}{
		{"unknown sender", protocol.Broadcast{Sender: "mallory", Content: "hi"}, "Invalid sender username."},
		{"empty content", protocol.Broadcast{Sender: "alice", Content: ""}, "Broadcast message cannot be empty."},
		{"unknown sender wins over empty content", protocol.Broadcast{Sender: "mallory"}, "Invalid sender username."},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, peers := newRoom(t, "alice", "bob")
			h.Broadcast(peers["alice"].client, c.msg)

			expectFailed(t, peers["alice"], c.reason)
			peers["alice"].expectNone(t)
			peers["bob"].expectNone(t)
		})
	}
}

func TestDirectDeliversToRecipientOnly(t *testing.T) {
	h, peers := newRoom(t, "alice", "bob", "carol")

	msg := protocol.Direct{Sender: "alice", Recipient: "BOB", Content: "secret"}
	h.Direct(peers["alice"].client, msg)

	if got := peers["bob"].expect(t); !reflect.DeepEqual(got, msg) {
		t.Errorf("bob got %#v, want %#v", got, msg)
	}
	peers["alice"].expectNone(t)
	peers["carol"].expectNone(t)
}

func TestDirectValidation(t *testing.T) {
	cases := []struct {
		name   string
		msg    protocol.Direct
		reason string
	}{
		{"unknown sender", protocol.Direct{Sender: "mallory", Recipient: "bob", Content: "x"}, "Invalid sender username."},
		{"unknown recipient", protocol.Direct{Sender: "alice", Recipient: "nobody", Content: "x"}, "Invalid recipient username."},
		{"empty content", protocol.Direct{Sender: "alice", Recipient: "bob"}, "Direct message cannot be empty."},
		{"recipient checked before content", protocol.Direct{Sender: "alice", Recipient: "nobody"}, "Invalid recipient username."},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h, peers := newRoom(t, "alice", "bob")
			h.Direct(peers["alice"].client, c.msg)

			expectFailed(t, peers["alice"], c.reason)
			peers["bob"].expectNone(t)
		})
	}
}

func TestInsultForwardsGeneratedText(t *testing.T) {
	h, peers := newRoom(t, "alice", "bob", "carol")

	h.Insult(peers["alice"].client, protocol.Insult{Sender: "alice", Recipient: "bob"})

	want := protocol.Direct{Sender: "alice", Recipient: "bob", Content: "You compile with warnings."}
	if got := peers["bob"].expect(t); !reflect.DeepEqual(got, want) {
		t.Errorf("bob got %#v, want %#v", got, want)
	}
	peers["alice"].expectNone(t)
	peers["carol"].expectNone(t)
}

func TestInsultValidation(t *testing.T) {
	h, peers := newRoom(t, "alice", "bob")

	h.Insult(peers["alice"].client, protocol.Insult{Sender: "ghost", Recipient: "bob"})
	expectFailed(t, peers["alice"], "Invalid sender username.")

	h.Insult(peers["alice"].client, protocol.Insult{Sender: "alice", Recipient: ""})
	expectFailed(t, peers["alice"], "Invalid recipient username.")

	peers["bob"].expectNone(t)
}

func TestHandleMessageDispatch(t *testing.T) {
	h, peers := newRoom(t, "alice", "bob")
	alice := peers["alice"]

	logoff, err := h.HandleMessage(alice.client, protocol.QueryUsers{Username: "Alice"})
	if err != nil || logoff {
		t.Fatalf("QueryUsers: logoff=%v err=%v", logoff, err)
	}
	want := protocol.QueryUsersResponse{Users: []string{"bob"}}
	if got := alice.expect(t); !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}

	if _, err := h.HandleMessage(alice.client, protocol.QueryUsers{Username: "bob"}); err != nil {
		t.Fatal(err)
	}
	expectFailed(t, alice, "User not recognized or not connected.")

	if _, err := h.HandleMessage(alice.client, protocol.Failed{Reason: "spoofed"}); err != nil {
		t.Fatal(err)
	}
	expectFailed(t, alice, "Unknown request.")

	logoff, err = h.HandleMessage(alice.client, protocol.Disconnect{Username: "bob"})
	if err != nil || logoff {
		t.Fatalf("foreign Disconnect: logoff=%v err=%v", logoff, err)
	}
	if got := alice.expect(t); !reflect.DeepEqual(got, protocol.ConnectResponse{Success: false, Message: "Invalid user for disconnect."}) {
		t.Errorf("got %#v", got)
	}

	logoff, err = h.HandleMessage(alice.client, protocol.Disconnect{Username: "ALICE"})
	if err != nil || !logoff {
		t.Fatalf("own Disconnect: logoff=%v err=%v", logoff, err)
	}
	if got := alice.expect(t); !reflect.DeepEqual(got, protocol.ConnectResponse{Success: true, Message: "You are no longer connected."}) {
		t.Errorf("got %#v", got)
	}
	peers["bob"].expectNone(t)
}

func TestQueryUsersAlone(t *testing.T) {
	h, peers := newRoom(t, "alice")

	if _, err := h.HandleMessage(peers["alice"].client, protocol.QueryUsers{Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	got, ok := peers["alice"].expect(t).(protocol.QueryUsersResponse)
	if !ok || len(got.Users) != 0 {
		t.Errorf("got %#v, want empty user list", got)
	}
}
