package handlers

import (
	"errors"
	"net"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chatroom/pkg/protocol"
)

func TestRegistryCaseInsensitiveLookup(t *testing.T) {
	r := NewRegistry()
	alice := newPeer(t, r, "Alice")

	for _, name := range []string{"Alice", "alice", "ALICE"} {
		if !r.IsConnected(name) {
			t.Errorf("IsConnected(%q) = false", name)
		}
		if got := r.Lookup(name); got != alice.client {
			t.Errorf("Lookup(%q) returned %v", name, got)
		}
	}
	if r.IsConnected("bob") {
		t.Error("IsConnected(bob) = true on empty name")
	}
	if r.Lookup("bob") != nil {
		t.Error("Lookup(bob) should be nil")
	}
}

func TestRegistryAddRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	newPeer(t, r, "alice")

	dup := NewClient(nil, 0)
	dup.Username = "ALICE"
	if r.Add(dup) {
		t.Fatal("second session with the same name was registered")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryConcurrentAdd(t *testing.T) {
	r := NewRegistry()
	names := []string{"carol", "Carol", "CAROL", "cArOl"}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := NewClient(nil, 0)
			c.Username = names[i%len(names)]
			if r.Add(c) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Errorf("%d sessions registered for the same name, want 1", wins.Load())
	}
}

func TestRegistryListOthers(t *testing.T) {
	r := NewRegistry()
	newPeer(t, r, "alice")
	newPeer(t, r, "bob")
	newPeer(t, r, "carol")

	got := r.ListOthers("ALICE")
	want := []string{"bob", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListOthers = %v, want %v", got, want)
	}

	if got := r.ListOthers("nobody"); len(got) != 3 {
		t.Errorf("ListOthers(nobody) = %v", got)
	}

	empty := NewRegistry()
	if got := empty.ListOthers("alice"); got == nil || len(got) != 0 {
		t.Errorf("ListOthers on empty registry = %#v, want empty slice", got)
	}
}

func TestRegistryRemoveAnnouncesDepartureOnce(t *testing.T) {
	r := NewRegistry()
	alice := newPeer(t, r, "alice")
	bob := newPeer(t, r, "bob")
	carol := newPeer(t, r, "carol")

	if !r.Remove(alice.client) {
		t.Fatal("Remove(alice) = false")
	}
	want := protocol.Broadcast{Sender: "Server", Content: "alice has left the chat."}
	for _, p := range []*peer{bob, carol} {
		if got := p.expect(t); !reflect.DeepEqual(got, want) {
			t.Errorf("%s got %#v, want %#v", p.client.Username, got, want)
		}
	}
	alice.expectNone(t)

	if r.Remove(alice.client) {
		t.Error("second Remove(alice) = true")
	}
	bob.expectNone(t)
	carol.expectNone(t)

	if r.IsConnected("alice") {
		t.Error("alice still registered")
	}
}

func TestRegistryRemoveUnnamedIsSilent(t *testing.T) {
	r := NewRegistry()
	bob := newPeer(t, r, "bob")
	stranger := newPeer(t, nil, "")

	if r.Remove(stranger.client) {
		t.Error("removing an unregistered client reported success")
	}
	bob.expectNone(t)
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry()
	newPeer(t, r, "alice")
	bob := newPeer(t, r, "bob")

	snap := r.Snapshot()
	snap[0] = nil
	if r.Snapshot()[0] == nil {
		t.Fatal("Snapshot exposed the registry's backing slice")
	}

	r.Remove(bob.client)
	if len(snap) != 2 {
		t.Errorf("earlier snapshot changed length to %d", len(snap))
	}
}

func TestRegistrySendAllSkipsFailedRecipients(t *testing.T) {
	r := NewRegistry()
	alice := newPeer(t, r, "alice")
	bob := newPeer(t, r, "bob")
	carol := newPeer(t, r, "carol")

	bob.client.Close()

	msg := protocol.Broadcast{Sender: "alice", Content: "still here?"}
	if n := r.SendAll(msg); n != 2 {
		t.Errorf("SendAll delivered %d, want 2", n)
	}
	for _, p := range []*peer{alice, carol} {
		if got := p.expect(t); !reflect.DeepEqual(got, msg) {
			t.Errorf("%s got %#v", p.client.Username, got)
		}
	}
}

func TestRegistrySendAllDropsStalledRecipient(t *testing.T) {
	r := NewRegistry()
	alice := newPeer(t, r, "alice")

	// bob's end of the pipe is never read, so every write to him times out
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { clientSide.Close() })
	bob := NewClient(serverSide, 20*time.Millisecond)
	bob.Username = "bob"
	if !r.Add(bob) {
		t.Fatal("could not register bob")
	}

	// the session's read loop unregisters bob once his connection is gone
	removed := make(chan struct{})
	go func() {
		defer close(removed)
		for {
			if _, err := bob.Receive(); err != nil {
				r.Remove(bob)
				return
			}
		}
	}()

	msg := protocol.Broadcast{Sender: "alice", Content: "hello?"}
	if n := r.SendAll(msg); n != 1 {
		t.Errorf("SendAll delivered %d, want 1", n)
	}
	if got := alice.expect(t); !reflect.DeepEqual(got, msg) {
		t.Fatalf("alice got %#v", got)
	}
	if bob.IsConnected() {
		t.Fatal("bob still connected after a timed-out write")
	}
	if err := bob.Send(msg); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Send after timeout = %v, want ErrClientClosed", err)
	}

	select {
	case <-removed:
	case <-time.After(time.Second):
		t.Fatal("bob was never unregistered")
	}
	if r.IsConnected("bob") {
		t.Error("bob still registered")
	}
	want := protocol.Broadcast{Sender: "Server", Content: "bob has left the chat."}
	if got := alice.expect(t); !reflect.DeepEqual(got, want) {
		t.Errorf("alice got %#v, want %#v", got, want)
	}
}
