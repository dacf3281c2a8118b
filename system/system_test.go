package system

import (
	"context"
	"testing"
	"time"

	"github.com/bfix/mm/member"
	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/transport"
)

// fakePTY is a minimal member.PTY double (it does not implement
// member.Introspectable) for driving Member without a real child process.
type fakePTY struct {
	lines   []string
	running bool
}

func newFakePTY() *fakePTY { return &fakePTY{running: true} }

func (f *fakePTY) WriteLine(text string) error {
	f.lines = append(f.lines, text)
	return nil
}
func (f *fakePTY) WriteRaw(data []byte) (int, error) { return len(data), nil }
func (f *fakePTY) IsRunning() bool                   { return f.running }
func (f *fakePTY) Close() error                      { f.running = false; return nil }

func startSystem(t *testing.T, name string) *System {
	t.Helper()
	sys := New(peer.New(name, "127.0.0.1", 0), transport.NewTCP())
	if err := sys.Start(context.Background()); err != nil {
		t.Fatalf("Start %s: %v", name, err)
	}
	t.Cleanup(func() { sys.Stop() })
	return sys
}

func peerIDOf(t *testing.T, sys *System, name string) peer.ID {
	t.Helper()
	id, err := peer.Parse(name + "@" + sys.BoundAddr())
	if err != nil {
		t.Fatalf("peer.Parse: %v", err)
	}
	return id
}

func TestRemoteTellAcrossPeers(t *testing.T) {
	a := startSystem(t, "alice-host")
	b := startSystem(t, "bob-host")

	bobPTY := newFakePTY()
	if _, err := b.CreateMember("bob", bobPTY, true); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.ConnectToPeer(ctx, peerIDOf(t, b, "bob-host")); err != nil {
		t.Fatalf("ConnectToPeer: %v", err)
	}

	id, err := a.ResolveName(ctx, "bob")
	if err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	ref := member.NewRef(id, a)
	if err := ref.Tell(ctx, "hello"); err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if len(bobPTY.lines) != 1 || bobPTY.lines[0] != "hello" {
		t.Fatalf("unexpected lines on bob's pty: %+v", bobPTY.lines)
	}

	running, err := ref.IsRunning(ctx)
	if err != nil || !running {
		t.Fatalf("IsRunning: %v, %v", running, err)
	}
}

func TestListAcrossPeers(t *testing.T) {
	a := startSystem(t, "host-a")
	b := startSystem(t, "host-b")

	if _, err := a.CreateMember("alice", newFakePTY(), true); err != nil {
		t.Fatalf("CreateMember alice: %v", err)
	}
	if _, err := b.CreateMember("bob", newFakePTY(), true); err != nil {
		t.Fatalf("CreateMember bob: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.ConnectToPeer(ctx, peerIDOf(t, b, "host-b")); err != nil {
		t.Fatalf("ConnectToPeer: %v", err)
	}

	members := a.AllMembersWithStatus(ctx)
	names := map[string]bool{}
	for _, m := range members {
		names[m.Name] = true
	}
	if !names["alice"] || !names["bob"] {
		t.Fatalf("expected both alice and bob, got %+v", members)
	}
}

func TestDisconnectClearsRemoteState(t *testing.T) {
	a := startSystem(t, "client-host")
	b := startSystem(t, "server-host")

	if _, err := b.CreateMember("bob", newFakePTY(), true); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bID := peerIDOf(t, b, "server-host")
	if err := a.ConnectToPeer(ctx, bID); err != nil {
		t.Fatalf("ConnectToPeer: %v", err)
	}
	if _, ok := a.remote.FindByName("bob"); !ok {
		t.Fatal("expected bob cached after member exchange")
	}

	b.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := a.remote.FindByName("bob"); !ok {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("expected bob to be evicted from remote cache after peer disconnect")
}

func TestResolveNameThroughIntermediaryPeer(t *testing.T) {
	a := startSystem(t, "a-host")
	b := startSystem(t, "b-host")
	c := startSystem(t, "c-host")

	if _, err := a.CreateMember("alice", newFakePTY(), true); err != nil {
		t.Fatalf("CreateMember alice: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// b learns about alice directly from a, but c only ever talks to b.
	if err := b.ConnectToPeer(ctx, peerIDOf(t, a, "a-host")); err != nil {
		t.Fatalf("b.ConnectToPeer(a): %v", err)
	}
	if err := c.ConnectToPeer(ctx, peerIDOf(t, b, "b-host")); err != nil {
		t.Fatalf("c.ConnectToPeer(b): %v", err)
	}

	id, err := c.ResolveName(ctx, "alice")
	if err != nil {
		t.Fatalf("c.ResolveName(alice) via b: %v", err)
	}
	if !id.Peer.Equal(a.local) {
		t.Fatalf("expected alice's actor id to name peer %s, got %s", a.local, id.Peer)
	}

	members := c.AllMembersWithStatus(ctx)
	found := false
	for _, m := range members {
		if m.Name == "alice" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected alice to appear in c's member list via b, got %+v", members)
	}
}

func TestResolveUnknownNameFails(t *testing.T) {
	a := startSystem(t, "solo-host")
	id, err := a.ResolveName(context.Background(), "nobody")
	if err == nil {
		t.Fatalf("expected ResolveName to fail, got %v", id)
	}
}
