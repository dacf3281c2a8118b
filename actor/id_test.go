package actor

import (
	"testing"

	"github.com/bfix/mm/peer"
)

func TestSystemIDIsWellKnown(t *testing.T) {
	p := peer.New("alice", "127.0.0.1", 50051)
	id := SystemID(p)
	if id.UUID != WellKnownSystemUUID {
		t.Fatalf("got uuid %q, want %q", id.UUID, WellKnownSystemUUID)
	}
	if !id.IsWellKnown() {
		t.Fatal("expected IsWellKnown")
	}
	if NewID(p).IsWellKnown() {
		t.Fatal("a freshly minted id should not be well-known")
	}
}

func TestIDEqual(t *testing.T) {
	p := peer.New("alice", "127.0.0.1", 50051)
	a := ID{UUID: "u1", Peer: p}
	b := ID{UUID: "u1", Peer: p}
	c := ID{UUID: "u2", Peer: p}
	if !a.Equal(b) {
		t.Fatal("expected a == b")
	}
	if a.Equal(c) {
		t.Fatal("expected a != c")
	}
}

func TestNewIDUniqueAndOnPeer(t *testing.T) {
	p := peer.New("alice", "127.0.0.1", 50051)
	a, b := NewID(p), NewID(p)
	if a.UUID == b.UUID {
		t.Fatal("expected distinct uuids")
	}
	if !a.Peer.Equal(p) {
		t.Fatal("expected id to carry the given peer")
	}
}
