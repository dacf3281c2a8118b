package registry

import (
	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/mmerr"
	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/syncmap"
)

// Names maps a human-readable name to the ActorId it currently resolves to.
// A name maps to at most one ActorId at any moment; Register is
// test-and-set atomic.
type Names struct {
	m *syncmap.Map[string, actor.ID]
}

// NewNames allocates an empty name registry.
func NewNames() *Names {
	return &Names{m: syncmap.New[string, actor.ID]()}
}

// Register binds name to id. It fails with *mmerr.NameAlreadyTaken if the
// name is already bound; exactly one of any number of concurrent Register
// calls for the same name succeeds.
func (n *Names) Register(name string, id actor.ID) error {
	if name == "" {
		return mmerr.ErrInvalidName
	}
	if !n.m.PutIfAbsent(name, id) {
		return &mmerr.NameAlreadyTaken{Name: name}
	}
	return nil
}

// Find returns the ActorId bound to name, if any.
func (n *Names) Find(name string) (actor.ID, bool) {
	return n.m.Get(name)
}

// Unregister removes name's binding.
func (n *Names) Unregister(name string) {
	n.m.Delete(name)
}

// UnregisterByActor removes every name bound to id.
func (n *Names) UnregisterByActor(id actor.ID) {
	n.m.DeleteMatching(func(_ string, bound actor.ID) bool {
		return bound.Equal(id)
	})
}

// UnregisterByPeer removes every name whose bound actor lives on p. Used
// when a connection to p drops.
func (n *Names) UnregisterByPeer(p peer.ID) []string {
	return n.m.DeleteMatching(func(_ string, bound actor.ID) bool {
		return bound.Peer.Equal(p)
	})
}

// Entry is one (name, ActorId) pair, as returned by AllEntries.
type Entry struct {
	Name string
	ID   actor.ID
}

// AllEntries enumerates every (name, ActorId) binding.
func (n *Names) AllEntries() []Entry {
	var out []Entry
	n.m.Range(func(name string, id actor.ID) bool {
		out = append(out, Entry{Name: name, ID: id})
		return true
	})
	return out
}

// Clear removes every binding.
func (n *Names) Clear() {
	n.m.Clear()
}
