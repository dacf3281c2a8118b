// Package actor defines the distributed-actor identity and the dispatch
// table that turns a wire-level "target" string into a local method call.
package actor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/bfix/mm/peer"
)

// WellKnownSystemUUID identifies the SystemActor on every started
// CommunitySystem. Remote callers address it without prior discovery.
const WellKnownSystemUUID = "00000000-0000-0000-0000-000000000001"

// ID names a single distributed actor: a UUID unique within its host, paired
// with the PeerID of the host it lives on.
type ID struct {
	UUID string
	Peer peer.ID
}

// NewID mints a fresh, randomly generated actor id on the given peer.
func NewID(p peer.ID) ID {
	return ID{UUID: uuid.NewString(), Peer: p}
}

// SystemID returns the well-known SystemActor id for the given peer.
func SystemID(p peer.ID) ID {
	return ID{UUID: WellKnownSystemUUID, Peer: p}
}

// Equal reports whether id and other name the same actor.
func (id ID) Equal(other ID) bool {
	return id.UUID == other.UUID && id.Peer.Equal(other.Peer)
}

// String renders a diagnostic (non-wire) form: "<uuid[0:8]>@<peer>".
func (id ID) String() string {
	short := id.UUID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s@%s", short, id.Peer)
}

// IsWellKnown reports whether id names a SystemActor.
func (id ID) IsWellKnown() bool {
	return id.UUID == WellKnownSystemUUID
}

// Ref is a proxy for a (possibly remote) actor: enough to address it and to
// know which dispatch-table entries apply to it. Ref values carry no
// transport or system reference; callers pass a Dispatcher (CommunitySystem)
// alongside the Ref to make calls.
type Ref struct {
	ID   ID
	Kind string
}

// NewRef wraps an actor id with its kind tag ("Member", "System", ...).
func NewRef(id ID, kind string) Ref {
	return Ref{ID: id, Kind: kind}
}
