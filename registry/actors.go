package registry

import "github.com/bfix/mm/syncmap"

// Actors maps a local actor's uuid to the Go value implementing it (a
// *member.Member, the *system.SystemActor, ...). Dispatch looks values up
// here by uuid and type-asserts to the kind the target's Handler expects.
//
// Concurrent Register calls for distinct uuids never interfere and never
// block a concurrent Find; Register of a duplicate uuid is
// treated as a programming error and silently replaces the prior binding,
// since uuids are assumed unique by construction.
type Actors struct {
	m *syncmap.Map[string, any]
}

// NewActors allocates an empty actor registry.
func NewActors() *Actors {
	return &Actors{m: syncmap.New[string, any]()}
}

// Register binds uuid to actor, replacing any prior binding.
func (a *Actors) Register(uuid string, actor any) {
	a.m.Put(uuid, actor)
}

// Find returns the actor bound to uuid, if any.
func (a *Actors) Find(uuid string) (any, bool) {
	return a.m.Get(uuid)
}

// Unregister removes uuid's binding.
func (a *Actors) Unregister(uuid string) {
	a.m.Delete(uuid)
}

// Clear removes every binding.
func (a *Actors) Clear() {
	a.m.Clear()
}
