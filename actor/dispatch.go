package actor

import (
	"fmt"
	"sync"
)

// Handler decodes arguments out of an invocation's argument payload,
// invokes the named method on the local actor instance, and encodes the
// result. The payload formats are owned by package envelope; Handler only
// needs to agree with the hand-written Ref wrapper on argument order.
type Handler func(target any, args []byte) (result []byte, err error)

// dispatchTable maps a wire "target" identifier (e.g. "Member.Tell:1") to
// the Handler that services it. Registration happens once per process, at
// package init time, from each actor kind's own package (member, system).
var (
	dispatchMu    sync.RWMutex
	dispatchTable = make(map[string]Handler)
)

// RegisterMethod binds a target identifier to its handler. Calling it twice
// for the same target is a programming error and panics, the same way a
// duplicate net/rpc or net/http route registration would.
func RegisterMethod(target string, h Handler) {
	dispatchMu.Lock()
	defer dispatchMu.Unlock()
	if _, exists := dispatchTable[target]; exists {
		panic(fmt.Sprintf("actor: duplicate method registration for %q", target))
	}
	dispatchTable[target] = h
}

// Lookup returns the handler registered for target, if any.
func Lookup(target string) (Handler, bool) {
	dispatchMu.RLock()
	defer dispatchMu.RUnlock()
	h, ok := dispatchTable[target]
	return h, ok
}
