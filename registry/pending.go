package registry

import (
	"github.com/bfix/mm/envelope"
	"github.com/bfix/mm/syncmap"
)

// Outcome is what completes a pending call: either the decoded Response
// that arrived on the wire, or a local error (connection dropped, call
// timed out, system stopped) that meant no Response will ever arrive.
type Outcome struct {
	Response *envelope.Response
	Err      error
}

// PendingCalls tracks remote calls awaiting a Response, keyed by CallID.
// Each entry's channel is single-slot and written to exactly once, never
// completed twice: Resolve (on a wire Response),
// FailPeer (on connection drop), and FailAll (on system stop) each remove
// the entry with Delete before sending, and only the caller whose Delete
// returned the entry sends on its channel.
type PendingCalls struct {
	calls *syncmap.Map[string, pendingEntry]
}

type pendingEntry struct {
	peer string
	ch   chan Outcome
}

// NewPendingCalls allocates an empty pending-call table.
func NewPendingCalls() *PendingCalls {
	return &PendingCalls{calls: syncmap.New[string, pendingEntry]()}
}

// Register inserts a completion slot for callID, to be called before the
// invocation is handed to the transport. peerName
// identifies the connection the call was sent on, so a later connection
// drop can find and fail only calls routed through it.
func (p *PendingCalls) Register(callID, peerName string) <-chan Outcome {
	ch := make(chan Outcome, 1)
	p.calls.Put(callID, pendingEntry{peer: peerName, ch: ch})
	return ch
}

// Resolve completes callID's pending call with a decoded Response. It is a
// no-op if callID is unknown: already completed, or the awaiter cancelled
// and the entry was dropped, so a late response is simply ignored.
func (p *PendingCalls) Resolve(callID string, resp *envelope.Response) {
	entry, ok := p.calls.Delete(callID)
	if !ok {
		return
	}
	entry.ch <- Outcome{Response: resp}
}

// Cancel removes callID's entry without completing it, for a cancelled
// awaiter: the entry is dropped without completion.
func (p *PendingCalls) Cancel(callID string) {
	p.calls.Delete(callID)
}

// FailPeer fails every pending call routed through peerName with err and
// returns how many it failed. Used when that peer's connection drops.
func (p *PendingCalls) FailPeer(peerName string, err error) int {
	return p.failMatching(func(_ string, e pendingEntry) bool { return e.peer == peerName }, err)
}

// FailAll fails every pending call with err (system stop).
func (p *PendingCalls) FailAll(err error) int {
	return p.failMatching(func(string, pendingEntry) bool { return true }, err)
}

// failMatching is the shared implementation behind FailPeer/FailAll. It
// walks a snapshot of the keys and, for each matching entry, completes it
// only if its own Delete returned the entry, so a concurrent Resolve that
// removed it first wins and the entry is never completed twice.
// DeleteMatching is not used because it returns keys, not entries.
func (p *PendingCalls) failMatching(match func(callID string, e pendingEntry) bool, err error) int {
	n := 0
	for _, key := range p.calls.Keys() {
		entry, ok := p.calls.Get(key)
		if !ok || !match(key, entry) {
			continue
		}
		if got, ok := p.calls.Delete(key); ok {
			got.ch <- Outcome{Err: err}
			n++
		}
	}
	return n
}
