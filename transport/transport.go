// Package transport defines the pluggable byte-transport trait the mesh
// runtime dials and listens through, plus a reference TCP implementation.
// Any transport that preserves message boundaries and bidirectional
// delivery satisfies the interface; the wire format here is length-prefixed
// frames over a single duplex stream, with a peer-id handshake performed
// once up front.
package transport

import (
	"context"

	"github.com/bfix/mm/envelope"
	"github.com/bfix/mm/peer"
)

// Conn is a single open connection to a remote peer: a duplex stream of
// framed envelopes. Reads are owned exclusively by the per-connection
// message loop; Send may be called concurrently from arbitrary goroutines,
// and implementations must serialize their writes internally.
type Conn interface {
	// Send writes one Frame to the connection.
	Send(f *envelope.Frame) error
	// Recv blocks until one Frame arrives, or returns an error when the
	// stream ends or fails. Only ever called from the connection's single
	// read-loop goroutine.
	Recv() (*envelope.Frame, error)
	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Listener accepts inbound connections on a bound local address.
type Listener interface {
	// Addr returns the address actually bound, which may differ from what
	// was requested (e.g. port 0 resolves to an OS-assigned port).
	Addr() string
	// Accept blocks for the next inbound connection, performs the
	// handshake, and returns the connection together with the remote's
	// self-reported PeerID. It returns an error once the listener is
	// closed or ctx is done.
	Accept(ctx context.Context) (Conn, peer.ID, error)
	// Close stops accepting and releases the bound address.
	Close() error
}

// Transport is the pluggable trait PeerNode dials and listens through.
type Transport interface {
	// Listen binds addr ("host:port"; port 0 picks an OS-assigned port).
	// It fails with *mmerr.PortUnavailable if the address is already in
	// use.
	Listen(ctx context.Context, local peer.ID, addr string) (Listener, error)
	// Dial opens a connection to addr and performs the handshake,
	// announcing local as this host's identity and returning the remote's
	// self-reported PeerID.
	Dial(ctx context.Context, local peer.ID, addr string) (Conn, peer.ID, error)
}
