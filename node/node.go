// Package node implements PeerNode: the component that owns the local
// listening endpoint, the set of outbound connections keyed by PeerID, and
// the queue of freshly accepted inbound connections.
package node

import (
	"context"
	"sync"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/syncmap"
	"github.com/bfix/mm/transport"
)

// Incoming is one accepted-but-not-yet-dispatched inbound connection, as
// delivered by IncomingConnections.
type Incoming struct {
	Peer peer.ID
	Conn transport.Conn
}

// Node is PeerNode: bind, dial, and track connections to other mesh hosts.
// Its connection map is guarded by its own mutex (syncmap.Map), independent
// of any lock CommunitySystem holds.
type Node struct {
	local     peer.ID
	transport transport.Transport

	mu       sync.Mutex // guards listener/cancel/started during Start/Stop
	listener transport.Listener
	cancel   context.CancelFunc
	started  bool

	outbound *syncmap.Map[peer.ID, transport.Conn]
	incoming chan Incoming
}

// New constructs a Node bound to local's name but not yet listening.
func New(local peer.ID, tr transport.Transport) *Node {
	return &Node{
		local:     local,
		transport: tr,
		outbound:  syncmap.New[peer.ID, transport.Conn](),
		incoming:  make(chan Incoming),
	}
}

// LocalPeerID returns the local identity. After Start with port 0, its Port
// is the one the listener actually bound.
func (n *Node) LocalPeerID() peer.ID { return n.local }

// Start binds the listening socket at local's "host:port" and begins
// accepting inbound connections in the background. It fails with
// *mmerr.PortUnavailable if the port is already in use.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.started {
		return nil
	}
	ln, err := n.transport.Listen(ctx, n.local, n.local.Addr())
	if err != nil {
		return err
	}
	if n.local.Port == 0 {
		// Announce the OS-assigned port in handshakes, so an acceptor can
		// dial this node back.
		if bound, err := peer.Parse("bound@" + ln.Addr()); err == nil {
			n.local.Port = bound.Port
		}
	}
	acceptCtx, cancel := context.WithCancel(ctx)
	n.listener = ln
	n.cancel = cancel
	n.started = true
	go n.acceptLoop(acceptCtx)
	logger.Printf(logger.INFO, "[node] listening on %s", ln.Addr())
	return nil
}

// BoundAddr returns the address actually bound by Start (may differ from
// the requested one when port 0 was requested).
func (n *Node) BoundAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listener == nil {
		return ""
	}
	return n.listener.Addr()
}

func (n *Node) acceptLoop(ctx context.Context) {
	for {
		conn, remote, err := n.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Printf(logger.WARN, "[node] accept failed: %v", err)
			continue
		}
		select {
		case n.incoming <- Incoming{Peer: remote, Conn: conn}:
		case <-ctx.Done():
			conn.Close()
			return
		}
	}
}

// IncomingConnections returns the channel of freshly accepted connections.
// It is a single-consumer sequence: CommunitySystem's accept loop is the
// only intended reader.
func (n *Node) IncomingConnections() <-chan Incoming {
	return n.incoming
}

// Connect dials remote at addr and caches the resulting connection. It is
// idempotent: if a connection to remote is already cached, that connection
// is returned without dialing again.
func (n *Node) Connect(ctx context.Context, remote peer.ID) (transport.Conn, error) {
	if conn, ok := n.outbound.Get(remote); ok {
		return conn, nil
	}
	conn, self, err := n.transport.Dial(ctx, n.local, remote.Addr())
	if err != nil {
		return nil, err
	}
	if self.Name != remote.Name {
		logger.Printf(logger.WARN, "[node] dialed %s but it announced itself as %s", remote, self)
	}
	if existing, ok := n.outbound.Get(remote); ok {
		// Lost a race with a concurrent Connect(remote); keep the winner.
		conn.Close()
		return existing, nil
	}
	n.outbound.Put(remote, conn)
	return conn, nil
}

// Disconnect removes and closes the cached connection to remote, if any.
func (n *Node) Disconnect(remote peer.ID) {
	if conn, ok := n.outbound.Delete(remote); ok {
		conn.Close()
	}
}

// TransportFor returns the cached connection to remote, if any.
func (n *Node) TransportFor(remote peer.ID) (transport.Conn, bool) {
	return n.outbound.Get(remote)
}

// ConnectedPeers lists every peer with a cached outbound connection.
func (n *Node) ConnectedPeers() []peer.ID {
	return n.outbound.Keys()
}

// Stop closes the listener, stops accepting, and closes every outbound
// connection. Idempotent.
func (n *Node) Stop() error {
	n.mu.Lock()
	if !n.started {
		n.mu.Unlock()
		return nil
	}
	n.started = false
	cancel := n.cancel
	ln := n.listener
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if ln != nil {
		err = ln.Close()
	}
	for _, p := range n.outbound.Keys() {
		n.Disconnect(p)
	}
	return err
}
