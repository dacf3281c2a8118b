package node

import (
	"context"
	"testing"
	"time"

	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/transport"
)

func TestStartStopIdempotent(t *testing.T) {
	ctx := context.Background()
	n := New(peer.New("a", "127.0.0.1", 0), transport.NewTCP())
	if err := n.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := n.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestConnectAndAccept(t *testing.T) {
	ctx := context.Background()
	tr := transport.NewTCP()

	serverID := peer.New("server", "127.0.0.1", 0)
	server := New(serverID, tr)
	if err := server.Start(ctx); err != nil {
		t.Fatalf("server Start: %v", err)
	}
	defer server.Stop()

	bound, err := peer.Parse("server@" + server.BoundAddr())
	if err != nil {
		t.Fatalf("parse bound addr: %v", err)
	}

	clientID := peer.New("client", "127.0.0.1", 0)
	client := New(clientID, tr)
	conn, err := client.Connect(ctx, bound)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()

	select {
	case got := <-server.IncomingConnections():
		if got.Peer.Name != "client" {
			t.Fatalf("accepted peer %q, want client", got.Peer.Name)
		}
		defer got.Conn.Close()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound connection")
	}

	// Connect again: idempotent, returns the cached connection.
	again, err := client.Connect(ctx, bound)
	if err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if again != conn {
		t.Fatal("expected cached connection to be reused")
	}

	peers := client.ConnectedPeers()
	if len(peers) != 1 || !peers[0].Equal(bound) {
		t.Fatalf("unexpected connected peers: %+v", peers)
	}

	client.Disconnect(bound)
	if _, ok := client.TransportFor(bound); ok {
		t.Fatal("expected connection to be gone after Disconnect")
	}
}
