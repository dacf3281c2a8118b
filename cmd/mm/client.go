package main

import (
	"context"
	"fmt"

	"github.com/bfix/mm/config"
	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/system"
	"github.com/bfix/mm/transport"
)

// dialTarget starts a throwaway System bound to an OS-assigned port and
// connects it to the target host:port, ready to resolve names and issue
// calls against whatever peer is listening there.
func dialTarget(ctx context.Context, host string, port uint16) (*system.System, peer.ID, error) {
	local := peer.New("mm-cli", "127.0.0.1", 0)
	sys := system.New(local, transport.NewTCP())
	if err := sys.Start(ctx); err != nil {
		return nil, peer.ID{}, fmt.Errorf("mm: start client: %w", err)
	}
	target := peer.New("target", host, port)
	if err := sys.ConnectToPeer(ctx, target); err != nil {
		sys.Stop()
		return nil, peer.ID{}, fmt.Errorf("mm: connect to %s: %w", target.Addr(), err)
	}
	return sys, target, nil
}

// hostPort resolves the --host/--port flags against the loaded config's
// defaults.
func hostPort(c hostPortFlags) (string, uint16) {
	host := c.String("host")
	if host == "" {
		host = config.Cfg.Peer.Host
	}
	port := c.Uint("port")
	if port == 0 {
		port = uint(config.Cfg.Peer.Port)
	}
	return host, uint16(port)
}

// hostPortFlags is the subset of *cli.Context hostPort needs, so it can be
// called from any command regardless of its own flag set.
type hostPortFlags interface {
	String(name string) string
	Uint(name string) uint
}
