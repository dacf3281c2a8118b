package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/term"

	"github.com/urfave/cli/v2"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/config"
	"github.com/bfix/mm/member"
	"github.com/bfix/mm/mmerr"
	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/status"
	"github.com/bfix/mm/system"
	"github.com/bfix/mm/transport"
)

// wellKnownPort is the default mesh port; a join request that finds it
// already bound attaches to the existing server instead of failing.
const wellKnownPort = 50051

var joinCommand = &cli.Command{
	Name:      "join",
	Usage:     "spawn a process in a pseudo-terminal and join it to the mesh",
	ArgsUsage: "[command [args...]]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "name to register this member under"},
		&cli.StringFlag{Name: "host", Usage: "host to bind the local listener on"},
		&cli.UintFlag{Name: "port", Usage: "port to bind the local listener on"},
		&cli.StringSliceFlag{Name: "peer", Usage: "seed peer(s) to connect to, name@host:port"},
		&cli.BoolFlag{Name: "no-discovery", Usage: "do not connect to any seed peers"},
		&cli.StringFlag{Name: "status-addr", Usage: "serve a read-only HTTP status view on this address (off by default)"},
	},
	Action: runJoin,
}

func runJoin(c *cli.Context) error {
	command, args := joinCommandLine(c)

	name := c.String("name")
	if name == "" {
		name = filepath.Base(command)
	}
	host := c.String("host")
	if host == "" {
		host = config.Cfg.Peer.Host
	}
	port := uint16(c.Uint("port"))
	if port == 0 {
		port = config.Cfg.Peer.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sys, err := startJoinSystem(ctx, name, host, port)
	if err != nil {
		return err
	}
	defer sys.Stop()

	if addr := c.String("status-addr"); addr != "" {
		status.New(sys, addr).Start(ctx)
	}

	if !c.Bool("no-discovery") {
		seeds := append(append([]string{}, config.Cfg.Seeds...), c.StringSlice("peer")...)
		for _, spec := range seeds {
			seed, err := peer.Parse(spec)
			if err != nil {
				logger.Printf(logger.WARN, "[mm] ignoring invalid seed %q: %v", spec, err)
				continue
			}
			if err := sys.ConnectToPeer(ctx, seed); err != nil {
				logger.Printf(logger.WARN, "[mm] failed to connect to seed %s: %v", seed, err)
			}
		}
	}

	os.Setenv("MM_NAME", name)
	pty, err := member.Start(command, args)
	if err != nil {
		return fmt.Errorf("mm: spawn %s: %w", command, err)
	}
	m, err := sys.CreateMember(name, pty, true)
	if err != nil {
		pty.Close()
		return fmt.Errorf("mm: join as %q: %w", name, err)
	}
	defer sys.RemoveMember(m.ID())

	return runInteractive(ctx, pty)
}

// joinCommandLine splits the positional arguments into the command to spawn
// and its own arguments, falling back to the configured default command.
func joinCommandLine(c *cli.Context) (string, []string) {
	if c.Args().Len() > 0 {
		return c.Args().First(), c.Args().Tail()
	}
	return config.Cfg.JoinCommand, nil
}

// startJoinSystem binds a System at host:port. If port is the well-known
// mesh port and it is already taken, it rebinds to an OS-assigned port and
// attaches to the pre-existing server at 127.0.0.1:wellKnownPort as a seed.
func startJoinSystem(ctx context.Context, name, host string, port uint16) (*system.System, error) {
	local := peer.New(name, host, port)
	sys := system.New(local, transport.NewTCP())
	err := sys.Start(ctx)
	if err == nil {
		return sys, nil
	}

	var portErr *mmerr.PortUnavailable
	if port != wellKnownPort || !errors.As(err, &portErr) {
		return nil, fmt.Errorf("mm: start: %w", err)
	}

	logger.Printf(logger.INFO, "[mm] port %d busy, rebinding and attaching as a peer", wellKnownPort)
	local = peer.New(name, host, 0)
	sys = system.New(local, transport.NewTCP())
	if err := sys.Start(ctx); err != nil {
		return nil, fmt.Errorf("mm: start: %w", err)
	}
	existing := peer.New("mesh", "127.0.0.1", wellKnownPort)
	if err := sys.ConnectToPeer(ctx, existing); err != nil {
		sys.Stop()
		return nil, fmt.Errorf("mm: attach to %s: %w", existing.Addr(), err)
	}
	return sys, nil
}

// runInteractive puts the controlling terminal into raw mode (if it is
// one) and pumps bytes between stdio and the PTY until the child exits or
// ctx is cancelled.
func runInteractive(ctx context.Context, pty *member.LocalPTY) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("mm: raw mode: %w", err)
		}
		defer term.Restore(fd, old)
	}

	outputDone := make(chan struct{})
	go func() {
		io.Copy(os.Stdout, pty.Reader())
		close(outputDone)
	}()
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if _, werr := pty.WriteRaw(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	select {
	case <-outputDone:
	case <-ctx.Done():
		pty.Close()
		<-outputDone
	}
	return nil
}
