package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/envelope"
	"github.com/bfix/mm/mmerr"
	"github.com/bfix/mm/peer"
)

// connectTimeout bounds how long Dial waits for the TCP handshake plus the
// peer-id exchange, absent a tighter deadline on ctx.
const connectTimeout = 5 * time.Second

// TCP is the reference Transport: length-prefixed Frames over a plain TCP
// stream, preceded by a one-shot peer-id handshake.
type TCP struct{}

// NewTCP returns the reference TCP transport.
func NewTCP() *TCP { return &TCP{} }

// Listen binds addr and returns a Listener that performs the handshake on
// each accepted connection.
func (TCP) Listen(ctx context.Context, local peer.ID, addr string) (Listener, error) {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, &mmerr.PortUnavailable{Port: local.Port, Err: err}
	}
	return &tcpListener{ln: ln, local: local}, nil
}

// Dial opens a TCP connection to addr and exchanges peer ids.
func (TCP) Dial(ctx context.Context, local peer.ID, addr string) (Conn, peer.ID, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, peer.ID{}, mmerr.ErrConnectionTimeout
		}
		return nil, peer.ID{}, &mmerr.ConnectionFailed{Peer: addr, Reason: err}
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = nc.SetDeadline(dl)
	}
	remote, err := dialHandshake(nc, local)
	if err != nil {
		nc.Close()
		return nil, peer.ID{}, err
	}
	_ = nc.SetDeadline(time.Time{})
	return newConn(nc), remote, nil
}

// dialHandshake announces local and reads the remote's self-reported id:
// the dialer writes first so the symmetric acceptHandshake's read matches.
func dialHandshake(nc net.Conn, local peer.ID) (peer.ID, error) {
	if err := envelope.WriteLenPrefixed(nc, []byte(local.String())); err != nil {
		return peer.ID{}, &mmerr.ConnectionFailed{Peer: nc.RemoteAddr().String(), Reason: err}
	}
	raw, err := envelope.ReadLenPrefixed(nc)
	if err != nil {
		return peer.ID{}, &mmerr.ConnectionFailed{Peer: nc.RemoteAddr().String(), Reason: err}
	}
	remote, err := peer.Parse(string(raw))
	if err != nil {
		return peer.ID{}, err
	}
	return remote, nil
}

// acceptHandshake is the server-side mirror of dialHandshake: it reads the
// dialer's announced id first, then announces the local one.
func acceptHandshake(nc net.Conn, local peer.ID) (peer.ID, error) {
	raw, err := envelope.ReadLenPrefixed(nc)
	if err != nil {
		return peer.ID{}, &mmerr.ConnectionFailed{Peer: nc.RemoteAddr().String(), Reason: err}
	}
	remote, err := peer.Parse(string(raw))
	if err != nil {
		return peer.ID{}, err
	}
	if err := envelope.WriteLenPrefixed(nc, []byte(local.String())); err != nil {
		return peer.ID{}, &mmerr.ConnectionFailed{Peer: remote.String(), Reason: err}
	}
	return remote, nil
}

type tcpListener struct {
	ln    net.Listener
	local peer.ID
}

func (l *tcpListener) Addr() string { return l.ln.Addr().String() }

func (l *tcpListener) Accept(ctx context.Context) (Conn, peer.ID, error) {
	type result struct {
		nc  net.Conn
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		nc, err := l.ln.Accept()
		resultCh <- result{nc, err}
	}()

	select {
	case <-ctx.Done():
		return nil, peer.ID{}, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, peer.ID{}, r.err
		}
		_ = r.nc.SetDeadline(time.Now().Add(connectTimeout))
		remote, err := acceptHandshake(r.nc, l.local)
		if err != nil {
			r.nc.Close()
			return nil, peer.ID{}, err
		}
		_ = r.nc.SetDeadline(time.Time{})
		return newConn(r.nc), remote, nil
	}
}

func (l *tcpListener) Close() error { return l.ln.Close() }

// tcpConn serializes writes with a mutex, since Send may be invoked from
// many goroutines concurrently while Recv runs on the connection's own
// read-loop goroutine.
type tcpConn struct {
	nc     net.Conn
	mu     sync.Mutex
	closed bool
}

func newConn(nc net.Conn) *tcpConn {
	return &tcpConn{nc: nc}
}

func (c *tcpConn) Send(f *envelope.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("transport: connection closed")
	}
	return envelope.WriteFrame(c.nc, f)
}

func (c *tcpConn) Recv() (*envelope.Frame, error) {
	return envelope.ReadFrame(c.nc)
}

func (c *tcpConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	logger.Printf(logger.DBG, "[transport] closing connection to %s", c.nc.RemoteAddr())
	return c.nc.Close()
}
