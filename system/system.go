// Package system implements CommunitySystem: the runtime that ties a Node's
// connections to the local actor and name registries, decides whether a
// call is local or remote, and runs the per-connection message loop.
package system

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/envelope"
	"github.com/bfix/mm/mmerr"
	"github.com/bfix/mm/member"
	"github.com/bfix/mm/node"
	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/registry"
	"github.com/bfix/mm/syncmap"
	"github.com/bfix/mm/transport"
)

// DefaultCallTimeout bounds how long a remote call waits for its Response
// absent a tighter deadline on the caller's context.
const DefaultCallTimeout = 30 * time.Second

// memberExchangeTimeout bounds AllMembersWithStatus's remote refresh.
const memberExchangeTimeout = 3 * time.Second

// System is CommunitySystem: the process-wide runtime for one mesh host.
type System struct {
	local   peer.ID
	node    *node.Node
	actors  *registry.Actors
	names   *registry.Names
	pending *registry.PendingCalls
	remote  *registry.RemoteMembers

	callTimeout time.Duration
	self        *systemActor

	// loopStarted tracks which outbound peers already have a running
	// connectionLoop, so a cached Connect doesn't spawn a second reader.
	loopStarted *syncmap.Map[peer.ID, struct{}]
	// inbound tracks accepted connections so Stop can close them; Node only
	// tracks the outbound side.
	inbound *syncmap.Map[peer.ID, transport.Conn]

	mu      sync.Mutex // groups started/cancel/ctx, per the no-double-lock policy
	started bool
	cancel  context.CancelFunc
	ctx     context.Context
}

// New constructs a System for local, dialing and listening through tr. It
// is not yet started.
func New(local peer.ID, tr transport.Transport) *System {
	s := &System{
		local:       local,
		node:        node.New(local, tr),
		actors:      registry.NewActors(),
		names:       registry.NewNames(),
		pending:     registry.NewPendingCalls(),
		remote:      registry.NewRemoteMembers(),
		callTimeout: DefaultCallTimeout,
		loopStarted: syncmap.New[peer.ID, struct{}](),
		inbound:     syncmap.New[peer.ID, transport.Conn](),
	}
	s.self = &systemActor{sys: s}
	s.actors.Register(actor.WellKnownSystemUUID, s.self)
	return s
}

// LocalPeerID returns this system's own identity.
func (s *System) LocalPeerID() peer.ID { return s.local }

// SystemActorID returns the well-known SystemActor id for this host.
func (s *System) SystemActorID() actor.ID { return actor.SystemID(s.local) }

// Start binds the local listener and begins serving inbound connections.
// Idempotent.
func (s *System) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if err := s.node.Start(ctx); err != nil {
		return err
	}
	if s.local.Port == 0 {
		// Port 0 asked for an OS-assigned port: advertise the one actually
		// bound, so member ids minted from s.local are dialable by peers.
		if bound, err := peer.Parse("bound@" + s.node.BoundAddr()); err == nil {
			s.local.Port = bound.Port
		}
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.ctx = runCtx
	s.cancel = cancel
	s.started = true
	go s.acceptLoop(runCtx)
	logger.Printf(logger.INFO, "[system] started on %s", s.node.BoundAddr())
	return nil
}

// BoundAddr returns the address the underlying node is listening on.
func (s *System) BoundAddr() string { return s.node.BoundAddr() }

// Stop tears down the listener, every connection, and fails every pending
// call with mmerr.ErrSystemStopped. Idempotent.
func (s *System) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	err := s.node.Stop()
	for _, p := range s.inbound.Keys() {
		if conn, ok := s.inbound.Delete(p); ok {
			conn.Close()
		}
	}
	s.pending.FailAll(mmerr.ErrSystemStopped)
	s.names.Clear()
	s.remote.Clear()
	return err
}

func (s *System) runningCtx() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, mmerr.ErrSystemNotStarted
	}
	return s.ctx, nil
}

// CreateMember mints a fresh local Member named name, fronting pty, and
// registers it under both the actor and name registries.
func (s *System) CreateMember(name string, pty member.PTY, owns bool) (*member.Member, error) {
	id := actor.NewID(s.local)
	if err := s.names.Register(name, id); err != nil {
		return nil, err
	}
	m := member.New(id, name, pty, owns)
	s.actors.Register(id.UUID, m)
	logger.Printf(logger.INFO, "[system] member %q joined as %s", name, id)
	return m, nil
}

// RemoveMember unregisters and closes a previously created local member.
func (s *System) RemoveMember(id actor.ID) error {
	s.names.UnregisterByActor(id)
	value, ok := s.actors.Find(id.UUID)
	s.actors.Unregister(id.UUID)
	if !ok {
		return nil
	}
	m, ok := value.(*member.Member)
	if !ok {
		return nil
	}
	return m.Close()
}

// FindLocalByName resolves name to a local actor id.
func (s *System) FindLocalByName(name string) (actor.ID, bool) {
	return s.names.Find(name)
}

// ResolveName finds name's actor id, checking local names first, then the
// remote-member cache, then (absent a cache hit) asking every connected
// peer's SystemActor directly.
func (s *System) ResolveName(ctx context.Context, name string) (actor.ID, error) {
	if id, ok := s.names.Find(name); ok {
		return id, nil
	}
	if info, ok := s.remote.FindByName(name); ok {
		return info.ActorID, nil
	}
	for _, p := range s.node.ConnectedPeers() {
		var info registry.MemberInfo
		if err := s.Call(ctx, actor.SystemID(p), "System.FindMember:1", [1]string{name}, &info); err != nil {
			continue
		}
		if info.Name == name {
			s.remote.Put(info)
			return info.ActorID, nil
		}
	}
	return actor.ID{}, &mmerr.NameNotFound{Name: name}
}

// Call performs a (possibly remote) invocation against id's target method,
// decoding its result into result (which may be nil for a void method).
func (s *System) Call(ctx context.Context, id actor.ID, target string, args, result any) error {
	if id.Peer.Equal(s.local) {
		return s.callLocal(id, target, args, result)
	}
	return s.callRemote(ctx, id, target, args, result)
}

// CallVoid is Call without a result value.
func (s *System) CallVoid(ctx context.Context, id actor.ID, target string, args any) error {
	return s.Call(ctx, id, target, args, nil)
}

func (s *System) callLocal(id actor.ID, target string, args, result any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &mmerr.ExecutionFailed{Target: target, Message: fmt.Sprint(r)}
		}
	}()
	value, ok := s.actors.Find(id.UUID)
	if !ok {
		return &mmerr.ActorNotFound{UUID: id.UUID}
	}
	handler, ok := actor.Lookup(target)
	if !ok {
		return &mmerr.ExecutionFailed{Target: target, Message: "unknown target"}
	}
	encoded, err := encodeArgs(args)
	if err != nil {
		return err
	}
	raw, err := handler(value, encoded)
	if err != nil {
		return &mmerr.ExecutionFailed{Target: target, Message: err.Error()}
	}
	return decodeResult(raw, result)
}

func (s *System) callRemote(ctx context.Context, id actor.ID, target string, args, result any) error {
	runCtx, err := s.runningCtx()
	if err != nil {
		return err
	}
	conn, err := s.connectAndServe(runCtx, id.Peer)
	if err != nil {
		return err
	}
	encoded, err := encodeArgs(args)
	if err != nil {
		return err
	}
	inv := envelope.NewInvocation(id.UUID, s.local.String(), target, encoded)
	outcome := s.pending.Register(inv.CallID, id.Peer.String())

	if sendErr := conn.Send(&envelope.Frame{Kind: envelope.KindInvocation, Invocation: inv}); sendErr != nil {
		s.pending.Cancel(inv.CallID)
		return &mmerr.ConnectionFailed{Peer: id.Peer.String(), Reason: sendErr}
	}

	deadline := s.callTimeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < deadline {
			deadline = d
		}
	}
	select {
	case <-ctx.Done():
		s.pending.Cancel(inv.CallID)
		return ctx.Err()
	case <-time.After(deadline):
		s.pending.Cancel(inv.CallID)
		return mmerr.ErrTimeout
	case res := <-outcome:
		if res.Err != nil {
			return res.Err
		}
		return responseToError(res.Response, result)
	}
}

// connectAndServe returns a ready connection to remote, dialing and
// spinning up its read loop on first use.
func (s *System) connectAndServe(ctx context.Context, remote peer.ID) (transport.Conn, error) {
	conn, err := s.node.Connect(ctx, remote)
	if err != nil {
		return nil, err
	}
	if s.loopStarted.PutIfAbsent(remote, struct{}{}) {
		go s.connectionLoop(remote, conn)
	}
	return conn, nil
}

// ConnectToPeer dials remote (if not already connected) and pulls its
// member list. A failure to connect is returned; a failed member exchange
// is only logged, per the mesh's best-effort discovery policy.
func (s *System) ConnectToPeer(ctx context.Context, remote peer.ID) error {
	runCtx, err := s.runningCtx()
	if err != nil {
		return err
	}
	if _, err := s.connectAndServe(runCtx, remote); err != nil {
		return err
	}
	s.exchangeMemberInfo(ctx, remote)
	return nil
}

func (s *System) exchangeMemberInfo(ctx context.Context, remote peer.ID) {
	var infos []registry.MemberInfo
	err := s.Call(ctx, actor.SystemID(remote), "System.ListMembers:1", nil, &infos)
	if err != nil {
		logger.Printf(logger.WARN, "[system] member exchange with %s failed: %v", remote, err)
		return
	}
	for _, info := range infos {
		s.remote.Put(info)
	}
	logger.Printf(logger.DBG, "[system] learned %d member(s) from %s", len(infos), remote)
}

// AllMembersWithStatus returns every member known to this host: local
// members with live introspection, plus the best available remote data,
// refreshed from each connected peer within memberExchangeTimeout and
// falling back to the cache for any peer that doesn't answer in time.
func (s *System) AllMembersWithStatus(ctx context.Context) []registry.MemberInfo {
	out := s.self.localMemberInfos()

	refreshCtx, cancel := context.WithTimeout(ctx, memberExchangeTimeout)
	defer cancel()
	var wg sync.WaitGroup
	for _, p := range s.node.ConnectedPeers() {
		wg.Add(1)
		go func(p peer.ID) {
			defer wg.Done()
			s.exchangeMemberInfo(refreshCtx, p)
		}(p)
	}
	wg.Wait()

	out = append(out, s.remote.All()...)
	return out
}

func encodeArgs(args any) ([]byte, error) {
	if args == nil {
		return nil, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("system: encode arguments: %w", err)
	}
	return raw, nil
}

func decodeResult(raw []byte, result any) error {
	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("system: decode result: %w", err)
	}
	return nil
}

func responseToError(resp *envelope.Response, result any) error {
	switch resp.Kind {
	case envelope.ResultVoid:
		return nil
	case envelope.ResultSuccess:
		return decodeResult(resp.Result, result)
	case envelope.ResultFailure:
		return runtimeErrorToError(resp.Err)
	default:
		return fmt.Errorf("system: unknown response kind %d", resp.Kind)
	}
}

func runtimeErrorToError(rerr *envelope.RuntimeError) error {
	if rerr == nil {
		return fmt.Errorf("system: remote failure with no detail")
	}
	switch rerr.Kind {
	case envelope.ErrorActorNotFound:
		return &mmerr.ActorNotFound{UUID: rerr.UUID}
	case envelope.ErrorExecutionFailed:
		return &mmerr.ExecutionFailed{Target: rerr.Target, Message: rerr.Message}
	default:
		return fmt.Errorf("system: remote error: %s", rerr.Message)
	}
}
