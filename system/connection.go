package system

import (
	"context"
	"fmt"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/envelope"
	"github.com/bfix/mm/mmerr"
	"github.com/bfix/mm/node"
	"github.com/bfix/mm/peer"
	"github.com/bfix/mm/transport"
)

// acceptLoop drains the node's inbound-connection queue, starting a
// connectionLoop for each newly accepted peer connection.
func (s *System) acceptLoop(ctx context.Context) {
	for {
		select {
		case inc, ok := <-s.node.IncomingConnections():
			if !ok {
				return
			}
			s.handleAccepted(ctx, inc)
		case <-ctx.Done():
			return
		}
	}
}

// handleAccepted registers the new connection and immediately pulls the
// dialer's member list, so a host that only ever gets dialed into still
// learns who connected to it: member exchange works in both directions.
func (s *System) handleAccepted(ctx context.Context, inc node.Incoming) {
	logger.Printf(logger.INFO, "[system] accepted connection from %s", inc.Peer)
	s.inbound.Put(inc.Peer, inc.Conn)
	go s.connectionLoop(inc.Peer, inc.Conn)
	go s.exchangeMemberInfo(ctx, inc.Peer)
}

// connectionLoop owns Recv for one connection for its lifetime: invocations
// are dispatched and answered on the same connection; responses complete
// their pending call. On any Recv error the connection and every piece of
// state keyed by remote are cleaned up. There is no ctx here: the loop is
// unblocked solely by the connection being closed, from Stop or cleanupPeer.
func (s *System) connectionLoop(remote peer.ID, conn transport.Conn) {
	defer s.cleanupPeer(remote, conn)
	for {
		frame, err := conn.Recv()
		if err != nil {
			logger.Printf(logger.DBG, "[system] connection to %s closed: %v", remote, err)
			return
		}
		switch frame.Kind {
		case envelope.KindInvocation:
			resp := s.handleInvocation(frame.Invocation)
			if err := conn.Send(&envelope.Frame{Kind: envelope.KindResponse, Response: resp}); err != nil {
				logger.Printf(logger.WARN, "[system] failed to answer %s: %v", remote, err)
				return
			}
		case envelope.KindResponse:
			s.pending.Resolve(frame.Response.CallID, frame.Response)
		default:
			logger.Printf(logger.WARN, "[system] unknown frame kind %d from %s", frame.Kind, remote)
		}
	}
}

func (s *System) cleanupPeer(remote peer.ID, conn transport.Conn) {
	conn.Close()
	s.node.Disconnect(remote)
	s.inbound.Delete(remote)
	s.loopStarted.Delete(remote)
	s.names.UnregisterByPeer(remote)
	s.remote.EvictPeer(remote)
	failed := s.pending.FailPeer(remote.String(), &mmerr.ConnectionFailed{Peer: remote.String(), Reason: mmerr.ErrConnectionClosed})
	if failed > 0 {
		logger.Printf(logger.DBG, "[system] failed %d pending call(s) to %s", failed, remote)
	}
}

// handleInvocation resolves the target local actor and handler, invokes
// it, and builds the Response to send back. It never blocks on network I/O.
func (s *System) handleInvocation(inv *envelope.Invocation) (resp *envelope.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = envelope.Failure(inv.CallID, &envelope.RuntimeError{
				Kind:    envelope.ErrorExecutionFailed,
				Target:  inv.Target,
				Message: fmt.Sprint(r),
			})
		}
	}()
	value, ok := s.actors.Find(inv.RecipientUUID)
	if !ok {
		return envelope.Failure(inv.CallID, &envelope.RuntimeError{
			Kind: envelope.ErrorActorNotFound,
			UUID: inv.RecipientUUID,
		})
	}
	handler, ok := actor.Lookup(inv.Target)
	if !ok {
		return envelope.Failure(inv.CallID, &envelope.RuntimeError{
			Kind:    envelope.ErrorExecutionFailed,
			Target:  inv.Target,
			Message: "unknown target",
		})
	}
	result, err := handler(value, inv.Arguments)
	if err != nil {
		return envelope.Failure(inv.CallID, &envelope.RuntimeError{
			Kind:    envelope.ErrorExecutionFailed,
			Target:  inv.Target,
			Message: err.Error(),
		})
	}
	if len(result) == 0 {
		return envelope.Void(inv.CallID)
	}
	return envelope.Success(inv.CallID, result)
}
