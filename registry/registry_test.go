package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/envelope"
	"github.com/bfix/mm/mmerr"
	"github.com/bfix/mm/peer"
)

func TestNameUniquenessUnderConcurrency(t *testing.T) {
	names := NewNames()
	self := peer.New("a", "127.0.0.1", 50051)
	const n = 32
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = names.Register("alice", actor.NewID(self))
		}(i)
	}
	wg.Wait()

	successes, taken := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.As(err, new(*mmerr.NameAlreadyTaken)):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || taken != n-1 {
		t.Fatalf("successes=%d taken=%d, want 1 and %d", successes, taken, n-1)
	}
}

func TestResignClearsNames(t *testing.T) {
	names := NewNames()
	self := peer.New("a", "127.0.0.1", 50051)
	id := actor.NewID(self)
	if err := names.Register("alice", id); err != nil {
		t.Fatalf("Register: %v", err)
	}
	names.UnregisterByActor(id)
	if _, ok := names.Find("alice"); ok {
		t.Fatal("expected alice to be unresolvable after resign")
	}
	if len(names.AllEntries()) != 0 {
		t.Fatal("expected no entries after resign")
	}
}

func TestPendingCallCompletion(t *testing.T) {
	p := NewPendingCalls()
	ch := p.Register("call-1", "bob@127.0.0.1:1")
	resp := envelope.Void("call-1")
	p.Resolve("call-1", resp)

	out := <-ch
	if out.Err != nil || out.Response != resp {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	// A second resolve for the same (now-removed) call id is a no-op.
	p.Resolve("call-1", resp)
}

func TestPendingCallFailPeer(t *testing.T) {
	p := NewPendingCalls()
	ch1 := p.Register("c1", "bob@h:1")
	ch2 := p.Register("c2", "carol@h:2")

	n := p.FailPeer("bob@h:1", mmerr.ErrSystemStopped)
	if n != 1 {
		t.Fatalf("FailPeer removed %d, want 1", n)
	}
	out := <-ch1
	if !errors.Is(out.Err, mmerr.ErrSystemStopped) {
		t.Fatalf("expected ch1 to fail with SystemStopped, got %v", out.Err)
	}
	select {
	case <-ch2:
		t.Fatal("ch2 should not have been completed by FailPeer(bob)")
	default:
	}
}

func TestRemoteMembersEvictPeer(t *testing.T) {
	r := NewRemoteMembers()
	bob := peer.New("bob", "127.0.0.1", 2)
	carol := peer.New("carol", "127.0.0.1", 3)
	r.Put(MemberInfo{Name: "x", ActorID: actor.NewID(bob), PeerID: bob})
	r.Put(MemberInfo{Name: "y", ActorID: actor.NewID(carol), PeerID: carol})

	n := r.EvictPeer(bob)
	if n != 1 {
		t.Fatalf("EvictPeer removed %d, want 1", n)
	}
	all := r.All()
	if len(all) != 1 || all[0].PeerID != carol {
		t.Fatalf("unexpected remaining entries: %+v", all)
	}
}
