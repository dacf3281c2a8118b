package member

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/mmerr"
	"github.com/bfix/mm/peer"
)

// fakePTY is an in-memory PTY double: enough to exercise Member without a
// real process, and an Introspectable with data Set callers can control.
type fakePTY struct {
	lines   []string
	running bool
	closed  bool
	cmd     string
	cwd     string
	fg      string
	haveFg  bool
}

func (f *fakePTY) WriteLine(text string) error {
	if f.closed {
		return mmerr.ErrPtyClosed
	}
	f.lines = append(f.lines, text)
	return nil
}

func (f *fakePTY) WriteRaw(data []byte) (int, error) {
	if f.closed {
		return 0, mmerr.ErrPtyClosed
	}
	return len(data), nil
}

func (f *fakePTY) IsRunning() bool { return f.running }

func (f *fakePTY) Close() error {
	f.closed = true
	f.running = false
	return nil
}

func (f *fakePTY) Command() (string, bool) { return f.cmd, f.cmd != "" }
func (f *fakePTY) Cwd() (string, bool)     { return f.cwd, f.cwd != "" }
func (f *fakePTY) ForegroundProcess() (string, bool) {
	return f.fg, f.haveFg
}

func testID() actor.ID {
	return actor.NewID(peer.New("local", "127.0.0.1", 50051))
}

func TestTellWritesLineAndRejectsWhenStopped(t *testing.T) {
	pty := &fakePTY{running: true}
	m := New(testID(), "alice", pty, true)

	if err := m.Tell("hello"); err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if len(pty.lines) != 1 || pty.lines[0] != "hello" {
		t.Fatalf("unexpected lines: %+v", pty.lines)
	}

	pty.running = false
	if err := m.Tell("ignored"); !errors.Is(err, mmerr.ErrPtyClosed) {
		t.Fatalf("Tell after stop: got %v, want ErrPtyClosed", err)
	}
}

func TestIntrospectionOmittedWhenUnavailable(t *testing.T) {
	pty := &fakePTY{running: true}
	m := New(testID(), "bob", pty, true)

	if _, ok := m.GetCommand(); ok {
		t.Fatal("expected no command before one is set")
	}
	pty.cmd = "/bin/zsh"
	if cmd, ok := m.GetCommand(); !ok || cmd != "/bin/zsh" {
		t.Fatalf("GetCommand: got (%q, %v)", cmd, ok)
	}
}

func TestCloseHonorsOwnership(t *testing.T) {
	owned := &fakePTY{running: true}
	m := New(testID(), "owner", owned, true)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !owned.closed {
		t.Fatal("expected owned PTY to be closed")
	}

	borrowed := &fakePTY{running: true}
	ref := New(testID(), "borrower", borrowed, false)
	if err := ref.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if borrowed.closed {
		t.Fatal("expected borrowed PTY to survive Close")
	}
}

func TestDispatchTellDecodesPositionalArgs(t *testing.T) {
	pty := &fakePTY{running: true}
	m := New(testID(), "carol", pty, true)

	handler, ok := actor.Lookup("Member.Tell:1")
	if !ok {
		t.Fatal("Member.Tell:1 not registered")
	}
	args, _ := json.Marshal([1]string{"ping"})
	if _, err := handler(m, args); err != nil {
		t.Fatalf("dispatch Tell: %v", err)
	}
	if len(pty.lines) != 1 || pty.lines[0] != "ping" {
		t.Fatalf("unexpected lines after dispatch: %+v", pty.lines)
	}
}

func TestDispatchIsRunningEncodesBool(t *testing.T) {
	pty := &fakePTY{running: true}
	m := New(testID(), "dave", pty, true)

	handler, ok := actor.Lookup("Member.IsRunning:1")
	if !ok {
		t.Fatal("Member.IsRunning:1 not registered")
	}
	result, err := handler(m, nil)
	if err != nil {
		t.Fatalf("dispatch IsRunning: %v", err)
	}
	var running bool
	if err := json.Unmarshal(result, &running); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !running {
		t.Fatal("expected IsRunning to report true")
	}
}
