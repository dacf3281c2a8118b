package member

import (
	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/actor"
	"github.com/bfix/mm/mmerr"
)

// Member is the distributed actor wrapping one interactive child process.
// Exactly one Member exists per joined process; remote peers see it only
// through its actor.ID and the registered name it was given at join time.
type Member struct {
	id   actor.ID
	name string
	pty  PTY
	owns bool // true if Close should tear down pty; false for a borrowed PTY
}

// New constructs a Member named name, identified by id, fronting pty. owns
// controls whether Close also closes pty: the process that spawned the PTY
// owns it, a Member rehydrated only to answer introspection queries does not.
func New(id actor.ID, name string, pty PTY, owns bool) *Member {
	return &Member{id: id, name: name, pty: pty, owns: owns}
}

// ID returns the actor identity this Member answers to.
func (m *Member) ID() actor.ID { return m.id }

// GetName returns the member's registered name.
func (m *Member) GetName() string { return m.name }

// Tell injects text into the PTY followed by a carriage return. It fails
// with mmerr.ErrPtyClosed if the underlying process is no longer running.
func (m *Member) Tell(text string) error {
	if !m.pty.IsRunning() {
		return mmerr.ErrPtyClosed
	}
	if err := m.pty.WriteLine(text); err != nil {
		return err
	}
	logger.Printf(logger.DBG, "[member] %s <- %q", m.name, text)
	return nil
}

// IsRunning reports whether the wrapped process is still alive.
func (m *Member) IsRunning() bool {
	return m.pty.IsRunning()
}

// GetCommand returns the command the member was started with, if the PTY
// implementation can report it.
func (m *Member) GetCommand() (string, bool) {
	if in, ok := m.pty.(Introspectable); ok {
		return in.Command()
	}
	return "", false
}

// GetCwd returns the member's current working directory, if available.
func (m *Member) GetCwd() (string, bool) {
	if in, ok := m.pty.(Introspectable); ok {
		return in.Cwd()
	}
	return "", false
}

// GetForegroundProcess returns the name of the process currently holding
// the PTY's foreground process group, if available.
func (m *Member) GetForegroundProcess() (string, bool) {
	if in, ok := m.pty.(Introspectable); ok {
		return in.ForegroundProcess()
	}
	return "", false
}

// Close releases the Member's resources. If it owns its PTY, that PTY is
// closed (escalating signals against the child); otherwise Close is a no-op.
func (m *Member) Close() error {
	if !m.owns {
		return nil
	}
	return m.pty.Close()
}
