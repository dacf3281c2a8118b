// Package member implements Member: a distributed actor that wraps a PTY
// running an interactive child process and exposes it to the mesh.
package member

// PTY is the external collaborator that owns process spawn, master-fd I/O,
// and signal escalation. Member only ever calls these four methods; it
// never touches a file descriptor directly.
type PTY interface {
	// WriteLine writes text to the PTY's master side, waits a short beat,
	// then writes a carriage return — tuned for TUI programs that poll
	// their input buffer rather than reading byte-by-byte.
	WriteLine(text string) error
	// WriteRaw writes data to the PTY's master side with no trailing
	// delay or carriage return.
	WriteRaw(data []byte) (int, error)
	// IsRunning reports whether the child process is still alive. The
	// implementation is responsible for reaping the exited child (LocalPTY
	// does so from a background cmd.Wait).
	IsRunning() bool
	// Close escalates signals against the child's process group and
	// releases the PTY's file descriptors. Safe to call more than once.
	Close() error
}

// Introspectable is an optional capability a PTY implementation may offer:
// best-effort process metadata. A PTY that does not implement it simply
// yields "no metadata" for every Member.Get* call.
type Introspectable interface {
	// Command returns the argv the child was started with.
	Command() (string, bool)
	// Cwd returns the child's current working directory.
	Cwd() (string, bool)
	// ForegroundProcess returns the name of the process currently holding
	// the PTY's foreground process group, which may differ from the
	// originally spawned command (e.g. a shell running vim).
	ForegroundProcess() (string, bool)
}
