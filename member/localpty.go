package member

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/bfix/gospel/logger"

	"github.com/bfix/mm/mmerr"
)

// interWriteDelay separates the text written to the PTY from the trailing
// carriage return, giving TUI programs a chance to notice the input before
// the "enter" arrives.
const interWriteDelay = 10 * time.Millisecond

// escalationStep is how long Close waits after each signal before trying
// the next, harsher one.
const escalationStep = time.Second

// LocalPTY spawns command in a pseudo-terminal using creack/pty and
// implements both PTY and Introspectable against it.
type LocalPTY struct {
	cmd    *exec.Cmd
	master *os.File
	pgid   int

	mu      sync.Mutex // serializes writes to master
	running int32      // atomic bool: 1 while the child is believed alive
	closed  int32      // atomic bool: 1 once Close has run
}

// Start spawns command (with args) attached to a fresh PTY and a fresh
// session, so the child becomes its own process group leader and can be
// signaled as a group without touching unrelated processes.
func Start(command string, args []string) (*LocalPTY, error) {
	cmd := exec.Command(command, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	master, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("member: spawn %s: %w", command, err)
	}

	p := &LocalPTY{
		cmd:    cmd,
		master: master,
		pgid:   cmd.Process.Pid, // Setsid => pgid == pid
	}
	atomic.StoreInt32(&p.running, 1)

	go func() {
		// cmd.Wait reaps the child once it exits; IsRunning's probe is
		// then just a cheap atomic read instead of repeated WNOHANG
		// syscalls.
		err := cmd.Wait()
		atomic.StoreInt32(&p.running, 0)
		logger.Printf(logger.DBG, "[member] %s (pid %d) exited: %v", command, p.pgid, err)
	}()
	return p, nil
}

// Reader exposes the PTY master for output consumption (by `mm join`'s
// stdout-forwarding loop, or by tests asserting on echoed input).
func (p *LocalPTY) Reader() *bufio.Reader {
	return bufio.NewReader(p.master)
}

// WriteLine implements PTY.
func (p *LocalPTY) WriteLine(text string) error {
	if atomic.LoadInt32(&p.closed) == 1 {
		return mmerr.ErrPtyClosed
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.master.WriteString(text); err != nil {
		return err
	}
	time.Sleep(interWriteDelay)
	_, err := p.master.Write([]byte{'\r'})
	return err
}

// WriteRaw implements PTY.
func (p *LocalPTY) WriteRaw(data []byte) (int, error) {
	if atomic.LoadInt32(&p.closed) == 1 {
		return 0, mmerr.ErrPtyClosed
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.master.Write(data)
}

// IsRunning implements PTY.
func (p *LocalPTY) IsRunning() bool {
	return atomic.LoadInt32(&p.running) == 1
}

// Close implements PTY, escalating signals against the child's process
// group: Ctrl-C on the PTY, then SIGINT, SIGTERM, SIGKILL, each given
// escalationStep to take effect before trying the next.
func (p *LocalPTY) Close() error {
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		return nil
	}
	defer p.master.Close()

	if !p.IsRunning() {
		return nil
	}
	// WriteRaw refuses once closed is set, so write Ctrl-C directly.
	p.mu.Lock()
	_, _ = p.master.Write([]byte{0x03})
	p.mu.Unlock()
	if p.waitExit(escalationStep) {
		return nil
	}
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL} {
		_ = syscall.Kill(-p.pgid, sig)
		if p.waitExit(escalationStep) {
			return nil
		}
	}
	return fmt.Errorf("member: process group %d survived SIGKILL", p.pgid)
}

func (p *LocalPTY) waitExit(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !p.IsRunning() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return !p.IsRunning()
}

// Command implements Introspectable.
func (p *LocalPTY) Command() (string, bool) {
	if p.cmd == nil {
		return "", false
	}
	return strings.Join(p.cmd.Args, " "), true
}

// Cwd implements Introspectable by reading /proc/<pid>/cwd. Returns false
// on any platform or error where that link cannot be resolved.
func (p *LocalPTY) Cwd() (string, bool) {
	if !p.IsRunning() {
		return "", false
	}
	link, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", p.pgid))
	if err != nil {
		return "", false
	}
	return link, true
}

// ForegroundProcess implements Introspectable by reading the foreground
// process group's leader comm name out of /proc, best-effort.
func (p *LocalPTY) ForegroundProcess() (string, bool) {
	if !p.IsRunning() {
		return "", false
	}
	fpgid, err := unixTcGetpgrp(p.master.Fd())
	if err != nil {
		return "", false
	}
	comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", fpgid))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(comm)), true
}
