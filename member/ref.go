package member

import (
	"context"

	"github.com/bfix/mm/actor"
)

// Dispatcher is the subset of CommunitySystem's call surface a Ref needs to
// reach a (possibly remote) Member. Declared here, not imported from
// package system, so member has no dependency on the runtime that embeds it.
type Dispatcher interface {
	Call(ctx context.Context, id actor.ID, target string, args, result any) error
	CallVoid(ctx context.Context, id actor.ID, target string, args any) error
}

// Ref addresses a Member that may live on this host or a remote one. Every
// method routes through a Dispatcher, which decides locally whether that
// means a direct call or a wire round trip.
type Ref struct {
	ID actor.ID
	d  Dispatcher
}

// NewRef wraps id as a Member reference reachable through d.
func NewRef(id actor.ID, d Dispatcher) Ref {
	return Ref{ID: id, d: d}
}

// Tell injects text into the member's PTY.
func (r Ref) Tell(ctx context.Context, text string) error {
	return r.d.CallVoid(ctx, r.ID, "Member.Tell:1", [1]string{text})
}

// IsRunning reports whether the member's process is still alive.
func (r Ref) IsRunning(ctx context.Context) (bool, error) {
	var running bool
	err := r.d.Call(ctx, r.ID, "Member.IsRunning:1", nil, &running)
	return running, err
}

// GetName returns the member's registered name.
func (r Ref) GetName(ctx context.Context) (string, error) {
	var name string
	err := r.d.Call(ctx, r.ID, "Member.GetName:1", nil, &name)
	return name, err
}

// GetCommand returns the command the member was started with, if known.
func (r Ref) GetCommand(ctx context.Context) (string, bool, error) {
	var opt optionalString
	err := r.d.Call(ctx, r.ID, "Member.GetCommand:1", nil, &opt)
	return opt.Value, opt.Ok, err
}

// GetCwd returns the member's current working directory, if known.
func (r Ref) GetCwd(ctx context.Context) (string, bool, error) {
	var opt optionalString
	err := r.d.Call(ctx, r.ID, "Member.GetCwd:1", nil, &opt)
	return opt.Value, opt.Ok, err
}

// GetForegroundProcess returns the PTY's foreground process name, if known.
func (r Ref) GetForegroundProcess(ctx context.Context) (string, bool, error) {
	var opt optionalString
	err := r.d.Call(ctx, r.ID, "Member.GetForegroundProcess:1", nil, &opt)
	return opt.Value, opt.Ok, err
}

