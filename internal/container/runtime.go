// Package container reaches into Pterodactyl server containers through the
// docker CLI. It is the only place commands are spawned; everything above it
// sees exit codes and captured output, never processes.
package container

import (
	"context"
	"os/exec"
)

// ExecResult carries the outcome of one command run inside a container.
// A non-zero ExitCode is the normal reporting channel for Git and
// filesystem failures; it is data, not a Go error.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Failed reports whether the command exited non-zero
func (r ExecResult) Failed() bool {
	return r.ExitCode != 0
}

// Runtime executes commands inside containers addressed by identity.
// Implementations must block until the command completes and must return a
// Go error only for spawn-level failures (runtime missing, container gone),
// never for a non-zero exit of the command itself.
type Runtime interface {
	// Exec runs argv inside the container as its default user
	Exec(ctx context.Context, containerID string, argv []string) (ExecResult, error)

	// ExecAsUser runs argv inside the container as the given user.
	// Used for remediations that need privileges the service account lacks.
	ExecAsUser(ctx context.Context, containerID, user string, argv []string) (ExecResult, error)

	// IsAvailable checks if the runtime is reachable on the system
	IsAvailable(ctx context.Context) bool
}

// CommandExecutor interface for spawning commands (allows mocking in tests)
type CommandExecutor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommandExecutor implements CommandExecutor using standard exec
type DefaultCommandExecutor struct{}

func (e *DefaultCommandExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
