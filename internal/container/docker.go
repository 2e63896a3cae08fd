package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	apperrors "github.com/ktox-dev/pterodactyl-git-webhook/internal/errors"
)

// DockerRuntime implements Runtime through `docker exec`
type DockerRuntime struct {
	executor CommandExecutor
}

// NewDockerRuntime creates a new Docker runtime
func NewDockerRuntime(executor CommandExecutor) *DockerRuntime {
	if executor == nil {
		executor = &DefaultCommandExecutor{}
	}
	return &DockerRuntime{
		executor: executor,
	}
}

// IsAvailable checks if Docker is available on the system
func (r *DockerRuntime) IsAvailable(ctx context.Context) bool {
	cmd := r.executor.CommandContext(ctx, "docker", "--version")
	return cmd.Run() == nil
}

// Exec runs argv inside the container as its default user
func (r *DockerRuntime) Exec(ctx context.Context, containerID string, argv []string) (ExecResult, error) {
	return r.exec(ctx, containerID, "", argv)
}

// ExecAsUser runs argv inside the container as the given user
func (r *DockerRuntime) ExecAsUser(ctx context.Context, containerID, user string, argv []string) (ExecResult, error) {
	return r.exec(ctx, containerID, user, argv)
}

func (r *DockerRuntime) exec(ctx context.Context, containerID, user string, argv []string) (ExecResult, error) {
	if len(argv) == 0 {
		return ExecResult{}, fmt.Errorf("empty command for container %s", containerID)
	}

	args := []string{"exec"}
	if user != "" {
		args = append(args, "-u", user)
	}
	args = append(args, containerID)
	args = append(args, argv...)

	cmd := r.executor.CommandContext(ctx, "docker", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The command ran and exited non-zero; that is an ordinary
			// result for the layers above, not an error
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, apperrors.ContainerExecFailed(containerID, argv, err)
	}

	return result, nil
}
