// Package gitops provides the catalog of named Git actions the sync engine
// drives against a container's working tree. Every operation is idempotent,
// runs through the remediation layer, and reports a uniform Result instead
// of a Go error: callers branch on OK and log Detail, nothing more.
package gitops

import (
	"context"
	"fmt"
	"strings"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/container"
)

// Result is the uniform outcome of a Git operation. OK=false always carries
// a human-readable cause in Detail; OK=true may carry an informational note
// ("No changes to commit") that callers log but never branch on.
type Result struct {
	OK     bool
	Detail string
}

// noSubmoduleURL marks a submodule without a configured URL; updating past
// it is a benign skip, not a failure
const noSubmoduleURL = "No url found for submodule path"

// DetailNoChanges is the informational note a no-op commit reports
const DetailNoChanges = "No changes to commit"

// commandRunner is the remediating execution seam (satisfied by
// remedy.Runner, faked in tests)
type commandRunner interface {
	Run(ctx context.Context, containerID, repoRoot string, argv []string) (container.ExecResult, error)
}

// Service implements the Git operation catalog for container working trees
type Service struct {
	run   commandRunner
	name  string
	email string
}

// New creates the Git operation service. name and email become the commit
// identity configured before any commit.
func New(run commandRunner, name, email string) *Service {
	return &Service{
		run:   run,
		name:  name,
		email: email,
	}
}

// HasChanges reports whether the working tree at path has uncommitted
// changes to tracked files. A failed status check reads as "no changes";
// callers must tolerate the false-negative.
func (s *Service) HasChanges(ctx context.Context, containerID, path string) bool {
	result, err := s.run.Run(ctx, containerID, path, []string{"git", "-C", path, "status", "--porcelain", "-uno"})
	if err != nil || result.Failed() {
		return false
	}
	return strings.TrimSpace(result.Stdout) != ""
}

// ConfigureIdentity sets the repository-local commit identity
func (s *Service) ConfigureIdentity(ctx context.Context, containerID, path string) Result {
	if r := s.git(ctx, containerID, path, "config", "user.name", s.name); !r.OK {
		return r
	}
	return s.git(ctx, containerID, path, "config", "user.email", s.email)
}

// AddAll stages every change in the working tree
func (s *Service) AddAll(ctx context.Context, containerID, path string) Result {
	return s.git(ctx, containerID, path, "add", "-A")
}

// Commit records staged and unstaged changes with the given message. When
// the tree is clean it succeeds as a no-op with DetailNoChanges.
func (s *Service) Commit(ctx context.Context, containerID, path, message string) Result {
	if !s.HasChanges(ctx, containerID, path) {
		return Result{OK: true, Detail: DetailNoChanges}
	}
	if r := s.ConfigureIdentity(ctx, containerID, path); !r.OK {
		return r
	}
	if r := s.AddAll(ctx, containerID, path); !r.OK {
		return r
	}
	return s.git(ctx, containerID, path, "commit", "-m", message)
}

// Pull fetches and integrates the remote branch
func (s *Service) Pull(ctx context.Context, containerID, path, branch string) Result {
	return s.git(ctx, containerID, path, "pull", "origin", branch)
}

// Push publishes local commits to the remote branch
func (s *Service) Push(ctx context.Context, containerID, path, branch string) Result {
	return s.git(ctx, containerID, path, "push", "origin", branch)
}

// ResetHardAndClean discards every local change: hard reset to the remote
// branch followed by removal of untracked files and directories
func (s *Service) ResetHardAndClean(ctx context.Context, containerID, path, branch string) Result {
	if r := s.git(ctx, containerID, path, "reset", "--hard", "origin/"+branch); !r.OK {
		return r
	}
	return s.git(ctx, containerID, path, "clean", "-fd")
}

// SubmoduleUpdate checks out the recorded (or, with useRemote, the remote
// tracking) commit of every nested submodule. A submodule with no
// configured URL is reported as success carrying the warning text.
func (s *Service) SubmoduleUpdate(ctx context.Context, containerID, path string, useRemote bool) Result {
	argv := []string{"git", "-C", path, "submodule", "update", "--init", "--recursive"}
	if useRemote {
		argv = append(argv, "--remote", "--force")
	}

	result, err := s.run.Run(ctx, containerID, path, argv)
	if err != nil {
		return Result{Detail: err.Error()}
	}
	if result.Failed() {
		if strings.Contains(result.Stderr, noSubmoduleURL) {
			return Result{OK: true, Detail: strings.TrimSpace(result.Stderr)}
		}
		return Result{Detail: failureDetail(result)}
	}
	return Result{OK: true}
}

// CheckoutAndMerge puts the submodule on its branch and merges the
// previously checked out commit into it; the pre-push step for submodules
// whose workflow commits and pushes
func (s *Service) CheckoutAndMerge(ctx context.Context, containerID, path, branch string) Result {
	if r := s.git(ctx, containerID, path, "checkout", branch); !r.OK {
		return r
	}
	return s.git(ctx, containerID, path, "merge", "HEAD@{1}", branch)
}

// git runs one git subcommand rooted at path and folds the outcome into a Result
func (s *Service) git(ctx context.Context, containerID, path string, args ...string) Result {
	argv := append([]string{"git", "-C", path}, args...)
	result, err := s.run.Run(ctx, containerID, path, argv)
	if err != nil {
		return Result{Detail: err.Error()}
	}
	if result.Failed() {
		return Result{Detail: failureDetail(result)}
	}
	return Result{OK: true}
}

// failureDetail extracts the most useful cause text from a failed command
func failureDetail(result container.ExecResult) string {
	if detail := strings.TrimSpace(result.Stderr); detail != "" {
		return detail
	}
	if detail := strings.TrimSpace(result.Stdout); detail != "" {
		return detail
	}
	return fmt.Sprintf("command exited with code %d", result.ExitCode)
}
