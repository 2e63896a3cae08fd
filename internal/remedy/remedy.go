// Package remedy wraps command execution with one-shot recovery for a fixed
// set of known environment failures. Pterodactyl hosts routinely drift a
// container's repository into states git refuses to touch (ownership checks
// after host-side file operations, permissions reset by reinstalls, missing
// pull strategy); each has a single corrective command that makes the
// original command succeed on retry.
package remedy

import (
	"context"
	"strings"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/constants"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/container"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
)

// signature pairs a recognizable stderr fragment with its corrective
// command. The table is deliberately explicit so the full remediation
// surface is auditable in one place.
type signature struct {
	name  string
	match string
	// argv builds the corrective command for a repository root
	argv func(r *Runner, repoRoot string) []string
	// user is the account the corrective command runs as; empty means the
	// container's default user
	user string
}

var signatures = []signature{
	{
		name:  "dubious-ownership",
		match: "dubious ownership",
		argv: func(_ *Runner, repoRoot string) []string {
			return []string{"git", "config", "--global", "--add", "safe.directory", repoRoot}
		},
	},
	{
		name:  "permission-denied",
		match: "permission denied",
		argv: func(r *Runner, repoRoot string) []string {
			return []string{"chown", "-R", r.owner, repoRoot}
		},
		user: constants.RootUser,
	},
	{
		name:  "divergent-branches",
		match: "Need to specify how to reconcile divergent branches",
		argv: func(_ *Runner, _ string) []string {
			return []string{"git", "config", "--global", "pull.rebase", "true"}
		},
	},
}

// Runner executes commands in containers and recovers known failures once.
// It never loops: a failed command gets at most one remediation and one
// retry of the original argv, and the retry's stderr is not re-inspected.
type Runner struct {
	runtime container.Runtime
	// owner is the uid:gid the permission remediation restores
	owner string
}

// NewRunner creates a remediating runner on top of a container runtime
func NewRunner(runtime container.Runtime, owner string) *Runner {
	return &Runner{
		runtime: runtime,
		owner:   owner,
	}
}

// Run executes argv inside the container. On a non-zero exit whose stderr
// matches a known signature it applies the paired remediation once and
// re-issues the original argv exactly once; the second result is final
// either way. Remediation failures are logged and do not suppress the retry.
func (r *Runner) Run(ctx context.Context, containerID, repoRoot string, argv []string) (container.ExecResult, error) {
	result, err := r.runtime.Exec(ctx, containerID, argv)
	if err != nil {
		return result, err
	}
	if !result.Failed() {
		return result, nil
	}

	sig, ok := matchSignature(result.Stderr)
	if !ok {
		return result, nil
	}

	fix := sig.argv(r, repoRoot)
	logger.WithFields(logger.Fields{
		"container":   containerID,
		"remediation": sig.name,
		"command":     strings.Join(fix, " "),
	}).Info("Applying remediation for failed command")

	var fixResult container.ExecResult
	var fixErr error
	if sig.user != "" {
		fixResult, fixErr = r.runtime.ExecAsUser(ctx, containerID, sig.user, fix)
	} else {
		fixResult, fixErr = r.runtime.Exec(ctx, containerID, fix)
	}
	if fixErr != nil || fixResult.Failed() {
		// Still worth retrying the original command; the remediation may
		// have partially taken effect
		logger.WithFields(logger.Fields{
			"container":   containerID,
			"remediation": sig.name,
			"stderr":      fixResult.Stderr,
		}).Warn("Remediation command failed")
	}

	return r.runtime.Exec(ctx, containerID, argv)
}

// matchSignature returns the first signature whose fragment appears in stderr
func matchSignature(stderr string) (signature, bool) {
	for _, sig := range signatures {
		if strings.Contains(stderr, sig.match) {
			return sig, true
		}
	}
	return signature{}, false
}
