package engine

import (
	"context"
	"path"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/config"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/gitops"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
)

// processContainer runs the policy-gated pipeline for one container: the
// submodule pass first, then the main repository stages. Every stage runs
// at most once; the first operation reporting a failure aborts the whole
// container run with that failure.
func (o *Orchestrator) processContainer(ctx context.Context, ct config.Container, wf config.Workflow) gitops.Result {
	if wf.SubmoduleUpdate && len(ct.Submodules) > 0 {
		for _, sm := range ct.Submodules {
			if result := o.processSubmodule(ctx, ct, wf, sm); !result.OK {
				return result
			}
		}
	}
	return o.processMainRepo(ctx, ct, wf)
}

// processSubmodule synchronizes one nested repository. Submodules without
// local changes under a non-publishing workflow only pull; otherwise the
// commit/pull/merge/push sequence runs as far as the workflow allows.
func (o *Orchestrator) processSubmodule(ctx context.Context, ct config.Container, wf config.Workflow, sm config.Submodule) gitops.Result {
	// Submodule paths are relative; the container filesystem is the anchor
	smPath := path.Join(ct.RepoRoot, sm.Path)
	log := logger.WithFields(logger.Fields{
		"container": ct.Name,
		"submodule": sm.Path,
	})

	changed := o.ops.HasChanges(ctx, ct.ID, smPath)

	if !changed && !wf.SubmoduleCommitPush {
		if result := o.ops.Pull(ctx, ct.ID, smPath, sm.Branch); !result.OK {
			return result
		}
		log.Info("Submodule pulled (no local changes)")
		return gitops.Result{OK: true}
	}

	if wf.Commit && changed {
		result := o.ops.Commit(ctx, ct.ID, smPath, o.commitMsg)
		if !result.OK {
			return result
		}
		log.Info("Submodule changes committed")
	}

	if wf.Pull {
		if result := o.ops.Pull(ctx, ct.ID, smPath, sm.Branch); !result.OK {
			return result
		}
		log.Info("Submodule pulled")
	}

	if wf.Push && wf.SubmoduleCommitPush {
		if result := o.ops.CheckoutAndMerge(ctx, ct.ID, smPath, sm.Branch); !result.OK {
			return result
		}
		if result := o.ops.Push(ctx, ct.ID, smPath, sm.Branch); !result.OK {
			return result
		}
		log.Info("Submodule pushed")
	}

	return gitops.Result{OK: true}
}

// processMainRepo runs the fixed-order main repository stages:
// reset, submodule update, commit, pull, push, each gated by the workflow
func (o *Orchestrator) processMainRepo(ctx context.Context, ct config.Container, wf config.Workflow) gitops.Result {
	log := logger.WithField("container", ct.Name)

	if wf.ResetOnChanges && o.ops.HasChanges(ctx, ct.ID, ct.RepoRoot) {
		if result := o.ops.ResetHardAndClean(ctx, ct.ID, ct.RepoRoot, ct.Branch); !result.OK {
			return result
		}
		log.Info("Local changes reset")
	}

	if wf.SubmoduleUpdate && len(ct.Submodules) > 0 {
		result := o.ops.SubmoduleUpdate(ctx, ct.ID, ct.RepoRoot, wf.SubmoduleRemote)
		if !result.OK {
			return result
		}
		if result.Detail != "" {
			log.WithField("detail", result.Detail).Warn("Submodule update skipped entries")
		} else {
			log.Info("Submodules updated")
		}
	}

	if wf.Commit {
		result := o.ops.Commit(ctx, ct.ID, ct.RepoRoot, o.commitMsg)
		if !result.OK {
			return result
		}
		if result.Detail == gitops.DetailNoChanges {
			log.Info("Nothing to commit")
		} else {
			log.Info("Changes committed")
		}
	}

	if wf.Pull {
		if result := o.ops.Pull(ctx, ct.ID, ct.RepoRoot, ct.Branch); !result.OK {
			return result
		}
		log.Info("Repository pulled")
	}

	if wf.Push {
		if result := o.ops.Push(ctx, ct.ID, ct.RepoRoot, ct.Branch); !result.OK {
			return result
		}
		log.Info("Repository pushed")
	}

	return gitops.Result{OK: true}
}
