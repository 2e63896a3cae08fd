// Package engine drives the workflow-gated Git synchronization of container
// working trees. Given the validated configuration it processes containers
// strictly in order, one at a time, and reports a single aggregated outcome.
package engine

import (
	"context"
	"fmt"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/config"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/gitops"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
)

// GitOperations is the catalog of Git actions the engine drives (satisfied
// by gitops.Service, faked in tests)
type GitOperations interface {
	HasChanges(ctx context.Context, containerID, path string) bool
	Commit(ctx context.Context, containerID, path, message string) gitops.Result
	Pull(ctx context.Context, containerID, path, branch string) gitops.Result
	Push(ctx context.Context, containerID, path, branch string) gitops.Result
	ResetHardAndClean(ctx context.Context, containerID, path, branch string) gitops.Result
	SubmoduleUpdate(ctx context.Context, containerID, path string, useRemote bool) gitops.Result
	CheckoutAndMerge(ctx context.Context, containerID, path, branch string) gitops.Result
}

// Outcome aggregates one run across all containers. Container names the
// first failing container when Success is false.
type Outcome struct {
	Success   bool   `json:"success"`
	Container string `json:"container,omitempty"`
	Message   string `json:"message"`
}

// Orchestrator processes every configured container in configuration order.
// The first container whose sync fails terminates the run; containers
// already processed keep their results, containers not yet reached are
// skipped. Independent containers are intentionally not isolated from each
// other's failures.
type Orchestrator struct {
	ops       GitOperations
	cfg       *config.Config
	commitMsg string
}

// New creates an orchestrator over the validated configuration
func New(ops GitOperations, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		ops:       ops,
		cfg:       cfg,
		commitMsg: cfg.Webhook.Marker,
	}
}

// ProcessAll synchronizes every configured container and aggregates the
// result. This is the sole entry point the queue worker calls per trigger.
func (o *Orchestrator) ProcessAll(ctx context.Context) Outcome {
	for _, ct := range o.cfg.Containers {
		workflow, ok := o.cfg.ResolveWorkflow(ct.Workflow)
		if !ok {
			// Validation guarantees resolution; reaching this is an
			// invariant violation, never silently skipped
			detail := fmt.Sprintf("workflow %q is not defined", ct.Workflow)
			logger.WithFields(logger.Fields{
				"container": ct.Name,
				"error":     detail,
			}).Error("Container sync failed")
			return Outcome{Container: ct.Name, Message: detail}
		}

		if result := o.processContainer(ctx, ct, workflow); !result.OK {
			logger.WithFields(logger.Fields{
				"container": ct.Name,
				"error":     result.Detail,
			}).Error("Container sync failed")
			return Outcome{Container: ct.Name, Message: result.Detail}
		}

		logger.WithFields(logger.Fields{
			"container": ct.Name,
			"workflow":  ct.Workflow,
		}).Info("Container sync completed")
	}

	return Outcome{Success: true, Message: "all containers synchronized"}
}
