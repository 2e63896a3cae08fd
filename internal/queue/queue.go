// Package queue hands validated webhook triggers to a single long-lived
// worker. Git working trees and remote refs are not safe for concurrent
// mutation, so one worker draining a FIFO channel is the correctness
// mechanism: triggers run strictly in arrival order and never interleave.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/db"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/engine"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/errors"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
)

// Trigger is one accepted push notification waiting for the worker
type Trigger struct {
	ID         string
	Ref        string
	HeadCommit string
	ReceivedAt time.Time
}

// NewTrigger creates a trigger with a fresh run ID
func NewTrigger(ref, headCommit string) Trigger {
	return Trigger{
		ID:         xid.New().String(),
		Ref:        ref,
		HeadCommit: headCommit,
		ReceivedAt: time.Now().UTC(),
	}
}

// Processor runs one full synchronization pass (satisfied by
// engine.Orchestrator)
type Processor interface {
	ProcessAll(ctx context.Context) engine.Outcome
}

// Dispatcher owns the trigger channel and the worker goroutine
type Dispatcher struct {
	processor Processor
	store     db.RunStore
	notify    func(*db.Run)
	triggers  chan Trigger
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given queue capacity. store
// and notify may be nil; outcomes are then only logged.
func NewDispatcher(processor Processor, store db.RunStore, size int) *Dispatcher {
	return &Dispatcher{
		processor: processor,
		store:     store,
		triggers:  make(chan Trigger, size),
	}
}

// SetNotifier registers a callback invoked with every completed run record.
// Must be called before Start.
func (d *Dispatcher) SetNotifier(notify func(*db.Run)) {
	d.notify = notify
}

// Enqueue adds a trigger to the queue without blocking. A full queue
// rejects the trigger; the webhook will fire again on the next push.
func (d *Dispatcher) Enqueue(t Trigger) error {
	select {
	case d.triggers <- t:
		logger.WithFields(logger.Fields{
			"run_id": t.ID,
			"ref":    t.Ref,
			"depth":  len(d.triggers),
		}).Info("Trigger queued")
		return nil
	default:
		return errors.QueueFull()
	}
}

// Depth returns the number of triggers waiting for the worker
func (d *Dispatcher) Depth() int {
	return len(d.triggers)
}

// Start launches the worker goroutine. It drains one trigger at a time
// until ctx is cancelled; a run in progress completes before the worker
// observes cancellation.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-d.triggers:
				// A started run proceeds to completion; shutdown must not
				// kill git commands mid-pipeline
				d.process(context.WithoutCancel(ctx), t)
			}
		}
	}()
}

// Wait blocks until the worker has exited
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// RunNow processes one trigger synchronously, bypassing the queue.
// Used by the one-shot CLI sync path; the caller owns serialization.
func (d *Dispatcher) RunNow(ctx context.Context, t Trigger) engine.Outcome {
	return d.process(ctx, t)
}

// process runs one trigger to completion and records the outcome
func (d *Dispatcher) process(ctx context.Context, t Trigger) engine.Outcome {
	started := time.Now().UTC()
	outcome := d.processor.ProcessAll(ctx)
	finished := time.Now().UTC()

	run := &db.Run{
		ID:         t.ID,
		Ref:        t.Ref,
		HeadCommit: t.HeadCommit,
		Success:    outcome.Success,
		Container:  outcome.Container,
		Message:    outcome.Message,
		StartedAt:  started,
		FinishedAt: finished,
	}

	entry := logger.WithFields(logger.Fields{
		"run_id":      t.ID,
		"success":     outcome.Success,
		"duration_ms": finished.Sub(started).Milliseconds(),
	})
	if outcome.Success {
		entry.Info("Run completed")
	} else {
		entry.WithField("container", outcome.Container).Error("Run failed")
	}

	if d.store != nil {
		if err := d.store.CreateRun(ctx, run); err != nil {
			logger.WithError(err).Warn("Failed to record run")
		}
	}
	if d.notify != nil {
		d.notify(run)
	}

	return outcome
}
