// Package app wires the configuration, container runtime, sync engine,
// queue and HTTP server together. Construction is explicit: every component
// receives its dependencies here, nothing reaches for ambient state.
package app

import (
	"context"
	"fmt"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/config"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/constants"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/container"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/db"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/engine"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/gitops"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/logger"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/queue"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/remedy"
	"github.com/ktox-dev/pterodactyl-git-webhook/internal/server"
)

// App holds the constructed components of the service
type App struct {
	Config  *config.Config
	Runtime container.Runtime
	Engine  *engine.Orchestrator
}

// New loads the configuration and builds the synchronization engine
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.SetLevel(cfg.Server.LogLevel)

	runtime := container.NewDockerRuntime(nil)
	runner := remedy.NewRunner(runtime, cfg.Git.Owner)
	ops := gitops.New(runner, cfg.Git.Name, cfg.Git.Email)

	return &App{
		Config:  cfg,
		Runtime: runtime,
		Engine:  engine.New(ops, cfg),
	}, nil
}

// Serve runs the webhook listener and the sync worker until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	database, runs, err := a.openRunStore()
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
	}

	dispatcher := queue.NewDispatcher(a.Engine, runs, constants.DefaultQueueSize)
	srv := server.New(a.Config, dispatcher, a.Runtime, database, runs)
	dispatcher.SetNotifier(srv.Hub().Broadcast)

	dispatcher.Start(ctx)
	defer dispatcher.Wait()

	return srv.Start(ctx)
}

// SyncOnce performs a single synchronization run of all containers,
// recording it in the run history when the store is reachable
func (a *App) SyncOnce(ctx context.Context) engine.Outcome {
	database, runs, err := a.openRunStore()
	if err != nil {
		logger.WithError(err).Warn("Run history unavailable, continuing without it")
		runs = nil
	}
	if database != nil {
		defer database.Close()
	}

	dispatcher := queue.NewDispatcher(a.Engine, runs, 1)
	return dispatcher.RunNow(ctx, queue.NewTrigger("", ""))
}

// openRunStore opens the sqlite store and applies migrations
func (a *App) openRunStore() (*db.DB, db.RunStore, error) {
	dbPath, err := a.Config.DatabasePath()
	if err != nil {
		return nil, nil, err
	}

	database, err := db.New(db.DefaultConfig(dbPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run store: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to migrate run store: %w", err)
	}

	return database, db.NewRunRepository(database), nil
}
