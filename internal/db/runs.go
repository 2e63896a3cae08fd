package db

import (
	"context"
	"time"

	"github.com/ktox-dev/pterodactyl-git-webhook/internal/errors"
)

// Run records one processed trigger and its aggregated outcome
type Run struct {
	ID         string    `db:"id" json:"id"`
	Ref        string    `db:"ref" json:"ref,omitempty"`
	HeadCommit string    `db:"head_commit" json:"head_commit,omitempty"`
	Success    bool      `db:"success" json:"success"`
	Container  string    `db:"container" json:"container,omitempty"`
	Message    string    `db:"message" json:"message"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}

// RunStore defines the interface for run-history operations
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}

// RunRepository handles database operations for runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// CreateRun inserts one run record
func (r *RunRepository) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (id, ref, head_commit, success, container, message, started_at, finished_at)
		VALUES (:id, :ref, :head_commit, :success, :container, :message, :started_at, :finished_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return errors.DatabaseQueryError("create run", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, ref, head_commit, success, container, message, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	var runs []*Run
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, errors.DatabaseQueryError("list runs", err)
	}
	return runs, nil
}
