package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockfeed/internal/model"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS import_runs (
	id            UUID PRIMARY KEY,
	kind          TEXT NOT NULL,
	status        TEXT NOT NULL,
	rows_read     INTEGER NOT NULL DEFAULT 0,
	rows_kept     INTEGER NOT NULL DEFAULT 0,
	rows_inserted BIGINT NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ
)
`

// RunRepository keeps the ledger of download and import runs.
type RunRepository struct {
	DB *sql.DB
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, runsSchema); err != nil {
		return fmt.Errorf("failed to create import_runs schema: %w", err)
	}
	return nil
}

// Start records a new run in the running state.
func (r *RunRepository) Start(ctx context.Context, kind model.RunKind) (model.ImportRun, error) {
	run := model.ImportRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO import_runs (id, kind, status, started_at)
		VALUES ($1, $2, $3, $4)
	`, run.ID, string(run.Kind), string(run.Status), run.StartedAt)
	if err != nil {
		return model.ImportRun{}, fmt.Errorf("failed to record run start: %w", err)
	}
	return run, nil
}

// Finish stores the final status and counters of run.
func (r *RunRepository) Finish(ctx context.Context, run model.ImportRun) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	_, err := r.DB.ExecContext(ctx, `
		UPDATE import_runs
		SET status = $1, rows_read = $2, rows_kept = $3, rows_inserted = $4, error = $5, finished_at = $6
		WHERE id = $7
	`, string(run.Status), run.RowsRead, run.RowsKept, run.RowsInserted, run.Error, finished, run.ID)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// Recent lists the latest runs, newest first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]model.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, kind, status, rows_read, rows_kept, rows_inserted, error, started_at, finished_at
		FROM import_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]model.ImportRun, 0)
	for rows.Next() {
		var (
			run      model.ImportRun
			kind     string
			status   string
			finished sql.NullTime
		)
		if err := rows.Scan(&run.ID, &kind, &status, &run.RowsRead, &run.RowsKept, &run.RowsInserted, &run.Error, &run.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Kind = model.RunKind(kind)
		run.Status = model.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
