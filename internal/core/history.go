package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// History persists a summary row per completed run. It is optional: with a
// nil pool every method is a no-op, so one-shot CLI runs need no database.
type History struct {
	pool *pgxpool.Pool
}

// HistoryEntry is one recorded run.
type HistoryEntry struct {
	RunID         string    `json:"run_id"`
	Source        string    `json:"source"`
	MasterName    string    `json:"master_name"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	MasterRows    int       `json:"master_rows"`
	IncomingRows  int       `json:"incoming_rows"`
	OutputRecords int       `json:"output_records"`
	DurationMs    int64     `json:"duration_ms"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// NewHistory creates a History backed by pool. pool may be nil.
func NewHistory(pool *pgxpool.Pool) *History {
	return &History{pool: pool}
}

// Enabled reports whether history persistence is configured.
func (h *History) Enabled() bool {
	return h.pool != nil
}

// Init creates the runs table when it does not exist yet.
func (h *History) Init(ctx context.Context) error {
	if h.pool == nil {
		return nil
	}

	_, err := h.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id         uuid PRIMARY KEY,
			source         text NOT NULL,
			master_name    text NOT NULL DEFAULT '',
			status         text NOT NULL DEFAULT 'complete',
			error          text NOT NULL DEFAULT '',
			master_rows    integer NOT NULL DEFAULT 0,
			incoming_rows  integer NOT NULL DEFAULT 0,
			output_records integer NOT NULL DEFAULT 0,
			duration_ms    bigint NOT NULL DEFAULT 0,
			started_at     timestamptz NOT NULL DEFAULT now(),
			finished_at    timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("creating runs table: %w", err)
	}
	return nil
}

// Record inserts one completed run.
func (h *History) Record(ctx context.Context, result *RunResult) error {
	if h.pool == nil {
		return nil
	}

	_, err := h.pool.Exec(ctx, `
		INSERT INTO runs (run_id, source, master_name, status, master_rows, incoming_rows, output_records, duration_ms, started_at, finished_at)
		VALUES ($1, $2, $3, 'complete', $4, $5, $6, $7, $8, $9)`,
		result.RunID,
		result.Source,
		result.MasterName,
		result.Stats.MasterRows,
		result.Stats.IncomingRows,
		result.Stats.OutputRecords,
		result.Duration.Milliseconds(),
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// RecordFailure inserts one failed or cancelled run.
func (h *History) RecordFailure(ctx context.Context, runID, source, masterName, status string, startedAt time.Time, runErr error) error {
	if h.pool == nil {
		return nil
	}

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}

	_, err := h.pool.Exec(ctx, `
		INSERT INTO runs (run_id, source, master_name, status, error, duration_ms, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		runID,
		source,
		masterName,
		status,
		msg,
		time.Since(startedAt).Milliseconds(),
		startedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (h *History) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if h.pool == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := h.pool.Query(ctx, `
		SELECT run_id, source, master_name, status, error, master_rows, incoming_rows, output_records, duration_ms, started_at, finished_at
		FROM runs
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.RunID,
			&e.Source,
			&e.MasterName,
			&e.Status,
			&e.Error,
			&e.MasterRows,
			&e.IncomingRows,
			&e.OutputRecords,
			&e.DurationMs,
			&e.StartedAt,
			&e.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading runs: %w", err)
	}

	return entries, nil
}
