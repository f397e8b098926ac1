// Package db provides PostgreSQL storage for tailoring run history.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS tailoring_runs (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	status          TEXT NOT NULL DEFAULT 'running',
	job_source      TEXT NOT NULL,
	resume_filename TEXT NOT NULL,
	draft_tex_path  TEXT,
	final_tex_path  TEXT,
	pdf_path        TEXT,
	error_message   TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS tailoring_runs_created_at_idx ON tailoring_runs (created_at DESC);
`

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the runs table if it does not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateRun records the start of a tailoring run and returns its ID
func (db *DB) CreateRun(ctx context.Context, jobSource, resumeFilename string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO tailoring_runs (job_source, resume_filename, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		jobSource, resumeFilename,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as completed and records its artifact paths
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, artifacts ArtifactPaths) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tailoring_runs
		 SET status = $1, draft_tex_path = $2, final_tex_path = $3, pdf_path = $4, completed_at = NOW()
		 WHERE id = $5`,
		StatusCompleted, artifacts.DraftTex, artifacts.FinalTex, artifacts.PDF, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// FailRun marks a run as failed with an error message
func (db *DB) FailRun(ctx context.Context, runID uuid.UUID, message string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE tailoring_runs SET status = $1, error_message = $2, completed_at = NOW() WHERE id = $3`,
		StatusFailed, message, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when no run matches.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	var draft, final, pdf, errMsg *string
	err := db.pool.QueryRow(ctx,
		`SELECT id, status, job_source, resume_filename, draft_tex_path, final_tex_path, pdf_path, error_message, created_at, completed_at
		 FROM tailoring_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Status, &run.JobSource, &run.ResumeFilename, &draft, &final, &pdf, &errMsg, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	assignOptional(&run, draft, final, pdf, errMsg)
	return &run, nil
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Status string
	Limit  int
}

// ListRuns retrieves recent runs, newest first
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT id, status, job_source, resume_filename, draft_tex_path, final_tex_path, pdf_path, error_message, created_at, completed_at
		FROM tailoring_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var draft, final, pdf, errMsg *string
		if err := rows.Scan(&run.ID, &run.Status, &run.JobSource, &run.ResumeFilename, &draft, &final, &pdf, &errMsg, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		assignOptional(&run, draft, final, pdf, errMsg)
		runs = append(runs, run)
	}
	return runs, nil
}

// DeleteRun deletes a run record
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM tailoring_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

func assignOptional(run *Run, draft, final, pdf, errMsg *string) {
	if draft != nil {
		run.DraftTexPath = *draft
	}
	if final != nil {
		run.FinalTexPath = *final
	}
	if pdf != nil {
		run.PDFPath = *pdf
	}
	if errMsg != nil {
		run.ErrorMessage = *errMsg
	}
}
