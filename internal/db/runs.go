package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const runColumns = `id, mode, template_id, resume_name, jd_source, jd_hash, status, job_id, pdf_url,
	error_kind, error_message, ats_score, started_at, completed_at`

// StartRun inserts a run in the running state.
func (db *DB) StartRun(ctx context.Context, in RunStart) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO pipeline_runs (id, mode, template_id, resume_name, jd_source, jd_hash, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		in.ID, in.Mode, in.TemplateID, in.ResumeName, nullable(in.JDSource), nullable(in.JDHash), RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run.
func (db *DB) FinishRun(ctx context.Context, id uuid.UUID, out RunFinish) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE pipeline_runs
		 SET status = $2, job_id = $3, pdf_url = $4, error_kind = $5, error_message = $6,
		     ats_score = $7, completed_at = NOW()
		 WHERE id = $1`,
		id, out.Status, nullable(out.JobID), nullable(out.PDFURL), nullable(out.ErrorKind),
		nullable(out.ErrorMessage), out.Score,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to finish run: run %s not found", id)
	}
	return nil
}

// GetRun returns a run by id, or nil when it does not exist.
func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := db.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM pipeline_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRecentRuns returns up to limit runs, newest first.
func (db *DB) ListRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Mode, &r.TemplateID, &r.ResumeName, &r.JDSource, &r.JDHash, &r.Status,
		&r.JobID, &r.PDFURL, &r.ErrorKind, &r.ErrorMessage, &r.Score, &r.StartedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
