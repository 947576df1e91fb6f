package history

import (
	"context"
	"fmt"
	"time"

	"github.com/khrees2412/jobpilot/pkg/models"
)

// SaveReport persists a completed run and its attempts in one transaction.
// Reports are written once at run completion and never mutated afterwards.
func (s *Store) SaveReport(ctx context.Context, report *models.RunReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, keyword, location, discovered, scored, submitted, failed, skipped, aborted, error, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Criteria.Keyword, report.Criteria.Location,
		report.Discovered, report.Scored,
		report.Submitted, report.Failed, report.Skipped, report.Aborted,
		report.Err, report.StartedAt, report.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, a := range report.Attempts {
		if !a.Status.Terminal() {
			return fmt.Errorf("attempt %s has non-terminal status %q", a.PostingID, a.Status)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO attempts (run_id, posting_id, title, company, score, status, reason, started_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, a.PostingID, a.Title, a.Company, a.Score,
			string(a.Status), a.Reason, a.StartedAt, a.CompletedAt)
		if err != nil {
			return fmt.Errorf("insert attempt %s: %w", a.PostingID, err)
		}
	}

	return tx.Commit()
}

// HasTerminalAttempt reports whether the posting already has a terminal
// attempt in any persisted run. Every stored attempt is terminal, so this is
// a simple existence check.
func (s *Store) HasTerminalAttempt(ctx context.Context, postingID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM attempts WHERE posting_id = ?`, postingID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	RunID       string
	Keyword     string
	Location    string
	Submitted   int
	Failed      int
	Skipped     int
	Aborted     int
	StartedAt   time.Time
	CompletedAt time.Time
}

// ListRuns returns past runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, keyword, location, submitted, failed, skipped, aborted, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Keyword, &r.Location, &r.Submitted, &r.Failed,
			&r.Skipped, &r.Aborted, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListAttempts returns the attempts of one run in insertion order.
func (s *Store) ListAttempts(ctx context.Context, runID string) ([]models.ApplicationAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT posting_id, title, company, score, status, reason, started_at, completed_at
		 FROM attempts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.ApplicationAttempt
	for rows.Next() {
		var a models.ApplicationAttempt
		var status string
		if err := rows.Scan(&a.PostingID, &a.Title, &a.Company, &a.Score, &status,
			&a.Reason, &a.StartedAt, &a.CompletedAt); err != nil {
			return nil, err
		}
		a.Status = models.AttemptStatus(status)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
