// Package history persists run reports to sqlite and answers the duplicate
// suppression queries the safety governor makes across runs.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the sqlite database holding runs and attempts.
type Store struct {
	db *sql.DB
}

// OpenDefault opens the store at ~/.jobpilot/jobpilot.db, creating the
// directory and schema as needed.
func OpenDefault() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".jobpilot")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create jobpilot directory: %w", err)
	}
	return Open(filepath.Join(dir, "jobpilot.db"))
}

// Open opens (or creates) the store at path with the sqlite pragmas the
// single-writer CLI needs.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		keyword TEXT NOT NULL,
		location TEXT,
		discovered INTEGER DEFAULT 0,
		scored INTEGER DEFAULT 0,
		submitted INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		aborted INTEGER DEFAULT 0,
		error TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		posting_id TEXT NOT NULL,
		title TEXT,
		company TEXT,
		score REAL DEFAULT 0,
		status TEXT NOT NULL,
		reason TEXT,
		started_at DATETIME,
		completed_at DATETIME,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
		CHECK(status IN ('submitted', 'failed', 'skipped', 'aborted'))
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_posting ON attempts(posting_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_status ON attempts(status);
	`
	_, err := db.Exec(schema)
	return err
}
