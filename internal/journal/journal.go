// File: internal/journal/journal.go

// Package journal keeps a local record of posting attempts: one row per
// attempt with the per-field outcomes and the final result. The UI layers
// surface this history; the journal is the core-side source of it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS attempts (
    id            TEXT PRIMARY KEY,
    target        TEXT NOT NULL,
    title         TEXT NOT NULL,
    filled_title  INTEGER NOT NULL,
    filled_price  INTEGER NOT NULL,
    filled_desc   INTEGER NOT NULL,
    filled_photos INTEGER NOT NULL,
    success       INTEGER NOT NULL,
    requires_login INTEGER NOT NULL,
    error         TEXT NOT NULL DEFAULT '',
    started_at    TIMESTAMP NOT NULL,
    finished_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_target ON attempts(target, started_at);
`

// Attempt is one journal row.
type Attempt struct {
	ID            string
	Target        string
	Title         string
	FilledTitle   bool
	FilledPrice   bool
	FilledDesc    bool
	FilledPhotos  bool
	Success       bool
	RequiresLogin bool
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Journal is the sqlite-backed attempt store.
type Journal struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the journal database at path.
func Open(path string, logger *zap.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal db: %w", err)
	}
	// A single writer keeps sqlite happy under the attempt serialization the
	// controller already enforces.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply journal schema: %w", err)
	}
	return &Journal{db: db, logger: logger.Named("journal")}, nil
}

// Record inserts one attempt row.
func (j *Journal) Record(ctx context.Context, a Attempt) error {
	_, err := j.db.ExecContext(ctx, `
        INSERT INTO attempts
            (id, target, title, filled_title, filled_price, filled_desc, filled_photos,
             success, requires_login, error, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Target, a.Title,
		boolToInt(a.FilledTitle), boolToInt(a.FilledPrice), boolToInt(a.FilledDesc), boolToInt(a.FilledPhotos),
		boolToInt(a.Success), boolToInt(a.RequiresLogin), a.Error,
		a.StartedAt.UTC(), a.FinishedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts for a target, newest first. An empty
// target returns attempts across all targets.
func (j *Journal) Recent(ctx context.Context, target string, limit int) ([]Attempt, error) {
	query := `
        SELECT id, target, title, filled_title, filled_price, filled_desc, filled_photos,
               success, requires_login, error, started_at, finished_at
        FROM attempts`
	args := []any{}
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var ft, fp, fd, fph, succ, rl int
		if err := rows.Scan(&a.ID, &a.Target, &a.Title, &ft, &fp, &fd, &fph,
			&succ, &rl, &a.Error, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt row: %w", err)
		}
		a.FilledTitle, a.FilledPrice, a.FilledDesc, a.FilledPhotos = ft != 0, fp != 0, fd != 0, fph != 0
		a.Success, a.RequiresLogin = succ != 0, rl != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
