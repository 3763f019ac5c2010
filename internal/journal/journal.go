// Package journal persists settled action outcomes in SQLite so mode
// behavior can be inspected after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dohr-michael/reflex/internal/behavior"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	action_id   TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	duration_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS outcomes_by_mode ON outcomes(mode, finished_at);
`

// Store is the SQLite-backed outcome journal. It implements
// behavior.Recorder.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at path and ensures the
// outcomes table exists. The caller is responsible for calling Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Record persists one settled outcome.
func (s *Store) Record(ctx context.Context, rec behavior.OutcomeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes
			(action_id, mode, reason, status, message, started_at, finished_at, duration_ns)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.ActionID, rec.Mode, rec.Trigger, string(rec.Status), rec.Message,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(), int64(rec.Duration),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Recent returns the latest outcomes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]behavior.OutcomeRecord, error) {
	return s.query(ctx, `
		SELECT action_id, mode, reason, status, message, started_at, finished_at, duration_ns
		FROM outcomes ORDER BY finished_at DESC, rowid DESC LIMIT ?`, limit)
}

// ByMode returns the latest outcomes for one mode, newest first.
func (s *Store) ByMode(ctx context.Context, mode string, limit int) ([]behavior.OutcomeRecord, error) {
	return s.query(ctx, `
		SELECT action_id, mode, reason, status, message, started_at, finished_at, duration_ns
		FROM outcomes WHERE mode = ? ORDER BY finished_at DESC, rowid DESC LIMIT ?`, mode, limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]behavior.OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var recs []behavior.OutcomeRecord
	for rows.Next() {
		var rec behavior.OutcomeRecord
		var status string
		var durationNS int64
		err := rows.Scan(
			&rec.ActionID, &rec.Mode, &rec.Trigger, &status, &rec.Message,
			&rec.StartedAt, &rec.FinishedAt, &durationNS,
		)
		if err != nil {
			return nil, err
		}
		rec.Status = behavior.OutcomeStatus(status)
		rec.Duration = time.Duration(durationNS)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
