// Package history persists one record per publish cycle in an append-only
// SQLite store. Version-control history remains the pipeline's only durable
// dependency; this store exists for operator visibility.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed publish cycle.
type Record struct {
	ID        int64
	CycleID   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string // success|noop|partial|failed|canceled
	Revision  string // empty when no revision was created
	Message   string
	Steps     map[string]time.Duration // per-step durations
	Pushes    []PushResult
}

// PushResult is the outcome of one remote push within a cycle.
type PushResult struct {
	Remote   string `json:"remote"`
	Success  bool   `json:"success"`
	Rejected bool   `json:"rejected,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Store is a SQLite-backed cycle history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history store at dbPath. Parent
// directories are created. Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		revision TEXT,
		message TEXT,
		steps TEXT,
		pushes TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cycles_started_at ON cycles(started_at);
	CREATE INDEX IF NOT EXISTS idx_cycles_outcome ON cycles(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Append records one completed cycle.
func (s *Store) Append(ctx context.Context, r Record) error {
	stepsJSON, err := json.Marshal(stepMillis(r.Steps))
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	pushesJSON, err := json.Marshal(r.Pushes)
	if err != nil {
		return fmt.Errorf("marshal pushes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cycles (cycle_id, started_at, duration_ms, outcome, revision, message, steps, pushes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CycleID, r.StartedAt.Unix(), r.Duration.Milliseconds(), r.Outcome, r.Revision, r.Message,
		string(stepsJSON), string(pushesJSON),
	)
	if err != nil {
		return fmt.Errorf("insert cycle record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_id, started_at, duration_ms, outcome, revision, message, steps, pushes
		 FROM cycles ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r          Record
			startedAt  int64
			durationMS int64
			stepsJSON  sql.NullString
			pushesJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.CycleID, &startedAt, &durationMS, &r.Outcome, &r.Revision, &r.Message, &stepsJSON, &pushesJSON); err != nil {
			return nil, fmt.Errorf("scan cycle record: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0).UTC()
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if stepsJSON.Valid && stepsJSON.String != "" {
			var millis map[string]int64
			if err := json.Unmarshal([]byte(stepsJSON.String), &millis); err == nil {
				r.Steps = stepsFromMillis(millis)
			}
		}
		if pushesJSON.Valid && pushesJSON.String != "" {
			_ = json.Unmarshal([]byte(pushesJSON.String), &r.Pushes)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func stepMillis(steps map[string]time.Duration) map[string]int64 {
	if steps == nil {
		return nil
	}
	out := make(map[string]int64, len(steps))
	for k, v := range steps {
		out[k] = v.Milliseconds()
	}
	return out
}

func stepsFromMillis(millis map[string]int64) map[string]time.Duration {
	out := make(map[string]time.Duration, len(millis))
	for k, v := range millis {
		out[k] = time.Duration(v) * time.Millisecond
	}
	return out
}
