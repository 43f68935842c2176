package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store persists recorded runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// RunSummary describes one recorded run.
type RunSummary struct {
	ID        string
	Label     string
	StartedAt time.Time
	Frames    int
	Samples   int
}

// Sample is one recorded telemetry item.
type Sample struct {
	Frame int
	Key   string
	Value string
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_run_id ON samples(run_id);`,
	}
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRecorder registers a new run and returns a sink that stores each frame under it.
func (s *Store) NewRecorder(ctx context.Context, label string) (*Recorder, error) {
	r := &Recorder{
		store: s,
		runID: xid.New().String(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, label, started_at) VALUES (?, ?, ?)`,
		r.runID, label, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	r.Buffer = NewBuffer(r.write)
	return r, nil
}

// Runs lists recorded runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.label, r.started_at,
			COUNT(DISTINCT s.frame), COUNT(s.run_id)
		FROM runs r LEFT JOIN samples s ON s.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var started string
		if err := rows.Scan(&rs.ID, &rs.Label, &started, &rs.Frames, &rs.Samples); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rs.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// Samples returns the recorded items of a run in recording order.
func (s *Store) Samples(ctx context.Context, runID string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT frame, key, value FROM samples WHERE run_id = ? ORDER BY frame, seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var sm Sample
		if err := rows.Scan(&sm.Frame, &sm.Key, &sm.Value); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Recorder is a sink that stores every frame of one run.
type Recorder struct {
	*Buffer
	store *Store
	runID string
	frame int
}

// RunID returns the id the run is recorded under.
func (r *Recorder) RunID() string {
	return r.runID
}

func (r *Recorder) write(items []Item) error {
	ctx := context.Background()
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (run_id, frame, seq, key, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, r.runID, r.frame, i, it.Key, it.Value); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert sample: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.frame++
	return nil
}
