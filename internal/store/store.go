// Package store caches rendered sketches in a sqlite database, keyed by
// a run id and the sub's Tid, using database/sql over
// modernc.org/sqlite's pure-Go driver rather than a cgo binding.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/typesketch/tysketch/internal/sketch"
	"github.com/typesketch/tysketch/internal/sketchviz"
)

// Store is a sqlite-backed cache of rendered sketches.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and ensures
// its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sketches (
			run_id   TEXT NOT NULL,
			tid      TEXT NOT NULL,
			graphviz BLOB NOT NULL,
			PRIMARY KEY (run_id, tid)
		)
	`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// NewRun mints a fresh run id to group a batch of sketches built together.
func NewRun() string { return uuid.NewString() }

// Put renders sk as Graphviz and persists it under (runID, tid), replacing
// any prior entry for the same key.
func (s *Store) Put(ctx context.Context, runID, tid string, sk *sketch.Sketch) error {
	rendered := sketchviz.Graphviz(sk)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sketches (run_id, tid, graphviz) VALUES (?, ?, ?)
		ON CONFLICT (run_id, tid) DO UPDATE SET graphviz = excluded.graphviz
	`, runID, tid, []byte(rendered))
	if err != nil {
		return fmt.Errorf("store: put %s/%s: %w", runID, tid, err)
	}
	return nil
}

// Get returns the Graphviz rendering previously stored under (runID, tid).
func (s *Store) Get(ctx context.Context, runID, tid string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT graphviz FROM sketches WHERE run_id = ? AND tid = ?
	`, runID, tid)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: get %s/%s: %w", runID, tid, err)
	}
	return string(data), true, nil
}

// ListRun returns every tid cached under runID, sorted by tid.
func (s *Store) ListRun(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tid FROM sketches WHERE run_id = ? ORDER BY tid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", runID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tid string
		if err := rows.Scan(&tid); err != nil {
			return nil, fmt.Errorf("store: list %s: %w", runID, err)
		}
		out = append(out, tid)
	}
	return out, rows.Err()
}
