package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/nunet/pkg/io"
)

// SQLiteStore keeps snapshots in one table of a SQLite database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	s := &SQLiteStore{path: path}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, snap io.Snapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := encode(snap)
	if err != nil {
		return err
	}
	e := entryOf(snap, time.Now())
	_, err = db.ExecContext(ctx, `
		INSERT INTO designs (id, name, neurons, synapses, updated_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			neurons = excluded.neurons,
			synapses = excluded.synapses,
			updated_at = excluded.updated_at,
			payload = excluded.payload
	`, e.ID.String(), e.Name, e.Neurons, e.Synapses, e.UpdatedAt.Unix(), payload)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (io.Snapshot, error) {
	db, err := s.getDB()
	if err != nil {
		return io.Snapshot{}, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM designs WHERE id = ?`, id.String()).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return io.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return io.Snapshot{}, err
	}
	snap, err := decode(payload)
	if err != nil {
		return io.Snapshot{}, fmt.Errorf("decode design %s: %w", id, err)
	}
	return snap, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM designs WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, neurons, synapses, updated_at
		FROM designs
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			id      string
			updated int64
		)
		if err := rows.Scan(&id, &e.Name, &e.Neurons, &e.Synapses, &updated); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("design id %q: %w", id, err)
		}
		e.UpdatedAt = time.Unix(updated, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is closed")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS designs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			neurons INTEGER NOT NULL,
			synapses INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS designs_name ON designs (name);
	`)
	return err
}

var _ Store = (*SQLiteStore)(nil)
