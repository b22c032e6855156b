// Package store persists scene objects to a local SQLite database so an
// editing session survives restarts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/dshills/heliocanvas/internal/scene"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store closed")

// Store saves objects as JSON rows keyed by object ID.
// It implements edit.Persister.
type Store struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = MemoryPath
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Debug().Str("path", path).Msg("store opened")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS objects (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create objects table: %w", err)
	}
	return nil
}

// Save inserts or replaces obj.
func (s *Store) Save(ctx context.Context, obj scene.Object) error {
	if s.db == nil {
		return ErrClosed
	}
	data, err := scene.Encode(obj)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if data, err = sjson.SetBytes(data, "savedAt", now.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("stamp %s: %w", obj.ID(), err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO objects(id,kind,payload,updated_at) VALUES(?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		obj.ID().String(), string(obj.Kind()), data, now.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert %s: %w", obj.ID(), err)
	}
	s.logger.Debug().Str("id", obj.ID().String()).Str("kind", string(obj.Kind())).Msg("object saved")
	return nil
}

// Delete removes the object with id. Deleting a missing ID is not an error.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.logger.Debug().Str("id", id.String()).Msg("object deleted")
	return nil
}

// Load returns every stored object in the order it was first saved.
func (s *Store) Load(ctx context.Context) ([]scene.Object, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM objects ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var objs []scene.Object
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		obj, err := scene.Decode(payload)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return objs, nil
}

// Summary describes a stored object without decoding it.
type Summary struct {
	ID      string
	Kind    scene.Kind
	Name    string
	SavedAt time.Time
}

// List returns a summary of every stored object in the order it was first
// saved.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM objects ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("select objects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		fields := gjson.GetManyBytes(payload, "id", "kind", "properties.name", "savedAt")
		sum := Summary{
			ID:   fields[0].String(),
			Kind: scene.Kind(fields[1].String()),
			Name: fields[2].String(),
		}
		if t, err := time.Parse(time.RFC3339Nano, fields[3].String()); err == nil {
			sum.SavedAt = t
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return out, nil
}

// Count returns the number of stored objects.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM objects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	return n, nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database. Close is idempotent.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
