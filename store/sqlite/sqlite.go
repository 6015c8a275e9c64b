// Package sqlite implements a store backend on a single SQLite file.
//
// The backend doesn't keep a connection open. Every operation connects to the
// file, runs one statement and disconnects, so the only state it owns is the
// file path. Concurrent writers are serialized by SQLite's own locking.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"go.hackfix.me/dbmap/codec"
	"go.hackfix.me/dbmap/store"
)

const driverName = "sqlite"

// Store is a backend storing records in the "map" table of a SQLite file.
type Store struct {
	path        string
	layout      store.Layout
	logger      *slog.Logger
	busyTimeout time.Duration
	closed      atomic.Bool
}

var _ store.Backend = &Store{}

// Open creates the SQLite file at path if it doesn't exist, and ensures the
// map table exists with the column types of layout. Opening an existing file
// is a no-op beyond verifying that its layout matches. All failures match
// store.ErrUnavailable.
func Open(ctx context.Context, path string, layout store.Layout, opts ...Option) (*Store, error) {
	if path == "" || path == ":memory:" || strings.Contains(path, "mode=memory") {
		return nil, store.NewError("open", store.ErrUnavailable,
			fmt.Errorf("in-memory databases are not supported: '%s'", path))
	}

	s := &Store{
		path:        path,
		layout:      layout,
		logger:      slog.Default(),
		busyTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, store.NewError("open", store.ErrUnavailable, err)
		}
	}

	if err := s.init(ctx); err != nil {
		return nil, store.Wrap("open", store.ErrUnavailable, err)
	}

	return s, nil
}

// Path returns the path of the SQLite file.
func (s *Store) Path() string {
	return s.path
}

// Close marks the store as closed. There's no connection to release.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *Store) init(ctx context.Context) error {
	db, err := s.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err = db.ExecContext(ctx, `PRAGMA journal_mode = WAL`); err != nil {
		return fmt.Errorf("failed setting journal mode: %w", err)
	}

	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "map" (
			"key"   %s PRIMARY KEY NOT NULL,
			"value" %s NOT NULL
		)`, columnType(s.layout.Key), columnType(s.layout.Value))
	if _, err = db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed creating map table: %w", err)
	}

	if _, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS "map_value_idx" ON "map" ("value")`); err != nil {
		return fmt.Errorf("failed creating value index: %w", err)
	}

	if err = s.checkLayout(ctx, db); err != nil {
		return err
	}

	s.logger.Debug("opened SQLite store", "path", s.path, "layout", s.layout.String())

	return nil
}

// checkLayout verifies that the declared column types match the layout the
// store was opened with.
func (s *Store) checkLayout(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `SELECT name, type FROM pragma_table_info('map')`)
	if err != nil {
		return fmt.Errorf("failed reading map table schema: %w", err)
	}
	defer rows.Close()

	declared := map[string]string{}
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return fmt.Errorf("failed reading map table schema: %w", err)
		}
		declared[name] = strings.ToUpper(typ)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed reading map table schema: %w", err)
	}

	for col, format := range map[string]codec.Format{"key": s.layout.Key, "value": s.layout.Value} {
		typ, ok := declared[col]
		if !ok {
			return fmt.Errorf("map table has no '%s' column", col)
		}
		if typ != columnType(format) {
			return fmt.Errorf("payload format mismatch: column '%s' has type %s, expected %s",
				col, typ, columnType(format))
		}
	}

	return nil
}

// Set inserts value under key, or replaces the value if key already exists.
func (s *Store) Set(ctx context.Context, key, value []byte) error {
	const op = "set"
	db, err := s.begin(op)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `INSERT INTO "map" ("key", "value") VALUES (?, ?)
		ON CONFLICT ("key") DO UPDATE SET "value" = excluded."value"`,
		bind(s.layout.Key, key), bind(s.layout.Value, value))
	if err != nil {
		return store.NewError(op, store.ErrUnavailable, err)
	}

	return nil
}

// Get returns the value stored under key. More than one matching row means
// the uniqueness constraint is missing or broken, and is reported as
// store.ErrInconsistent instead of picking one of them.
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	const op = "get"
	db, err := s.begin(op)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	values, err := queryColumn(ctx, db,
		`SELECT "value" FROM "map" WHERE "key" = ? LIMIT 2`, bind(s.layout.Key, key))
	if err != nil {
		return nil, store.NewError(op, store.ErrUnavailable, err)
	}

	switch len(values) {
	case 0:
		return nil, store.NewError(op, store.ErrNotFound, nil)
	case 1:
		return values[0], nil
	default:
		s.logger.Error("found multiple records for the same key", "path", s.path)
		return nil, store.NewError(op, store.ErrInconsistent,
			fmt.Errorf("found %d records for the same key", len(values)))
	}
}

// KeysByValue returns the keys of all records storing value, ordered by key.
func (s *Store) KeysByValue(ctx context.Context, value []byte) ([][]byte, error) {
	const op = "keys by value"
	db, err := s.begin(op)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	keys, err := queryColumn(ctx, db,
		`SELECT "key" FROM "map" WHERE "value" = ? ORDER BY "key"`, bind(s.layout.Value, value))
	if err != nil {
		return nil, store.NewError(op, store.ErrUnavailable, err)
	}

	return keys, nil
}

// Keys returns the keys of all records, ordered by key.
func (s *Store) Keys(ctx context.Context) ([][]byte, error) {
	const op = "keys"
	db, err := s.begin(op)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	keys, err := queryColumn(ctx, db, `SELECT "key" FROM "map" ORDER BY "key"`)
	if err != nil {
		return nil, store.NewError(op, store.ErrUnavailable, err)
	}

	return keys, nil
}

// Delete removes the record stored under key.
func (s *Store) Delete(ctx context.Context, key []byte) error {
	const op = "delete"
	db, err := s.begin(op)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.ExecContext(ctx, `DELETE FROM "map" WHERE "key" = ?`, bind(s.layout.Key, key))
	if err != nil {
		return store.NewError(op, store.ErrUnavailable, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return store.NewError(op, store.ErrUnavailable, err)
	}
	if n == 0 {
		return store.NewError(op, store.ErrNotFound, nil)
	}

	return nil
}

// begin checks that the store is open and returns a new connection handle.
// The caller must close it.
func (s *Store) begin(op string) (*sql.DB, error) {
	if s.closed.Load() {
		return nil, store.NewError(op, store.ErrClosed, nil)
	}
	db, err := s.connect()
	if err != nil {
		return nil, store.NewError(op, store.ErrUnavailable, err)
	}
	return db, nil
}

func (s *Store) connect() (*sql.DB, error) {
	sep := "?"
	if strings.Contains(s.path, "?") {
		sep = "&"
	}
	dsn := fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", s.path, sep, s.busyTimeout.Milliseconds())

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	return db, nil
}

func queryColumn(ctx context.Context, db *sql.DB, query string, args ...any) ([][]byte, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	col := [][]byte{}
	for rows.Next() {
		var v []byte
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		col = append(col, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return col, nil
}

// bind converts a payload to the Go type the driver stores with the column's
// affinity. Text payloads must be bound as strings, since SQLite never
// considers a TEXT value equal to a BLOB.
func bind(format codec.Format, payload []byte) any {
	if format == codec.FormatText {
		return string(payload)
	}
	if payload == nil {
		return []byte{}
	}
	return payload
}

func columnType(format codec.Format) string {
	if format == codec.FormatText {
		return "TEXT"
	}
	return "BLOB"
}
