package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "anticipate.db"

// DB is a SQLite database holding JSON documents for any number of
// collections.
type DB struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the document database in dir. Pass
// ":memory:" for a private in-memory database.
func OpenSQLite(dir string) (*DB, error) {
	var dbPath string
	if dir == ":memory:" {
		dbPath = ":memory:"
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		dbPath = filepath.Join(dir, DBFileName)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// :memory: databases exist per connection.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}

	s := &DB{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		body TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database location.
func (s *DB) Path() string { return s.path }

// Close closes the database.
func (s *DB) Close() error { return s.db.Close() }

// SQLite is a Collection stored as JSON rows of a DB.
type SQLite[T any] struct {
	db   *DB
	name string
}

// NewSQLite returns the collection called name inside db.
func NewSQLite[T any](db *DB, name string) *SQLite[T] {
	return &SQLite[T]{db: db, name: name}
}

func (c *SQLite[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var body string
	err := c.db.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, c.name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("get %q: %w", id, err)
	}
	return decode[T](body)
}

func (c *SQLite[T]) Find(ctx context.Context, match func(T) bool) ([]T, error) {
	rows, err := c.db.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY seq`, c.name)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]T, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		doc, err := decode[T](body)
		if err != nil {
			return nil, err
		}
		if match == nil || match(doc) {
			out = append(out, doc)
		}
	}
	return out, rows.Err()
}

func (c *SQLite[T]) Insert(ctx context.Context, id string, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %q: %w", id, err)
	}
	res, err := c.db.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO NOTHING`,
		c.name, id, string(body), timestamp())
	if err != nil {
		return fmt.Errorf("insert %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("insert %q: %w", id, ErrExists)
	}
	return nil
}

func (c *SQLite[T]) Put(ctx context.Context, id string, doc T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %q: %w", id, err)
	}
	_, err = c.db.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		c.name, id, string(body), timestamp())
	if err != nil {
		return fmt.Errorf("put %q: %w", id, err)
	}
	return nil
}

func (c *SQLite[T]) Patch(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var zero T
	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, c.name, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("patch %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("patch %q: %w", id, err)
	}

	doc, err := decode[T](body)
	if err != nil {
		return zero, err
	}
	if err := fn(&doc); err != nil {
		return zero, err
	}

	updated, err := json.Marshal(doc)
	if err != nil {
		return zero, fmt.Errorf("encode %q: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(updated), timestamp(), c.name, id); err != nil {
		return zero, fmt.Errorf("patch %q: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

func (c *SQLite[T]) Delete(ctx context.Context, id string) error {
	res, err := c.db.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteWhere evaluates match in Go, so it loads the whole collection.
func (c *SQLite[T]) DeleteWhere(ctx context.Context, match func(T) bool) (int, error) {
	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE collection = ?`, c.name)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", c.name, err)
	}
	var doomed []string
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scan %s: %w", c.name, err)
		}
		doc, err := decode[T](body)
		if err != nil {
			_ = rows.Close()
			return 0, err
		}
		if match(doc) {
			doomed = append(doomed, id)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range doomed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id); err != nil {
			return 0, fmt.Errorf("delete %q: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(doomed), nil
}

func (c *SQLite[T]) Count(ctx context.Context) (int, error) {
	var n int
	err := c.db.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, c.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func decode[T any](body string) (T, error) {
	var doc T
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
