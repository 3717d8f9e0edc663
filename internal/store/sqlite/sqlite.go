// Package sqlite implements store.Backend on top of SQLite.
//
// All values live in one table:
//
//	kv(key TEXT PRIMARY KEY, value TEXT, updated_at DATETIME)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// ONE CONNECTION:
// The pool is capped at a single connection. Two things follow:
//   - ":memory:" databases work (every pooled connection would otherwise get
//     its own empty in-memory database)
//   - transactions are serialised, so a read-modify-write inside Update can
//     never interleave with another one
//
// Inside a transaction only the *sql.Tx may be used. Touching db.conn there
// would wait for the one connection the transaction is holding.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/linkedin-lite/internal/store"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// compile-time check that *DB implements store.Backend
var _ store.Backend = (*DB)(nil)

// DB is a SQLite-backed key-value store.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/linkedin-lite.db" → file-based database (persistent)
//   - ":memory:"              → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets a reader (e.g. the sqlite3 CLI inspecting the file) run
	// while we write. In-memory databases silently stay in "memory" mode.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back.
// store.Txn already refuses writes in read-only mode; the rollback makes
// sure nothing sneaks through a raw store.Tx either.
func (db *DB) View(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning read transaction: %w", err)
	}
	defer tx.Rollback()

	return fn(&kvTx{ctx: ctx, tx: tx})
}

// Update runs fn inside a transaction and commits only if fn succeeds.
func (db *DB) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	// Rollback after a successful Commit is a harmless no-op (sql.ErrTxDone).
	defer tx.Rollback()

	if err := fn(&kvTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// kvTx implements store.Tx with a single *sql.Tx.
type kvTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *kvTx) Get(key string) ([]byte, error) {
	var value string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: getting %s: %w", key, err)
	}
	return []byte(value), nil
}

func (t *kvTx) Set(key string, value []byte) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting %s: %w", key, err)
	}
	return nil
}

func (t *kvTx) Delete(key string) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite: deleting %s: %w", key, err)
	}
	return nil
}
