// Package store is the persistent key-value substrate: a handful of JSON
// documents, each stored whole under a string key.
//
// The package has two layers:
//
//	Backend (sqlite, redis)  → raw bytes per key, transactions
//	Store / Txn              → JSON encode/decode with a safe fallback
//
// DECODE FAILURES ARE NOT ERRORS:
// A value that cannot be decoded into the requested type is treated exactly
// like a missing key. Lookup reports it as "not found", Get returns the
// caller's fallback. Only backend I/O failures come back as errors.
//
// TRANSACTIONS:
// Every read and write happens inside View (read-only) or Update
// (read-write). A logical operation that touches several keys, like
// allocating an id and appending the record that uses it, runs as one
// Update so no other writer observes it half done.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNotFound is returned by Tx.Get when the key has never been set
	// or has been deleted.
	ErrNotFound = errors.New("store: key not found")

	// ErrReadOnly is returned when Set or Delete is called inside View.
	ErrReadOnly = errors.New("store: write in read-only transaction")

	// ErrConflict is returned by backends with optimistic concurrency when
	// a transaction kept losing to concurrent writers.
	ErrConflict = errors.New("store: transaction conflict")
)

// Tx is the byte-level view of the key space inside one backend
// transaction. Writes are whole-value replacements.
type Tx interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Backend is a persistent key-value engine.
//
// If fn returns an error, Update must discard every write fn made and
// return that error unchanged (or wrapped with %w). Backends with
// optimistic concurrency may run fn more than once, so fn must not have
// side effects outside the transaction.
type Backend interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Store adds JSON encoding on top of a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New wraps backend. The Store owns it: Close closes the backend.
func New(backend Backend, logger *slog.Logger) *Store {
	return &Store{backend: backend, logger: logger}
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(txn *Txn) error) error {
	return s.backend.View(ctx, func(tx Tx) error {
		return fn(&Txn{tx: tx, readOnly: true, logger: s.logger})
	})
}

// Update runs fn in a read-write transaction. Nothing fn wrote is kept if
// fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(txn *Txn) error) error {
	return s.backend.Update(ctx, func(tx Tx) error {
		return fn(&Txn{tx: tx, logger: s.logger})
	})
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Txn is a JSON-aware handle on one transaction. It is only valid inside
// the View or Update callback that produced it.
type Txn struct {
	tx       Tx
	readOnly bool
	logger   *slog.Logger
}

// Set encodes value as JSON and overwrites key with it.
func (t *Txn) Set(key string, value any) error {
	if t.readOnly {
		return ErrReadOnly
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encoding %s: %w", key, err)
	}
	if err := t.tx.Set(key, data); err != nil {
		return fmt.Errorf("store: writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (t *Txn) Delete(key string) error {
	if t.readOnly {
		return ErrReadOnly
	}
	if err := t.tx.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("store: deleting %s: %w", key, err)
	}
	return nil
}

// Lookup decodes the value stored under key into a T.
//
// found is false when the key is absent, holds JSON null, or holds
// something that does not decode into T. The three cases are
// indistinguishable to the caller.
func Lookup[T any](t *Txn, key string) (value T, found bool, err error) {
	raw, err := t.tx.Get(key)
	if errors.Is(err, ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("store: reading %s: %w", key, err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return value, false, nil
	}

	var decoded T
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		t.logger.Debug("store: ignoring undecodable value",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return value, false, nil
	}
	return decoded, true, nil
}

// Get is Lookup with a default: it returns fallback whenever Lookup would
// report found == false.
func Get[T any](t *Txn, key string, fallback T) (T, error) {
	v, ok, err := Lookup[T](t, key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	return v, nil
}

// Fetch reads a single key in its own transaction.
func Fetch[T any](ctx context.Context, s *Store, key string, fallback T) (T, error) {
	v := fallback
	err := s.View(ctx, func(txn *Txn) error {
		var err error
		v, err = Get(txn, key, fallback)
		return err
	})
	return v, err
}

// Put writes a single key in its own transaction.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	return s.Update(ctx, func(txn *Txn) error {
		return txn.Set(key, value)
	})
}
