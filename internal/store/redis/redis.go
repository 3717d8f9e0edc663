// Package redis implements store.Backend on Redis strings.
//
// Each store key K lives in the Redis key prefix+K. Update uses Redis
// optimistic locking:
//
//  1. every key the callback reads is WATCHed before the GET
//  2. writes are buffered (and visible to later reads in the same callback)
//  3. the buffer is flushed in one MULTI/EXEC
//
// If another client changed a watched key in between, EXEC fails with
// redis.TxFailedErr and the whole callback is run again, up to maxAttempts
// times.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/sakif/linkedin-lite/internal/store"
)

// DefaultPrefix namespaces every key this backend touches.
const DefaultPrefix = "linkedinlite:"

const maxAttempts = 5

// compile-time check that *Store implements store.Backend
var _ store.Backend = (*Store)(nil)

// Store is a Redis-backed key-value store.
type Store struct {
	client *redis.Client
	prefix string
}

// Options configures Open.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: pinging %s: %w", opts.Addr, err)
	}
	return New(client, opts.Prefix), nil
}

// New wraps an existing client. An empty prefix means DefaultPrefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// View reads straight from the client. Reads are not isolated from
// concurrent writers; each GET sees the latest committed value.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(&viewTx{ctx: ctx, s: s})
}

func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
			tx := &updateTx{ctx: ctx, s: s, rtx: rtx, writes: make(map[string][]byte)}
			if err := fn(tx); err != nil {
				return err
			}
			return tx.commit()
		})
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis: giving up after %d attempts: %w", maxAttempts, store.ErrConflict)
}

type viewTx struct {
	ctx context.Context
	s   *Store
}

func (t *viewTx) Get(key string) ([]byte, error) {
	v, err := t.s.client.Get(t.ctx, t.s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: getting %s: %w", key, err)
	}
	return v, nil
}

func (t *viewTx) Set(string, []byte) error { return store.ErrReadOnly }
func (t *viewTx) Delete(string) error      { return store.ErrReadOnly }

// updateTx buffers writes until commit. A nil slice in writes marks a
// pending delete.
type updateTx struct {
	ctx    context.Context
	s      *Store
	rtx    *redis.Tx
	writes map[string][]byte
	order  []string
}

func (t *updateTx) Get(key string) ([]byte, error) {
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil, store.ErrNotFound
		}
		return v, nil
	}

	rk := t.s.key(key)
	if err := t.rtx.Watch(t.ctx, rk).Err(); err != nil {
		return nil, fmt.Errorf("redis: watching %s: %w", key, err)
	}
	v, err := t.rtx.Get(t.ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: getting %s: %w", key, err)
	}
	return v, nil
}

func (t *updateTx) Set(key string, value []byte) error {
	t.record(key, append([]byte{}, value...))
	return nil
}

func (t *updateTx) Delete(key string) error {
	t.record(key, nil)
	return nil
}

func (t *updateTx) record(key string, value []byte) {
	if _, seen := t.writes[key]; !seen {
		t.order = append(t.order, key)
	}
	t.writes[key] = value
}

func (t *updateTx) commit() error {
	if len(t.order) == 0 {
		return nil
	}
	_, err := t.rtx.TxPipelined(t.ctx, func(pipe redis.Pipeliner) error {
		for _, key := range t.order {
			if v := t.writes[key]; v == nil {
				pipe.Del(t.ctx, t.s.key(key))
			} else {
				pipe.Set(t.ctx, t.s.key(key), v, 0)
			}
		}
		return nil
	})
	return err
}
