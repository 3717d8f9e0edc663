package repository

import (
	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/store"
)

// Counters returns the id counters. It is never nil.
func (tx *Tx) Counters() (model.Counters, error) {
	c, err := store.Get(tx.txn, KeyCounters, model.Counters{})
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = model.Counters{}
	}
	return c, nil
}

// NextID increments and persists the counter for entityType and returns
// the new value. A type with no counter yet starts at 1.
//
// Ids are never handed out twice: deleting a record does not lower the
// counter. NextID runs inside the caller's transaction, so the increment
// and the insert that uses the id commit or roll back together.
func (tx *Tx) NextID(entityType string) (int64, error) {
	c, err := tx.Counters()
	if err != nil {
		return 0, err
	}
	c[entityType]++
	if err := tx.txn.Set(KeyCounters, c); err != nil {
		return 0, err
	}
	return c[entityType], nil
}
