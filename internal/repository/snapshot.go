package repository

import (
	"context"

	"github.com/sakif/linkedin-lite/internal/model"
)

// Snapshot is a full copy of the stored collections, used for backup and
// restore. The session is deliberately not part of it.
type Snapshot struct {
	Users    []model.User    `json:"users"`
	Posts    []model.Post    `json:"posts"`
	Comments []model.Comment `json:"comments"`
	Likes    []model.Like    `json:"likes"`
	Counters model.Counters  `json:"counters"`
}

func (tx *Tx) Export() (*Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Users, err = tx.Users(); err != nil {
		return nil, err
	}
	if snap.Posts, err = tx.Posts(); err != nil {
		return nil, err
	}
	if snap.Comments, err = tx.Comments(); err != nil {
		return nil, err
	}
	if snap.Likes, err = tx.Likes(); err != nil {
		return nil, err
	}
	if snap.Counters, err = tx.Counters(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Import replaces every collection with the snapshot's and logs everyone
// out. Each counter is raised to at least the highest id present for its
// type, so an imported record's id is never handed out again.
func (tx *Tx) Import(snap Snapshot) error {
	counters := model.Counters{}
	for k, v := range snap.Counters {
		counters[k] = v
	}
	for _, u := range snap.Users {
		raise(counters, model.EntityUser, u.ID)
	}
	for _, p := range snap.Posts {
		raise(counters, model.EntityPost, p.ID)
	}
	for _, c := range snap.Comments {
		raise(counters, model.EntityComment, c.ID)
	}
	for _, l := range snap.Likes {
		raise(counters, model.EntityLike, l.ID)
	}

	writes := []struct {
		key   string
		value any
	}{
		{KeyUsers, orEmpty(snap.Users)},
		{KeyPosts, orEmpty(snap.Posts)},
		{KeyComments, orEmpty(snap.Comments)},
		{KeyLikes, orEmpty(snap.Likes)},
		{KeyCounters, counters},
	}
	for _, w := range writes {
		if err := tx.txn.Set(w.key, w.value); err != nil {
			return err
		}
	}
	return tx.ClearSession()
}

func raise(c model.Counters, entityType string, id int64) {
	if id > c[entityType] {
		c[entityType] = id
	}
}

// orEmpty keeps a nil collection from being stored as JSON null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Export reads every collection in one consistent transaction.
func (r *Repository) Export(ctx context.Context) (*Snapshot, error) {
	return view(ctx, r, (*Tx).Export)
}

// Import replaces all stored data with snap atomically.
func (r *Repository) Import(ctx context.Context, snap Snapshot) error {
	return r.Update(ctx, func(tx *Tx) error { return tx.Import(snap) })
}
