// Package repository is the typed CRUD and query surface over the stored
// collections: users, posts, comments, likes, the id counters and the
// session.
//
// Each collection is one JSON array under its own store key. Every
// operation reads the whole array, changes it in memory and writes it back.
// Methods on Repository run one logical operation per store transaction;
// services that need several steps to be atomic (signup + auto-login, for
// example) call Update and use the Tx methods directly.
//
// MISSING IDS ARE NOT ERRORS:
// Deleting or updating an id that does not exist changes nothing and
// returns nil. Lookups of a missing id return nil. Callers must be ready for
// a foreign key that no longer resolves.
package repository

import (
	"context"
	"time"

	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/store"
)

// Store keys of the persisted values.
const (
	KeyUsers    = "ll_users"
	KeyPosts    = "ll_posts"
	KeyComments = "ll_comments"
	KeyLikes    = "ll_likes"
	KeyCounters = "ll_counters"
	KeySession  = "ll_session"
)

// Repository provides typed access to the collections in a store.
type Repository struct {
	store *store.Store
	now   func() time.Time
}

// New returns a Repository over s.
func New(s *store.Store) *Repository {
	return &Repository{store: s, now: time.Now}
}

// Update runs fn as one atomic read-write operation.
func (r *Repository) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return r.store.Update(ctx, func(txn *store.Txn) error {
		return fn(&Tx{txn: txn, now: r.now})
	})
}

// View runs fn as one read-only operation.
func (r *Repository) View(ctx context.Context, fn func(tx *Tx) error) error {
	return r.store.View(ctx, func(txn *store.Txn) error {
		return fn(&Tx{txn: txn, now: r.now})
	})
}

// view and update adapt a single Tx method returning (T, error) into a
// complete transaction.
func view[T any](ctx context.Context, r *Repository, fn func(tx *Tx) (T, error)) (T, error) {
	var out T
	err := r.View(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

func update[T any](ctx context.Context, r *Repository, fn func(tx *Tx) (T, error)) (T, error) {
	var out T
	err := r.Update(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

// =========================================================================
// READS
// =========================================================================

func (r *Repository) Users(ctx context.Context) ([]model.User, error) {
	return view(ctx, r, (*Tx).Users)
}

func (r *Repository) Posts(ctx context.Context) ([]model.Post, error) {
	return view(ctx, r, (*Tx).Posts)
}

func (r *Repository) Comments(ctx context.Context) ([]model.Comment, error) {
	return view(ctx, r, (*Tx).Comments)
}

func (r *Repository) Likes(ctx context.Context) ([]model.Like, error) {
	return view(ctx, r, (*Tx).Likes)
}

func (r *Repository) Counters(ctx context.Context) (model.Counters, error) {
	return view(ctx, r, (*Tx).Counters)
}

func (r *Repository) Session(ctx context.Context) (*model.Session, error) {
	return view(ctx, r, (*Tx).Session)
}

// UserByID returns nil, nil when no user has that id.
func (r *Repository) UserByID(ctx context.Context, id int64) (*model.User, error) {
	return view(ctx, r, func(tx *Tx) (*model.User, error) { return tx.UserByID(id) })
}

// UserByEmail returns nil, nil when no user has that exact email.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return view(ctx, r, func(tx *Tx) (*model.User, error) { return tx.UserByEmail(email) })
}

// PostByID returns nil, nil when no post has that id.
func (r *Repository) PostByID(ctx context.Context, id int64) (*model.Post, error) {
	return view(ctx, r, func(tx *Tx) (*model.Post, error) { return tx.PostByID(id) })
}

func (r *Repository) PostsByAuthor(ctx context.Context, authorID int64) ([]model.Post, error) {
	return view(ctx, r, func(tx *Tx) ([]model.Post, error) { return tx.PostsByAuthor(authorID) })
}

func (r *Repository) CommentsByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	return view(ctx, r, func(tx *Tx) ([]model.Comment, error) { return tx.CommentsByPost(postID) })
}

func (r *Repository) LikesByPost(ctx context.Context, postID int64) ([]model.Like, error) {
	return view(ctx, r, func(tx *Tx) ([]model.Like, error) { return tx.LikesByPost(postID) })
}

// FindLike returns the like userID gave postID, or nil.
func (r *Repository) FindLike(ctx context.Context, userID, postID int64) (*model.Like, error) {
	return view(ctx, r, func(tx *Tx) (*model.Like, error) { return tx.FindLike(userID, postID) })
}

// IsEmpty reports whether no user has been stored yet.
func (r *Repository) IsEmpty(ctx context.Context) (bool, error) {
	users, err := r.Users(ctx)
	if err != nil {
		return false, err
	}
	return len(users) == 0, nil
}

// =========================================================================
// WRITES
// =========================================================================

// NextID allocates the next id for entityType in its own transaction.
func (r *Repository) NextID(ctx context.Context, entityType string) (int64, error) {
	return update(ctx, r, func(tx *Tx) (int64, error) { return tx.NextID(entityType) })
}

func (r *Repository) AddUser(ctx context.Context, u model.User) (*model.User, error) {
	return update(ctx, r, func(tx *Tx) (*model.User, error) { return tx.AddUser(u) })
}

func (r *Repository) UpdateUser(ctx context.Context, u model.User) error {
	return r.Update(ctx, func(tx *Tx) error { return tx.UpdateUser(u) })
}

func (r *Repository) AddPost(ctx context.Context, content string, authorID int64, imageURL string) (*model.Post, error) {
	return update(ctx, r, func(tx *Tx) (*model.Post, error) { return tx.AddPost(content, authorID, imageURL) })
}

// DeletePost removes the post and every comment and like on it, atomically.
func (r *Repository) DeletePost(ctx context.Context, postID int64) error {
	return r.Update(ctx, func(tx *Tx) error { return tx.DeletePost(postID) })
}

func (r *Repository) AddComment(ctx context.Context, content string, authorID, postID int64) (*model.Comment, error) {
	return update(ctx, r, func(tx *Tx) (*model.Comment, error) { return tx.AddComment(content, authorID, postID) })
}

// ToggleLike likes postID for userID, or removes the like if there is one.
// It reports whether the like exists afterwards.
func (r *Repository) ToggleLike(ctx context.Context, userID, postID int64) (bool, error) {
	return update(ctx, r, func(tx *Tx) (bool, error) { return tx.ToggleLike(userID, postID) })
}

func (r *Repository) SetSession(ctx context.Context, s model.Session) error {
	return r.Update(ctx, func(tx *Tx) error { return tx.SetSession(s) })
}

func (r *Repository) ClearSession(ctx context.Context) error {
	return r.Update(ctx, func(tx *Tx) error { return tx.ClearSession() })
}
