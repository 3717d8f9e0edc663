package repository

import (
	"slices"
	"time"

	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/store"
)

// Tx exposes the typed operations inside one store transaction. It is only
// valid inside the Update or View callback that produced it.
type Tx struct {
	txn *store.Txn
	now func() time.Time
}

// stamp returns the creation time recorded on new posts and comments.
// Millisecond precision matches what survives a JSON round trip in every
// client we care about.
func (tx *Tx) stamp() time.Time {
	return tx.now().UTC().Truncate(time.Millisecond)
}

func (tx *Tx) Users() ([]model.User, error) {
	return store.Get(tx.txn, KeyUsers, []model.User{})
}

func (tx *Tx) Posts() ([]model.Post, error) {
	return store.Get(tx.txn, KeyPosts, []model.Post{})
}

func (tx *Tx) Comments() ([]model.Comment, error) {
	return store.Get(tx.txn, KeyComments, []model.Comment{})
}

func (tx *Tx) Likes() ([]model.Like, error) {
	return store.Get(tx.txn, KeyLikes, []model.Like{})
}

// =========================================================================
// USERS
// =========================================================================

func (tx *Tx) UserByID(id int64) (*model.User, error) {
	users, err := tx.Users()
	if err != nil {
		return nil, err
	}
	if i := slices.IndexFunc(users, func(u model.User) bool { return u.ID == id }); i >= 0 {
		return &users[i], nil
	}
	return nil, nil
}

// UserByEmail matches the email exactly, case included.
func (tx *Tx) UserByEmail(email string) (*model.User, error) {
	users, err := tx.Users()
	if err != nil {
		return nil, err
	}
	if i := slices.IndexFunc(users, func(u model.User) bool { return u.Email == email }); i >= 0 {
		return &users[i], nil
	}
	return nil, nil
}

// AddUser allocates an id for u and appends it. Any id already set on u is
// ignored. Email uniqueness is the caller's business.
func (tx *Tx) AddUser(u model.User) (*model.User, error) {
	users, err := tx.Users()
	if err != nil {
		return nil, err
	}
	id, err := tx.NextID(model.EntityUser)
	if err != nil {
		return nil, err
	}
	u.ID = id
	users = append(users, u)
	if err := tx.txn.Set(KeyUsers, users); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser replaces the stored user whose id equals u.ID. Other users are
// left exactly as they were. An unknown id is a no-op.
func (tx *Tx) UpdateUser(u model.User) error {
	users, err := tx.Users()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(users, func(x model.User) bool { return x.ID == u.ID })
	if i < 0 {
		return nil
	}
	users[i] = u
	return tx.txn.Set(KeyUsers, users)
}

// =========================================================================
// POSTS
// =========================================================================

func (tx *Tx) PostByID(id int64) (*model.Post, error) {
	posts, err := tx.Posts()
	if err != nil {
		return nil, err
	}
	if i := slices.IndexFunc(posts, func(p model.Post) bool { return p.ID == id }); i >= 0 {
		return &posts[i], nil
	}
	return nil, nil
}

// PostsByAuthor keeps the stored newest-first order.
func (tx *Tx) PostsByAuthor(authorID int64) ([]model.Post, error) {
	posts, err := tx.Posts()
	if err != nil {
		return nil, err
	}
	return filter(posts, func(p model.Post) bool { return p.AuthorID == authorID }), nil
}

// AddPost inserts at the front: the posts collection is newest-first.
func (tx *Tx) AddPost(content string, authorID int64, imageURL string) (*model.Post, error) {
	posts, err := tx.Posts()
	if err != nil {
		return nil, err
	}
	id, err := tx.NextID(model.EntityPost)
	if err != nil {
		return nil, err
	}
	p := model.Post{
		ID:        id,
		Content:   content,
		CreatedAt: tx.stamp(),
		AuthorID:  authorID,
		ImageURL:  imageURL,
	}
	posts = slices.Insert(posts, 0, p)
	if err := tx.txn.Set(KeyPosts, posts); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes the post together with its comments and likes.
// Comments and likes on other posts are untouched.
func (tx *Tx) DeletePost(postID int64) error {
	posts, err := tx.Posts()
	if err != nil {
		return err
	}
	comments, err := tx.Comments()
	if err != nil {
		return err
	}
	likes, err := tx.Likes()
	if err != nil {
		return err
	}

	if err := tx.txn.Set(KeyPosts, filter(posts, func(p model.Post) bool { return p.ID != postID })); err != nil {
		return err
	}
	if err := tx.txn.Set(KeyComments, filter(comments, func(c model.Comment) bool { return c.PostID != postID })); err != nil {
		return err
	}
	return tx.txn.Set(KeyLikes, filter(likes, func(l model.Like) bool { return l.PostID != postID }))
}

// =========================================================================
// COMMENTS
// =========================================================================

// CommentsByPost keeps insertion (oldest-first) order.
func (tx *Tx) CommentsByPost(postID int64) ([]model.Comment, error) {
	comments, err := tx.Comments()
	if err != nil {
		return nil, err
	}
	return filter(comments, func(c model.Comment) bool { return c.PostID == postID }), nil
}

// AddComment appends; postID is not checked against the posts collection.
func (tx *Tx) AddComment(content string, authorID, postID int64) (*model.Comment, error) {
	comments, err := tx.Comments()
	if err != nil {
		return nil, err
	}
	id, err := tx.NextID(model.EntityComment)
	if err != nil {
		return nil, err
	}
	c := model.Comment{
		ID:        id,
		Content:   content,
		CreatedAt: tx.stamp(),
		AuthorID:  authorID,
		PostID:    postID,
	}
	comments = append(comments, c)
	if err := tx.txn.Set(KeyComments, comments); err != nil {
		return nil, err
	}
	return &c, nil
}

// =========================================================================
// LIKES
// =========================================================================

func (tx *Tx) LikesByPost(postID int64) ([]model.Like, error) {
	likes, err := tx.Likes()
	if err != nil {
		return nil, err
	}
	return filter(likes, func(l model.Like) bool { return l.PostID == postID }), nil
}

func (tx *Tx) FindLike(userID, postID int64) (*model.Like, error) {
	likes, err := tx.Likes()
	if err != nil {
		return nil, err
	}
	if i := indexLike(likes, userID, postID); i >= 0 {
		return &likes[i], nil
	}
	return nil, nil
}

// ToggleLike is the only place the one-like-per-(user, post) rule is
// enforced: it removes an existing like or appends a new one, never both.
func (tx *Tx) ToggleLike(userID, postID int64) (liked bool, err error) {
	likes, err := tx.Likes()
	if err != nil {
		return false, err
	}

	if i := indexLike(likes, userID, postID); i >= 0 {
		likes = slices.Delete(likes, i, i+1)
	} else {
		id, err := tx.NextID(model.EntityLike)
		if err != nil {
			return false, err
		}
		likes = append(likes, model.Like{ID: id, UserID: userID, PostID: postID})
		liked = true
	}

	if err := tx.txn.Set(KeyLikes, likes); err != nil {
		return false, err
	}
	return liked, nil
}

func indexLike(likes []model.Like, userID, postID int64) int {
	return slices.IndexFunc(likes, func(l model.Like) bool {
		return l.UserID == userID && l.PostID == postID
	})
}

// =========================================================================
// SESSION
// =========================================================================

// Session returns the stored session, or nil in the anonymous state.
func (tx *Tx) Session() (*model.Session, error) {
	s, ok, err := store.Lookup[model.Session](tx.txn, KeySession)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func (tx *Tx) SetSession(s model.Session) error {
	return tx.txn.Set(KeySession, s)
}

func (tx *Tx) ClearSession() error {
	return tx.txn.Delete(KeySession)
}

// filter returns the elements of s for which keep is true, as a new
// non-nil slice.
func filter[T any](s []T, keep func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
