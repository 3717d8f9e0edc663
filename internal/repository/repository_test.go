package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/store"
	"github.com/sakif/linkedin-lite/internal/store/sqlite"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 123456789, time.UTC)

// newTestRepo returns a Repository over a fresh in-memory SQLite database,
// with a frozen clock.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	s := store.New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { s.Close() })

	r := New(s)
	r.now = func() time.Time { return fixedNow }
	return r
}

func addUser(t *testing.T, r *Repository, name, email string) *model.User {
	t.Helper()
	u, err := r.AddUser(context.Background(), model.User{Name: name, Email: email, Password: "password"})
	if err != nil {
		t.Fatalf("AddUser(%q) error = %v", email, err)
	}
	return u
}

func addPost(t *testing.T, r *Repository, content string, authorID int64) *model.Post {
	t.Helper()
	p, err := r.AddPost(context.Background(), content, authorID, "")
	if err != nil {
		t.Fatalf("AddPost(%q) error = %v", content, err)
	}
	return p
}

func addComment(t *testing.T, r *Repository, content string, authorID, postID int64) *model.Comment {
	t.Helper()
	c, err := r.AddComment(context.Background(), content, authorID, postID)
	if err != nil {
		t.Fatalf("AddComment(%q) error = %v", content, err)
	}
	return c
}

func toggle(t *testing.T, r *Repository, userID, postID int64) bool {
	t.Helper()
	liked, err := r.ToggleLike(context.Background(), userID, postID)
	if err != nil {
		t.Fatalf("ToggleLike(%d, %d) error = %v", userID, postID, err)
	}
	return liked
}

func mustPosts(t *testing.T, r *Repository) []model.Post {
	t.Helper()
	posts, err := r.Posts(context.Background())
	if err != nil {
		t.Fatalf("Posts() error = %v", err)
	}
	return posts
}

func mustComments(t *testing.T, r *Repository) []model.Comment {
	t.Helper()
	comments, err := r.Comments(context.Background())
	if err != nil {
		t.Fatalf("Comments() error = %v", err)
	}
	return comments
}

func mustLikes(t *testing.T, r *Repository) []model.Like {
	t.Helper()
	likes, err := r.Likes(context.Background())
	if err != nil {
		t.Fatalf("Likes() error = %v", err)
	}
	return likes
}

// =========================================================================
// SCENARIO
// =========================================================================

func TestPostCommentDeleteScenario(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	post := addPost(t, r, "hello", 1)
	posts := mustPosts(t, r)
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	want := model.Post{
		ID:        1,
		Content:   "hello",
		CreatedAt: fixedNow.Truncate(time.Millisecond),
		AuthorID:  1,
		ImageURL:  "",
	}
	if diff := cmp.Diff(want, posts[0]); diff != "" {
		t.Errorf("stored post mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, *post); diff != "" {
		t.Errorf("returned post mismatch (-want +got):\n%s", diff)
	}

	addComment(t, r, "hi", 2, 1)
	comments := mustComments(t, r)
	if len(comments) != 1 || comments[0].PostID != 1 || comments[0].AuthorID != 2 {
		t.Fatalf("comments = %+v, want one comment by 2 on post 1", comments)
	}

	if err := r.DeletePost(ctx, 1); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	if n := len(mustPosts(t, r)); n != 0 {
		t.Errorf("len(posts) = %d, want 0", n)
	}
	if n := len(mustComments(t, r)); n != 0 {
		t.Errorf("len(comments) = %d, want 0", n)
	}
	if n := len(mustLikes(t, r)); n != 0 {
		t.Errorf("len(likes) = %d, want 0", n)
	}
}

// =========================================================================
// ID ALLOCATION
// =========================================================================

func TestNextID_StrictlyIncreasingPerType(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, entity := range []string{model.EntityUser, model.EntityPost, model.EntityComment, model.EntityLike} {
		t.Run(entity, func(t *testing.T) {
			for want := int64(1); want <= 3; want++ {
				got, err := r.NextID(ctx, entity)
				if err != nil {
					t.Fatalf("NextID() error = %v", err)
				}
				if got != want {
					t.Errorf("NextID() = %d, want %d", got, want)
				}
			}
		})
	}
}

func TestNextID_NotReusedAfterDelete(t *testing.T) {
	r := newTestRepo(t)

	first := addPost(t, r, "one", 1)
	second := addPost(t, r, "two", 1)
	if err := r.DeletePost(context.Background(), second.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	third := addPost(t, r, "three", 1)

	if first.ID != 1 || second.ID != 2 || third.ID != 3 {
		t.Errorf("ids = %d, %d, %d; want 1, 2, 3", first.ID, second.ID, third.ID)
	}
}

// =========================================================================
// ORDERING
// =========================================================================

func TestAddPost_NewestFirst(t *testing.T) {
	r := newTestRepo(t)
	addPost(t, r, "older", 1)
	addPost(t, r, "newer", 1)

	posts := mustPosts(t, r)
	if len(posts) != 2 || posts[0].Content != "newer" || posts[1].Content != "older" {
		t.Errorf("posts = %+v, want newer before older", posts)
	}
}

func TestAddComment_OldestFirst(t *testing.T) {
	r := newTestRepo(t)
	addComment(t, r, "first", 1, 1)
	addComment(t, r, "second", 1, 1)

	comments, err := r.CommentsByPost(context.Background(), 1)
	if err != nil {
		t.Fatalf("CommentsByPost() error = %v", err)
	}
	if len(comments) != 2 || comments[0].Content != "first" || comments[1].Content != "second" {
		t.Errorf("comments = %+v, want first before second", comments)
	}
}

func TestAddComment_DanglingPostTolerated(t *testing.T) {
	r := newTestRepo(t)
	c := addComment(t, r, "into the void", 1, 42)
	if c.PostID != 42 {
		t.Errorf("PostID = %d, want 42", c.PostID)
	}
}

// =========================================================================
// LIKES
// =========================================================================

func TestToggleLike_IsItsOwnInverse(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	post := addPost(t, r, "p", 1)
	toggle(t, r, 3, post.ID) // unrelated like that must survive

	before := mustLikes(t, r)

	if !toggle(t, r, 2, post.ID) {
		t.Fatal("first toggle should like")
	}
	like, err := r.FindLike(ctx, 2, post.ID)
	if err != nil || like == nil {
		t.Fatalf("FindLike() = %v, %v; want a like", like, err)
	}

	if toggle(t, r, 2, post.ID) {
		t.Fatal("second toggle should unlike")
	}
	like, err = r.FindLike(ctx, 2, post.ID)
	if err != nil || like != nil {
		t.Fatalf("FindLike() = %v, %v; want nil", like, err)
	}

	if diff := cmp.Diff(before, mustLikes(t, r)); diff != "" {
		t.Errorf("likes changed after double toggle (-before +after):\n%s", diff)
	}
}

func TestToggleLike_AtMostOnePerUserAndPost(t *testing.T) {
	r := newTestRepo(t)
	for range 5 {
		toggle(t, r, 1, 1)
	}
	likes, err := r.LikesByPost(context.Background(), 1)
	if err != nil {
		t.Fatalf("LikesByPost() error = %v", err)
	}
	if len(likes) != 1 {
		t.Errorf("len(likes) = %d after an odd number of toggles, want 1", len(likes))
	}
}

// =========================================================================
// CASCADE DELETE
// =========================================================================

func TestDeletePost_CascadeLeavesOtherPostsAlone(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	doomed := addPost(t, r, "doomed", 1)
	kept := addPost(t, r, "kept", 2)
	addComment(t, r, "on doomed", 2, doomed.ID)
	keptComment := addComment(t, r, "on kept", 1, kept.ID)
	toggle(t, r, 2, doomed.ID)
	toggle(t, r, 1, kept.ID)

	if err := r.DeletePost(ctx, doomed.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}

	posts := mustPosts(t, r)
	if len(posts) != 1 || posts[0].ID != kept.ID {
		t.Errorf("posts = %+v, want only %d", posts, kept.ID)
	}
	if diff := cmp.Diff([]model.Comment{*keptComment}, mustComments(t, r)); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
	likes := mustLikes(t, r)
	if len(likes) != 1 || likes[0].PostID != kept.ID {
		t.Errorf("likes = %+v, want only the like on %d", likes, kept.ID)
	}
}

// =========================================================================
// MISSING IDS
// =========================================================================

func TestMissingIDs_AreNoOps(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	addUser(t, r, "Aisha", "aisha@example.com")
	addPost(t, r, "p", 1)

	usersBefore, _ := r.Users(ctx)
	postsBefore := mustPosts(t, r)

	if err := r.DeletePost(ctx, 999); err != nil {
		t.Errorf("DeletePost(999) error = %v, want nil", err)
	}
	if err := r.UpdateUser(ctx, model.User{ID: 999, Name: "ghost"}); err != nil {
		t.Errorf("UpdateUser(999) error = %v, want nil", err)
	}

	usersAfter, _ := r.Users(ctx)
	if diff := cmp.Diff(usersBefore, usersAfter); diff != "" {
		t.Errorf("users changed (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(postsBefore, mustPosts(t, r)); diff != "" {
		t.Errorf("posts changed (-before +after):\n%s", diff)
	}

	u, err := r.UserByID(ctx, 999)
	if err != nil || u != nil {
		t.Errorf("UserByID(999) = %v, %v; want nil, nil", u, err)
	}
	p, err := r.PostByID(ctx, 999)
	if err != nil || p != nil {
		t.Errorf("PostByID(999) = %v, %v; want nil, nil", p, err)
	}
}

// =========================================================================
// USERS
// =========================================================================

func TestUpdateUser_OnlyTouchesTarget(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	aisha := addUser(t, r, "Aisha", "aisha@example.com")
	rohit := addUser(t, r, "Rohit", "rohit@example.com")

	updated := *aisha
	updated.Headline = "Staff Engineer"
	if err := r.UpdateUser(ctx, updated); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	users, err := r.Users(ctx)
	if err != nil {
		t.Fatalf("Users() error = %v", err)
	}
	if diff := cmp.Diff([]model.User{updated, *rohit}, users); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}
}

func TestUserByEmail_CaseSensitive(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	addUser(t, r, "Aisha", "aisha@example.com")

	u, err := r.UserByEmail(ctx, "aisha@example.com")
	if err != nil || u == nil {
		t.Fatalf("UserByEmail(exact) = %v, %v", u, err)
	}
	u, err = r.UserByEmail(ctx, "Aisha@Example.com")
	if err != nil || u != nil {
		t.Errorf("UserByEmail(other case) = %v, %v; want nil, nil", u, err)
	}
}

func TestIsEmpty(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	empty, err := r.IsEmpty(ctx)
	if err != nil || !empty {
		t.Fatalf("IsEmpty() on fresh store = %v, %v; want true", empty, err)
	}
	addUser(t, r, "Aisha", "aisha@example.com")
	empty, err = r.IsEmpty(ctx)
	if err != nil || empty {
		t.Errorf("IsEmpty() after AddUser = %v, %v; want false", empty, err)
	}
}

// =========================================================================
// SESSION
// =========================================================================

func TestSession_SetAndClear(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	s, err := r.Session(ctx)
	if err != nil || s != nil {
		t.Fatalf("Session() on fresh store = %v, %v; want nil", s, err)
	}

	want := model.Session{UserID: 7, SID: "abc", CreatedAt: fixedNow}
	if err := r.SetSession(ctx, want); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}
	s, err = r.Session(ctx)
	if err != nil || s == nil {
		t.Fatalf("Session() = %v, %v", s, err)
	}
	if diff := cmp.Diff(want, *s); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	if err := r.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	s, _ = r.Session(ctx)
	if s != nil {
		t.Errorf("Session() after clear = %+v, want nil", s)
	}
}

// =========================================================================
// CORRUPT DATA
// =========================================================================

func TestCorruptCollection_FallsBackToEmpty(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	if err := r.store.Put(ctx, KeyPosts, "definitely not a list"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	posts := mustPosts(t, r)
	if posts == nil || len(posts) != 0 {
		t.Errorf("Posts() = %#v, want empty non-nil slice", posts)
	}

	// the next write replaces the corrupt value
	p := addPost(t, r, "fresh", 1)
	if got := mustPosts(t, r); len(got) != 1 || got[0].ID != p.ID {
		t.Errorf("posts = %+v, want only the new post", got)
	}
}

// =========================================================================
// ROLLBACK
// =========================================================================

func TestUpdate_ErrorRollsBackIDAndInsert(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.Update(ctx, func(tx *Tx) error {
		if _, err := tx.AddPost("never", 1, ""); err != nil {
			return err
		}
		return context.Canceled
	})
	if err == nil {
		t.Fatal("Update() error = nil, want the callback's error")
	}

	if n := len(mustPosts(t, r)); n != 0 {
		t.Errorf("len(posts) = %d, want 0", n)
	}
	if p := addPost(t, r, "real", 1); p.ID != 1 {
		t.Errorf("first committed post id = %d, want 1", p.ID)
	}
}
