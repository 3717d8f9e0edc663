package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/linkedin-lite/internal/apperror"
)

// =========================================================================
// PUBLISH
// =========================================================================

func TestPublish_TrimsAndPrepends(t *testing.T) {
	svc := newSeededServices(t)
	ctx := context.Background()

	post, err := svc.feed.Publish(ctx, 1, "  shipping today  ", "data:image/png;base64,AAAA")
	require.NoError(t, err)
	assert.Equal(t, "shipping today", post.Content)
	assert.Equal(t, "data:image/png;base64,AAAA", post.ImageURL)
	assert.Equal(t, int64(3), post.ID)

	posts, err := svc.repo.Posts(ctx)
	require.NoError(t, err)
	assert.Equal(t, post.ID, posts[0].ID)
}

func TestPublish_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace", " \n\t "},
		{"too long", strings.Repeat("x", MaxContentLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newServices(t)
			_, err := svc.feed.Publish(context.Background(), 1, tt.content, "")
			assert.ErrorIs(t, err, apperror.ErrValidation)

			posts, err := svc.repo.Posts(context.Background())
			require.NoError(t, err)
			assert.Empty(t, posts)
		})
	}
}

func TestPublish_MaxLengthCountsCharacters(t *testing.T) {
	svc := newServices(t)
	// 3000 multi-byte characters is still within the limit
	_, err := svc.feed.Publish(context.Background(), 1, strings.Repeat("é", MaxContentLength), "")
	assert.NoError(t, err)
}

// =========================================================================
// COMMENTS AND LIKES
// =========================================================================

func TestComment(t *testing.T) {
	svc := newSeededServices(t)
	ctx := context.Background()

	c, err := svc.feed.Comment(ctx, 1, 2, "  Java and Go  ")
	require.NoError(t, err)
	assert.Equal(t, "Java and Go", c.Content)
	assert.Equal(t, int64(2), c.PostID)

	_, err = svc.feed.Comment(ctx, 1, 2, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// dangling post ids are accepted
	_, err = svc.feed.Comment(ctx, 1, 404, "hello?")
	assert.NoError(t, err)
}

func TestToggleLike_Reports(t *testing.T) {
	svc := newSeededServices(t)
	ctx := context.Background()

	// Aisha has not liked her own post in the demo data
	liked, err := svc.feed.ToggleLike(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.feed.ToggleLike(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, liked)
}

// =========================================================================
// DELETE
// =========================================================================

func TestDeletePost_OwnerOnly(t *testing.T) {
	svc := newSeededServices(t)
	ctx := context.Background()

	err := svc.feed.DeletePost(ctx, 2, 1)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	p, err := svc.repo.PostByID(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, p, "a forbidden delete must leave the post")

	require.NoError(t, svc.feed.DeletePost(ctx, 1, 1))
	p, err = svc.repo.PostByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p)

	comments, err := svc.repo.CommentsByPost(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, comments)
	likes, err := svc.repo.LikesByPost(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, likes)
}

func TestDeletePost_MissingIsNoOp(t *testing.T) {
	svc := newSeededServices(t)
	assert.NoError(t, svc.feed.DeletePost(context.Background(), 1, 999))
}

// =========================================================================
// FEED
// =========================================================================

func TestFeed_Joins(t *testing.T) {
	svc := newSeededServices(t)
	ctx := context.Background()

	items, err := svc.feed.Feed(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, items, 2)

	hiring := items[0]
	assert.Equal(t, int64(2), hiring.Post.ID)
	require.NotNil(t, hiring.Author)
	assert.Equal(t, "Rohit Sharma", hiring.Author.Name)
	assert.Equal(t, 1, hiring.LikeCount)
	assert.True(t, hiring.Liked, "Aisha liked the hiring post")
	require.Len(t, hiring.Comments, 1)
	assert.Equal(t, "Aisha Khan", hiring.Comments[0].Author.Name)

	clone := items[1]
	assert.Equal(t, 1, clone.LikeCount)
	assert.False(t, clone.Liked, "Aisha did not like her own post")
}

func TestFeed_Search(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{"blank query shows all", "   ", []int64{2, 1}},
		{"content, any case", "LINKEDIN", []int64{1}},
		{"author name", "rohit", []int64{2}},
		{"surrounding spaces trimmed", "  hiring ", []int64{2}},
		{"no match", "kubernetes", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newSeededServices(t)
			items, err := svc.feed.Feed(context.Background(), 1, tt.query)
			require.NoError(t, err)

			ids := make([]int64, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.Post.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFeed_DanglingAuthor(t *testing.T) {
	svc := newServices(t)
	ctx := context.Background()
	_, err := svc.feed.Publish(ctx, 42, "orphan", "")
	require.NoError(t, err)
	_, err = svc.feed.Comment(ctx, 43, 1, "also orphan")
	require.NoError(t, err)

	items, err := svc.feed.Feed(ctx, 1, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Author)
	require.Len(t, items[0].Comments, 1)
	assert.Nil(t, items[0].Comments[0].Author)

	// a dangling author never matches a name search
	items, err = svc.feed.Feed(ctx, 1, "aisha")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUserPosts(t *testing.T) {
	svc := newSeededServices(t)
	ctx := context.Background()
	_, err := svc.feed.Publish(ctx, 1, "second from Aisha", "")
	require.NoError(t, err)

	posts, err := svc.feed.UserPosts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second from Aisha", posts[0].Content)

	posts, err = svc.feed.UserPosts(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, posts)
}
