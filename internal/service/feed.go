package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/linkedin-lite/internal/apperror"
	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/repository"
)

// Validation limits.
const (
	MaxContentLength = 3000
	MaxCommentLength = 1000
)

// FeedService handles posts, comments and likes.
type FeedService struct {
	repo   *repository.Repository
	logger *slog.Logger
}

func NewFeedService(repo *repository.Repository, logger *slog.Logger) *FeedService {
	return &FeedService{repo: repo, logger: logger}
}

// FeedItem is one post as the feed shows it. Author is nil when the post's
// author no longer exists.
type FeedItem struct {
	Post      model.Post     `json:"post"`
	Author    *model.Profile `json:"author"`
	LikeCount int            `json:"likeCount"`
	Liked     bool           `json:"liked"`
	Comments  []CommentView  `json:"comments"`
}

// CommentView is a comment with its resolved author (nil if dangling).
type CommentView struct {
	Comment model.Comment  `json:"comment"`
	Author  *model.Profile `json:"author"`
}

// Publish creates a post. Content is trimmed and must not be blank.
func (s *FeedService) Publish(ctx context.Context, authorID int64, content, imageURL string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "post content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxContentLength))
	}

	post, err := s.repo.AddPost(ctx, content, authorID, imageURL)
	if err != nil {
		s.logger.Error("failed to publish post",
			slog.Int64("authorID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("publishing post: %w", err)
	}

	s.logger.Info("post published",
		slog.Int64("postID", post.ID),
		slog.Int64("authorID", authorID),
		slog.Bool("image", imageURL != ""),
	)
	return post, nil
}

// Comment adds a comment to postID. The post is not required to exist.
func (s *FeedService) Comment(ctx context.Context, authorID, postID int64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "comment is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("comment must be %d characters or less", MaxCommentLength))
	}

	c, err := s.repo.AddComment(ctx, content, authorID, postID)
	if err != nil {
		return nil, fmt.Errorf("adding comment to post %d: %w", postID, err)
	}
	s.logger.Info("comment added",
		slog.Int64("commentID", c.ID),
		slog.Int64("postID", postID),
	)
	return c, nil
}

// ToggleLike likes or unlikes postID and reports whether userID likes it
// afterwards.
func (s *FeedService) ToggleLike(ctx context.Context, userID, postID int64) (bool, error) {
	liked, err := s.repo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return false, fmt.Errorf("toggling like on post %d: %w", postID, err)
	}
	s.logger.Debug("like toggled",
		slog.Int64("postID", postID),
		slog.Int64("userID", userID),
		slog.Bool("liked", liked),
	)
	return liked, nil
}

// DeletePost removes a post with its comments and likes. Only its author may
// do that. Deleting a post that does not exist is a no-op.
func (s *FeedService) DeletePost(ctx context.Context, actorID, postID int64) error {
	deleted := false
	err := s.repo.Update(ctx, func(tx *repository.Tx) error {
		deleted = false
		post, err := tx.PostByID(postID)
		if err != nil || post == nil {
			return err
		}
		if post.AuthorID != actorID {
			return apperror.Forbidden("only the author can delete this post")
		}
		deleted = true
		return tx.DeletePost(postID)
	})
	if errors.Is(err, apperror.ErrForbidden) {
		return err
	}
	if err != nil {
		return fmt.Errorf("deleting post %d: %w", postID, err)
	}

	if deleted {
		s.logger.Info("post deleted", slog.Int64("postID", postID), slog.Int64("actorID", actorID))
	}
	return nil
}

// Feed returns the posts newest first, as seen by viewerID.
//
// A non-blank query keeps only posts whose content or author name contains
// it, ignoring case.
func (s *FeedService) Feed(ctx context.Context, viewerID int64, query string) ([]FeedItem, error) {
	query = strings.ToLower(strings.TrimSpace(query))

	var items []FeedItem
	err := s.repo.View(ctx, func(tx *repository.Tx) error {
		snap, err := tx.Export()
		if err != nil {
			return err
		}
		items = buildFeed(snap, viewerID, query)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	return items, nil
}

// UserPosts returns userID's posts newest first.
func (s *FeedService) UserPosts(ctx context.Context, userID int64) ([]model.Post, error) {
	posts, err := s.repo.PostsByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing posts of user %d: %w", userID, err)
	}
	return posts, nil
}

// buildFeed joins the collections in memory. Each collection is read once
// and indexed, so this is linear in the size of the store.
func buildFeed(snap *repository.Snapshot, viewerID int64, query string) []FeedItem {
	profiles := make(map[int64]*model.Profile, len(snap.Users))
	for _, u := range snap.Users {
		p := u.Profile()
		profiles[u.ID] = &p
	}

	likeCount := make(map[int64]int)
	liked := make(map[int64]bool)
	for _, l := range snap.Likes {
		likeCount[l.PostID]++
		if l.UserID == viewerID {
			liked[l.PostID] = true
		}
	}

	comments := make(map[int64][]CommentView)
	for _, c := range snap.Comments {
		comments[c.PostID] = append(comments[c.PostID], CommentView{Comment: c, Author: profiles[c.AuthorID]})
	}

	items := make([]FeedItem, 0, len(snap.Posts))
	for _, p := range snap.Posts {
		author := profiles[p.AuthorID]
		if query != "" && !matches(p, author, query) {
			continue
		}
		cs := comments[p.ID]
		if cs == nil {
			cs = []CommentView{}
		}
		items = append(items, FeedItem{
			Post:      p,
			Author:    author,
			LikeCount: likeCount[p.ID],
			Liked:     liked[p.ID],
			Comments:  cs,
		})
	}
	return items
}

func matches(p model.Post, author *model.Profile, query string) bool {
	if strings.Contains(strings.ToLower(p.Content), query) {
		return true
	}
	return author != nil && strings.Contains(strings.ToLower(author.Name), query)
}
