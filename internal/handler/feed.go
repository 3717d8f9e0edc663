package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/service"
)

// FeedHandler serves the feed, posts, comments and likes. All routes sit
// behind auth.RequireAuth; the acting user comes from the context.
type FeedHandler struct {
	feed   *service.FeedService
	logger *slog.Logger
}

func NewFeedHandler(svc *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: svc, logger: logger}
}

type createPostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageURL"`
}

type commentRequest struct {
	Content string `json:"content"`
}

// LikeResponse reports the viewer's like state after a toggle.
type LikeResponse struct {
	PostID int64 `json:"postId"`
	Liked  bool  `json:"liked"`
}

// HandleFeed lists posts newest first, optionally filtered by ?q=.
//
// HTTP: GET /api/feed?q=text → 200 []service.FeedItem
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())
	items, err := h.feed.Feed(r.Context(), me.ID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleCreatePost publishes a post as the current user.
//
// HTTP: POST /api/posts {"content": "...", "imageURL": "data:..."} → 201 model.Post
func (h *FeedHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	me, _ := auth.UserFromContext(r.Context())
	post, err := h.feed.Publish(r.Context(), me.ID, req.Content, req.ImageURL)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleDeletePost deletes one of the current user's posts.
//
// HTTP: DELETE /api/posts/{id} → 204, 403 if someone else's
func (h *FeedHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	me, _ := auth.UserFromContext(r.Context())
	if err := h.feed.DeletePost(r.Context(), me.ID, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleComment comments on a post.
//
// HTTP: POST /api/posts/{id}/comments {"content": "..."} → 201 model.Comment
func (h *FeedHandler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	me, _ := auth.UserFromContext(r.Context())
	c, err := h.feed.Comment(r.Context(), me.ID, id, req.Content)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleToggleLike likes or unlikes a post.
//
// HTTP: POST /api/posts/{id}/like → 200 LikeResponse
func (h *FeedHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	me, _ := auth.UserFromContext(r.Context())
	liked, err := h.feed.ToggleLike(r.Context(), me.ID, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LikeResponse{PostID: id, Liked: liked})
}

// HandleUserPosts lists a user's posts newest first.
//
// HTTP: GET /api/users/{id}/posts → 200 []model.Post
func (h *FeedHandler) HandleUserPosts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	posts, err := h.feed.UserPosts(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}
