package model

import "time"

// Post is a status update. The posts collection is stored newest-first.
//
// ImageURL is either empty or whatever embeddable reference the client sent
// (typically a data: URL).
type Post struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	AuthorID  int64     `json:"authorId"`
	ImageURL  string    `json:"imageURL"`
}

// Comment is a reply on a post, stored oldest-first.
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	AuthorID  int64     `json:"authorId"`
	PostID    int64     `json:"postId"`
}

// Like marks that UserID liked PostID. There is at most one Like per
// (UserID, PostID); the toggle operation keeps it that way.
type Like struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`
	PostID int64 `json:"postId"`
}
