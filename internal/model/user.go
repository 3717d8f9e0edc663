// Package model defines the records persisted by the store.
//
// Every entity is a flat struct: relationships are plain int64 foreign keys
// (Post.AuthorID → User.ID, Comment.PostID → Post.ID, ...) and are resolved
// at query time. Nothing enforces referential integrity, so a foreign key
// may point at a record that no longer exists. Callers treat that as
// "unknown", never as an error.
//
// The json tags are the persisted format. Changing one orphans existing data.
package model

// Entity type names used as keys in the ID counters map.
const (
	EntityUser    = "User"
	EntityPost    = "Post"
	EntityComment = "Comment"
	EntityLike    = "Like"
)

// User is a registered account.
//
// Password is stored and compared in plaintext. Email is unique only in the
// sense that signup refuses a second account with the same exact string.
type User struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Bio           string `json:"bio"`
	Headline      string `json:"headline"`
	ProfilePicURL string `json:"profilePicURL,omitempty"`
}

// Profile is the public view of a User, safe to hand to API clients.
type Profile struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Bio           string `json:"bio"`
	Headline      string `json:"headline"`
	ProfilePicURL string `json:"profilePicURL"`
}

// Profile drops the password.
func (u User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Bio:           u.Bio,
		Headline:      u.Headline,
		ProfilePicURL: u.ProfilePicURL,
	}
}
