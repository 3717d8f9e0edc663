// Package seed loads the demo users, posts, comments and likes into an
// empty store.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/xid"
	"gopkg.in/yaml.v3"

	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/repository"
)

//go:embed seed.yaml
var demoYAML []byte

// Data is the seed file format. Users are referenced by email and posts by
// their ref, so the file never has to know which ids they will get.
type Data struct {
	Users []struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Headline string `yaml:"headline"`
		Bio      string `yaml:"bio"`
	} `yaml:"users"`
	Posts []struct {
		Ref     string `yaml:"ref"`
		Author  string `yaml:"author"`
		Content string `yaml:"content"`
	} `yaml:"posts"`
	Comments []struct {
		Post    string `yaml:"post"`
		Author  string `yaml:"author"`
		Content string `yaml:"content"`
	} `yaml:"comments"`
	Likes []struct {
		Post string `yaml:"post"`
		User string `yaml:"user"`
	} `yaml:"likes"`
	// Session is the email of the user left logged in, if any.
	Session string `yaml:"session"`
}

// Demo returns the built-in demo data.
func Demo() (*Data, error) {
	return Parse(demoYAML)
}

// Parse decodes and validates seed YAML.
func Parse(b []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("seed: parsing: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("seed: invalid data: %w", err)
	}
	return &d, nil
}

func (d *Data) validate() error {
	users := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if u.Email == "" {
			return errors.New("user without email")
		}
		if users[u.Email] {
			return fmt.Errorf("duplicate user %q", u.Email)
		}
		users[u.Email] = true
	}

	posts := make(map[string]bool, len(d.Posts))
	for _, p := range d.Posts {
		if !users[p.Author] {
			return fmt.Errorf("post %q: unknown author %q", p.Ref, p.Author)
		}
		if p.Ref != "" {
			posts[p.Ref] = true
		}
	}
	for _, c := range d.Comments {
		if !users[c.Author] {
			return fmt.Errorf("comment: unknown author %q", c.Author)
		}
		if !posts[c.Post] {
			return fmt.Errorf("comment: unknown post %q", c.Post)
		}
	}
	for _, l := range d.Likes {
		if !users[l.User] || !posts[l.Post] {
			return fmt.Errorf("like: unknown user %q or post %q", l.User, l.Post)
		}
	}
	if d.Session != "" && !users[d.Session] {
		return fmt.Errorf("session: unknown user %q", d.Session)
	}
	return nil
}

// Apply writes d into the store inside tx. Posts are added in file order,
// so the last one ends up first in the feed.
func (d *Data) Apply(tx *repository.Tx) error {
	userIDs := make(map[string]int64, len(d.Users))
	for _, u := range d.Users {
		added, err := tx.AddUser(model.User{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Headline: u.Headline,
			Bio:      u.Bio,
		})
		if err != nil {
			return err
		}
		userIDs[u.Email] = added.ID
	}

	postIDs := make(map[string]int64, len(d.Posts))
	for _, p := range d.Posts {
		added, err := tx.AddPost(p.Content, userIDs[p.Author], "")
		if err != nil {
			return err
		}
		postIDs[p.Ref] = added.ID
	}

	for _, c := range d.Comments {
		if _, err := tx.AddComment(c.Content, userIDs[c.Author], postIDs[c.Post]); err != nil {
			return err
		}
	}
	for _, l := range d.Likes {
		if _, err := tx.ToggleLike(userIDs[l.User], postIDs[l.Post]); err != nil {
			return err
		}
	}

	if d.Session == "" {
		return nil
	}
	return tx.SetSession(model.Session{
		UserID:    userIDs[d.Session],
		SID:       xid.New().String(),
		CreatedAt: time.Now().UTC(),
	})
}

// IfEmpty applies d when the store has no users yet. The check and the
// writes share one transaction, so two processes starting together seed at
// most once. It reports whether anything was written.
func IfEmpty(ctx context.Context, repo *repository.Repository, d *Data, logger *slog.Logger) (bool, error) {
	seeded := false
	err := repo.Update(ctx, func(tx *repository.Tx) error {
		seeded = false
		users, err := tx.Users()
		if err != nil {
			return err
		}
		if len(users) > 0 {
			return nil
		}
		seeded = true
		return d.Apply(tx)
	})
	if err != nil {
		return false, fmt.Errorf("seed: applying: %w", err)
	}

	if seeded {
		logger.Info("seeded demo data",
			slog.Int("users", len(d.Users)),
			slog.Int("posts", len(d.Posts)),
		)
	}
	return seeded, nil
}
