// Package service holds the business rules between the HTTP handlers and
// the repository:
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces rules, orchestrates
//	Repository      → typed access to the stored collections
//
// Services return apperror values for anything the caller did wrong and
// wrapped errors for infrastructure failures. They never see HTTP types.
//
// A service method that reads and then writes does both inside one
// repository.Update, so the check and the write cannot be split by another
// request. Callbacks may be retried by the store, which is why they only
// assign to captured variables and never append to them.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/linkedin-lite/internal/apperror"
	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/repository"
)

// ErrNoSession is returned by Authenticate for a token that does not name
// the stored session.
var ErrNoSession = errors.New("service/auth: no such session")

// AuthService manages the single stored session: login, signup, logout and
// resolving who is logged in.
type AuthService struct {
	repo   *repository.Repository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(repo *repository.Repository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

// AuthResult bundles the logged-in user with the token the handler puts in
// the cookie.
type AuthResult struct {
	User  *model.User
	Token string
}

// SignupInput is the signup form.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Headline string
	Bio      string
}

// Login starts a new session for the one user whose email and password both
// match exactly. Anything else is apperror.ErrInvalidCredentials, with no
// hint which field was wrong, and leaves the stored session as it was.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var (
		user *model.User
		sess model.Session
	)
	err := s.repo.Update(ctx, func(tx *repository.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		var matches []model.User
		for _, u := range users {
			if u.Email == email && u.Password == password {
				matches = append(matches, u)
			}
		}
		if len(matches) != 1 {
			return apperror.InvalidCredentials()
		}

		user = &matches[0]
		sess = newSession(user.ID)
		return tx.SetSession(sess)
	})
	if errors.Is(err, apperror.ErrInvalidCredentials) {
		s.logger.Info("login failed", slog.String("email", email))
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: logging in: %w", err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return s.result(user, sess)
}

// Signup creates an account and logs it in, in one transaction. An email
// that is already registered is apperror.ErrConflict and nothing is
// written.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Headline = strings.TrimSpace(in.Headline)
	in.Bio = strings.TrimSpace(in.Bio)

	switch {
	case in.Name == "":
		return nil, apperror.ValidationFailed("name", "name is required")
	case strings.TrimSpace(in.Email) == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case in.Password == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	var (
		user *model.User
		sess model.Session
	)
	err := s.repo.Update(ctx, func(tx *repository.Tx) error {
		existing, err := tx.UserByEmail(in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.DuplicateEmail()
		}

		user, err = tx.AddUser(model.User{
			Name:     in.Name,
			Email:    in.Email,
			Password: in.Password,
			Headline: in.Headline,
			Bio:      in.Bio,
		})
		if err != nil {
			return err
		}
		sess = newSession(user.ID)
		return tx.SetSession(sess)
	})
	if errors.Is(err, apperror.ErrConflict) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: signing up: %w", err)
	}

	s.logger.Info("user signed up", slog.Int64("userID", user.ID))
	return s.result(user, sess)
}

// Logout ends the stored session. Logging out while anonymous is fine.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.repo.ClearSession(ctx); err != nil {
		return fmt.Errorf("service/auth: logging out: %w", err)
	}
	s.logger.Info("user logged out")
	return nil
}

// CurrentUser resolves the stored session. It returns nil when nobody is
// logged in and also when the session names a user that no longer exists.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	var user *model.User
	err := s.repo.View(ctx, func(tx *repository.Tx) error {
		sess, err := tx.Session()
		if err != nil || sess == nil {
			user = nil
			return err
		}
		user, err = tx.UserByID(sess.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service/auth: reading session: %w", err)
	}
	return user, nil
}

// Authenticate implements auth.Authenticator: the token must verify and
// name the stored session, and that session's user must still exist.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.repo.View(ctx, func(tx *repository.Tx) error {
		sess, err := tx.Session()
		if err != nil {
			return err
		}
		if sess == nil || sess.SID != claims.SID || sess.UserID != claims.UserID {
			return ErrNoSession
		}
		user, err = tx.UserByID(sess.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrNoSession
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) result(user *model.User, sess model.Session) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID, sess.SID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func newSession(userID int64) model.Session {
	return model.Session{
		UserID:    userID,
		SID:       xid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
}

var _ auth.Authenticator = (*AuthService)(nil)
