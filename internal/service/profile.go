package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/linkedin-lite/internal/apperror"
	"github.com/sakif/linkedin-lite/internal/model"
	"github.com/sakif/linkedin-lite/internal/repository"
)

// ProfileService reads and edits user profiles.
type ProfileService struct {
	repo   *repository.Repository
	logger *slog.Logger
}

func NewProfileService(repo *repository.Repository, logger *slog.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

// ProfileUpdate is the profile form. An empty ProfilePicURL keeps the
// current picture.
type ProfileUpdate struct {
	Name          string
	Headline      string
	Bio           string
	ProfilePicURL string
}

// ProfileView is a profile page: the user and how many posts they have.
type ProfileView struct {
	User      model.Profile `json:"user"`
	PostCount int           `json:"postCount"`
}

// UpdateProfile edits userID's name, headline, bio and picture. Email and
// password are not editable here.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdate) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	var updated *model.User
	err := s.repo.Update(ctx, func(tx *repository.Tx) error {
		u, err := tx.UserByID(userID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperror.NotFound("user", userID)
		}

		u.Name = in.Name
		u.Headline = strings.TrimSpace(in.Headline)
		u.Bio = strings.TrimSpace(in.Bio)
		if in.ProfilePicURL != "" {
			u.ProfilePicURL = in.ProfilePicURL
		}
		updated = u
		return tx.UpdateUser(*u)
	})
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile of user %d: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.Int64("userID", userID))
	return updated, nil
}

// Get returns userID's profile page.
func (s *ProfileService) Get(ctx context.Context, userID int64) (*ProfileView, error) {
	var view *ProfileView
	err := s.repo.View(ctx, func(tx *repository.Tx) error {
		u, err := tx.UserByID(userID)
		if err != nil {
			return err
		}
		if u == nil {
			return apperror.NotFound("user", userID)
		}
		posts, err := tx.PostsByAuthor(userID)
		if err != nil {
			return err
		}
		view = &ProfileView{User: u.Profile(), PostCount: len(posts)}
		return nil
	})
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile of user %d: %w", userID, err)
	}
	return view, nil
}
