package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/linkedin-lite/internal/apperror"
	"github.com/sakif/linkedin-lite/internal/repository"
)

// BackupService exports and restores the whole store.
type BackupService struct {
	repo   *repository.Repository
	logger *slog.Logger
}

func NewBackupService(repo *repository.Repository, logger *slog.Logger) *BackupService {
	return &BackupService{repo: repo, logger: logger}
}

func (s *BackupService) Export(ctx context.Context) (*repository.Snapshot, error) {
	snap, err := s.repo.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting: %w", err)
	}
	return snap, nil
}

// Import replaces all data with snap. It logs everyone out, including the
// caller. The snapshot must have unique, positive ids per type and at most
// one like per (user, post); anything else is rejected before writing.
func (s *BackupService) Import(ctx context.Context, snap repository.Snapshot) error {
	if err := validateSnapshot(snap); err != nil {
		return err
	}
	if err := s.repo.Import(ctx, snap); err != nil {
		return fmt.Errorf("importing: %w", err)
	}
	s.logger.Warn("store replaced from backup",
		slog.Int("users", len(snap.Users)),
		slog.Int("posts", len(snap.Posts)),
		slog.Int("comments", len(snap.Comments)),
		slog.Int("likes", len(snap.Likes)),
	)
	return nil
}

func validateSnapshot(snap repository.Snapshot) error {
	ids := func(field string, n int, id func(i int) int64) error {
		seen := make(map[int64]bool, n)
		for i := range n {
			v := id(i)
			if v <= 0 {
				return apperror.ValidationFailed(field, fmt.Sprintf("%s: id %d is not positive", field, v))
			}
			if seen[v] {
				return apperror.ValidationFailed(field, fmt.Sprintf("%s: duplicate id %d", field, v))
			}
			seen[v] = true
		}
		return nil
	}

	if err := ids("users", len(snap.Users), func(i int) int64 { return snap.Users[i].ID }); err != nil {
		return err
	}
	if err := ids("posts", len(snap.Posts), func(i int) int64 { return snap.Posts[i].ID }); err != nil {
		return err
	}
	if err := ids("comments", len(snap.Comments), func(i int) int64 { return snap.Comments[i].ID }); err != nil {
		return err
	}
	if err := ids("likes", len(snap.Likes), func(i int) int64 { return snap.Likes[i].ID }); err != nil {
		return err
	}

	type pair struct{ user, post int64 }
	liked := make(map[pair]bool, len(snap.Likes))
	for _, l := range snap.Likes {
		p := pair{l.UserID, l.PostID}
		if liked[p] {
			return apperror.ValidationFailed("likes",
				fmt.Sprintf("likes: user %d likes post %d twice", l.UserID, l.PostID))
		}
		liked[p] = true
	}
	return nil
}
