package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/repository"
	"github.com/sakif/linkedin-lite/internal/seed"
	"github.com/sakif/linkedin-lite/internal/store"
	"github.com/sakif/linkedin-lite/internal/store/sqlite"
)

// services is every service wired over one in-memory store.
type services struct {
	repo    *repository.Repository
	tokens  *auth.TokenService
	auth    *AuthService
	feed    *FeedService
	profile *ProfileService
	backup  *BackupService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServices(t *testing.T) *services {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	logger := discardLogger()
	s := store.New(db, logger)
	t.Cleanup(func() { s.Close() })

	repo := repository.New(s)
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	return &services{
		repo:    repo,
		tokens:  tokens,
		auth:    NewAuthService(repo, tokens, logger),
		feed:    NewFeedService(repo, logger),
		profile: NewProfileService(repo, logger),
		backup:  NewBackupService(repo, logger),
	}
}

// newSeededServices is newServices with the demo data loaded:
// Aisha (1) and Rohit (2), Aisha's post 1 and Rohit's post 2.
func newSeededServices(t *testing.T) *services {
	t.Helper()
	svc := newServices(t)
	d, err := seed.Demo()
	require.NoError(t, err)
	_, err = seed.IfEmpty(context.Background(), svc.repo, d, discardLogger())
	require.NoError(t, err)
	return svc
}
