// Package server is the composition root: it wires services into handlers,
// mounts them on a chi router and runs the HTTP server.
//
//	store → repository → services → handlers → router
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/handler"
	"github.com/sakif/linkedin-lite/internal/middleware"
	"github.com/sakif/linkedin-lite/internal/repository"
	"github.com/sakif/linkedin-lite/internal/service"
)

// Config holds the server settings.
type Config struct {
	Port         int
	SecureCookie bool
}

// Server owns the router. It does not own the store: whoever opened the
// store closes it after Start returns.
type Server struct {
	router http.Handler
	config Config
	logger *slog.Logger
}

// New wires every service and handler over repo.
func New(cfg Config, repo *repository.Repository, tokens *auth.TokenService, logger *slog.Logger) *Server {
	authSvc := service.NewAuthService(repo, tokens, logger)

	return &Server{
		router: NewRouter(Handlers{
			Auth:    handler.NewAuthHandler(authSvc, logger, cfg.SecureCookie),
			Feed:    handler.NewFeedHandler(service.NewFeedService(repo, logger), logger),
			Profile: handler.NewProfileHandler(service.NewProfileService(repo, logger), logger),
			Backup:  handler.NewBackupHandler(service.NewBackupService(repo, logger), logger),
		}, authSvc, logger),
		config: cfg,
		logger: logger,
	}
}

// Handlers groups the route handlers NewRouter mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Feed    *handler.FeedHandler
	Profile *handler.ProfileHandler
	Backup  *handler.BackupHandler
}

// NewRouter builds the API router:
//
//	POST   /api/auth/signup
//	POST   /api/auth/login
//	POST   /api/auth/logout
//	GET    /api/me                      (auth)
//	GET    /api/feed?q=                 (auth)
//	POST   /api/posts                   (auth)
//	DELETE /api/posts/{id}              (auth)
//	POST   /api/posts/{id}/comments     (auth)
//	POST   /api/posts/{id}/like         (auth)
//	GET    /api/users/{id}              (auth)
//	GET    /api/users/{id}/posts        (auth)
//	PUT    /api/profile                 (auth)
//	GET    /api/backup                  (auth)
//	PUT    /api/backup                  (auth)
//	GET    /healthz
func NewRouter(h Handlers, authn auth.Authenticator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Auth.HandleSignup)
		r.Post("/auth/login", h.Auth.HandleLogin)
		r.Post("/auth/logout", h.Auth.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authn))

			r.Get("/me", h.Auth.HandleMe)
			r.Get("/feed", h.Feed.HandleFeed)

			r.Post("/posts", h.Feed.HandleCreatePost)
			r.Delete("/posts/{id}", h.Feed.HandleDeletePost)
			r.Post("/posts/{id}/comments", h.Feed.HandleComment)
			r.Post("/posts/{id}/like", h.Feed.HandleToggleLike)

			r.Get("/users/{id}", h.Profile.HandleGet)
			r.Get("/users/{id}/posts", h.Feed.HandleUserPosts)
			r.Put("/profile", h.Profile.HandleUpdate)

			r.Get("/backup", h.Backup.HandleExport)
			r.Put("/backup", h.Backup.HandleImport)
		})
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully, giving
// in-flight requests up to 30 seconds.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
