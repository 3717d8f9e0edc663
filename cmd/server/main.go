// Command server runs the LinkedIn Lite API.
//
// Configuration comes from the environment (see internal/config). The
// process exits non-zero if the configuration is invalid or the store
// cannot be opened.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/sakif/linkedin-lite/internal/auth"
	"github.com/sakif/linkedin-lite/internal/config"
	"github.com/sakif/linkedin-lite/internal/repository"
	"github.com/sakif/linkedin-lite/internal/seed"
	"github.com/sakif/linkedin-lite/internal/server"
	"github.com/sakif/linkedin-lite/internal/store"
	"github.com/sakif/linkedin-lite/internal/store/redis"
	"github.com/sakif/linkedin-lite/internal/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "linkedin-lite: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	s := store.New(backend, logger)
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	repo := repository.New(s)
	if cfg.SeedDemo {
		d, err := seed.Demo()
		if err != nil {
			return err
		}
		if _, err := seed.IfEmpty(ctx, repo, d, logger); err != nil {
			return err
		}
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{Port: cfg.Port, SecureCookie: cfg.SecureCookie}, repo, tokens, logger)
	return srv.Start(ctx)
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		logger.Info("using redis store", slog.String("addr", cfg.RedisAddr), slog.Int("db", cfg.RedisDB))
		return redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	default:
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
		logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
		return sqlite.New(cfg.DBPath)
	}
}
