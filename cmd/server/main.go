package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Repository
	repo, err := sqldb.NewRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer repo.Close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newHandler(cfg, log, repo),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("database", repo.Dialect()).
		Str("env", cfg.AppEnv).
		Msg("server starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

// newHandler builds the services on top of repo and returns the routed handler.
func newHandler(cfg *config.Config, log zerolog.Logger, repo *sqldb.Repository) http.Handler {
	codes := services.NewCodeGenerator(cfg.CodeMaxAttempts)
	urlService := services.NewURLService(repo, codes, cfg.BaseURL)
	userService := services.NewUserService(repo, services.NewPasswordHasher(cfg.BcryptCost))
	authService := services.NewAuthService(userService, services.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn))

	return handler.NewRouter(handler.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(),
		URLs:    urlService,
		Auth:    authService,
		Users:   userService,
		Health:  repo.Ping,
	})
}
