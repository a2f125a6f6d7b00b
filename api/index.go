package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/shortlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/shortlink/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
)

var mux http.Handler

func init() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel, cfg.AppEnv)

	// Note: On Vercel, a file database is ephemeral; use a libsql:// or postgres:// DATABASE_URL
	repo, err := sqldb.NewRepository(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		panic(err)
	}

	userService := services.NewUserService(repo, services.NewPasswordHasher(cfg.BcryptCost))
	mux = handler.NewRouter(handler.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(),
		URLs:    services.NewURLService(repo, services.NewCodeGenerator(cfg.CodeMaxAttempts), cfg.BaseURL),
		Auth:    services.NewAuthService(userService, services.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)),
		Users:   userService,
		Health:  repo.Ping,
	})
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
