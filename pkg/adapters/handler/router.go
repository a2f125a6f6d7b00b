package handler

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/metrics"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

//go:embed openapi.yaml
var openAPIDocument []byte

// Dependencies are the collaborators the router wires into its handlers
type Dependencies struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	URLs    ports.URLService
	Auth    ports.AuthService
	Users   ports.UserService
	Health  func(ctx context.Context) error
}

// NewRouter creates and configures the main application router
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	// Initialize Handlers
	urls := NewURLHandler(deps.URLs, deps.Logger, deps.Metrics)
	redirects := NewRedirectHandler(deps.URLs, deps.Logger, deps.Metrics, cfg.ProbeSniffing)
	authHandler := NewAuthHandler(cfg, deps.Auth, deps.Users, deps.Logger)

	// Initialize Middleware
	mw := NewMiddleware(deps.Auth, deps.Logger, deps.Metrics)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", healthHandler(deps.Health))
	mux.Handle("GET /metrics", deps.Metrics.Handler())
	mux.HandleFunc("GET /docs/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(openAPIDocument)
	})
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)
	if cfg.GoogleEnabled() {
		mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
		mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	}
	mux.Handle("POST /shorten", mw.OptionalAuth(http.HandlerFunc(urls.Shorten)))
	mux.HandleFunc("GET /{short_code}", redirects.Redirect)

	// Protected Routes
	mux.Handle("GET /auth/me", mw.RequireAuth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /urls", mw.RequireAuth(http.HandlerFunc(urls.List)))
	mux.Handle("PUT /urls/{id}", mw.RequireAuth(http.HandlerFunc(urls.Update)))
	mux.Handle("DELETE /urls/{id}", mw.RequireAuth(http.HandlerFunc(urls.Delete)))
	mux.Handle("GET /urls/{id}/stats", mw.RequireAuth(http.HandlerFunc(urls.Stats)))

	return CORS(cfg.AllowedOrigins)(mw.Observe(mux))
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeErrorStatus(w, http.StatusServiceUnavailable, domain.KindInternal, "database unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, MessageResponse{Message: "ok"})
	}
}
