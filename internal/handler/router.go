package handler

import (
	"net/http"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/logging"
	"github.com/Stewz00/wordwave-auth/internal/middleware"
	"github.com/Stewz00/wordwave-auth/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Auth    *AuthHandler
	Limiter *ratelimit.Limiter
	Log     logging.Logger

	// Gatherer backs /metrics. The route is omitted when nil.
	Gatherer prometheus.Gatherer

	// AuthRateLimit is an extra per-minute cap on /auth routes. Zero
	// disables it.
	AuthRateLimit int

	// TrustProxy honours client address headers set by a reverse proxy.
	TrustProxy bool
}

// NewRouter builds the HTTP surface. Every route, including /health and
// /metrics, is counted by the global rate limiter.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	clientKey := middleware.ClientKey(cfg.TrustProxy)

	// Global middleware
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RateLimiterWithKey(cfg.Limiter, clientKey, cfg.Log))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.StrictRateLimiter(cfg.AuthRateLimit, time.Minute, clientKey))

		r.Post("/register", cfg.Auth.Register)
		r.Post("/login", cfg.Auth.Login)
		r.Post("/forgot-password", cfg.Auth.ForgotPassword)
		r.Post("/reset-password", cfg.Auth.ResetPassword)

		r.With(cfg.Auth.RequireAuth).Get("/me", cfg.Auth.Me)
	})

	return r
}
