package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/auth"
	"github.com/Stewz00/wordwave-auth/internal/config"
	"github.com/Stewz00/wordwave-auth/internal/database"
	"github.com/Stewz00/wordwave-auth/internal/handler"
	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/logging"
	"github.com/Stewz00/wordwave-auth/internal/mail"
	"github.com/Stewz00/wordwave-auth/internal/metrics"
	"github.com/Stewz00/wordwave-auth/internal/ratelimit"
	"github.com/Stewz00/wordwave-auth/internal/repository"
	"github.com/Stewz00/wordwave-auth/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

var migrateOnStart bool

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	log := logger.With("service", "wordwave-auth")
	log.Info(ctx, "starting", "env", cfg.Env, "port", cfg.Port)

	if migrateOnStart {
		if err := migrateUp(cfg.DbURL); err != nil {
			return err
		}
		log.Info(ctx, "migrations applied")
	}

	// Initialize database
	db, err := database.New(ctx, cfg.DbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	mailer, err := mail.New(cfg.Mail, cfg.ResetURL, log)
	if err != nil {
		return err
	}

	// Initialize repositories, services, and handlers
	clock := interfaces.SystemClock{}
	userRepo := repository.NewUserRepository(db)
	hasher := auth.NewBcryptHasher()
	tokens := auth.NewTokenIssuer(cfg.JwtSecret, cfg.AccessTokenTTL, clock)
	resets := auth.NewResetTokenManager(userRepo, hasher, clock)
	authService := service.NewAuthService(userRepo, hasher, tokens, resets, mailer, clock, log)
	authHandler := handler.NewAuthHandler(authService, log)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
	}, ratelimit.NewMemoryStore(), clock, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterMetrics(reg)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:          authHandler,
		Limiter:       limiter,
		Log:           log,
		Gatherer:      reg,
		AuthRateLimit: cfg.AuthRateLimitMax,
		TrustProxy:    cfg.TrustProxy,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go limiter.Run(ctx)

	// Create server with timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("SERVER_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info(context.Background(), "server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
	}

	log.Info(context.Background(), "server exited properly")
	return nil
}
