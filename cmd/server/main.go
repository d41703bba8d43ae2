// Command taskflow-server starts the TaskFlow HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskflow/backend/internal/config"
	"github.com/taskflow/backend/internal/limiter"
	"github.com/taskflow/backend/internal/migrate"
	"github.com/taskflow/backend/internal/repository/postgres"
	httpserver "github.com/taskflow/backend/internal/server/http"
	"github.com/taskflow/backend/internal/service"
	"github.com/taskflow/backend/internal/token"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.ParseEnv()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)
	if cfg.SecretKey == config.InsecureDefaultSecret {
		logger.Warn("SECRET_KEY is unset; using the insecure built-in default — do not run this in production")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	userRepo := postgres.NewUserRepo(db)
	taskRepo := postgres.NewTaskRepo(db)

	lim := limiter.NewPG(pool, cfg.LoginFailWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)

	tokens, err := token.New(cfg.SecretKey, cfg.Algorithm, cfg.AccessTTL())
	if err != nil {
		logger.Fatal("token service", zap.Error(err))
	}

	// Services
	authSvc := service.NewAuthService(userRepo, tokens, lim)
	taskSvc := service.NewTaskService(taskRepo)

	// HTTP server
	app := httpserver.New(authSvc, taskSvc, logger)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router(httpserver.DefaultCORS(cfg.CORSOrigins)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
