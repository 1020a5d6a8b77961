package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/chatsync/internal/server/handlers"
	"github.com/iudanet/chatsync/internal/server/middleware"
	"github.com/iudanet/chatsync/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 720 * time.Hour // 30 дней

	// Отдельный, более строгий лимит на auth-эндпоинты: защита от
	// перебора паролей
	authRateLimit   = 10
	entityRateLimit = 300
	rateLimitWindow = time.Minute

	tokenCleanupInterval = time.Hour
	shutdownTimeout      = 10 * time.Second
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", ":8080", "Address to listen on")
	dbPath := flag.String("db", "chatsync-server.db", "Path to SQLite database")
	jwtSecret := flag.String("jwt-secret", "", "JWT signing secret (or CHATSYNC_JWT_SECRET env)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := newLogger(*logLevel)

	secret := *jwtSecret
	if secret == "" {
		secret = os.Getenv("CHATSYNC_JWT_SECRET")
	}
	if secret == "" {
		logger.Error("JWT secret is not configured, use -jwt-secret or CHATSYNC_JWT_SECRET")
		os.Exit(1)
	}

	if err := run(logger, *addr, *dbPath, secret); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, addr, dbPath, secret string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	jwtConfig := handlers.JWTConfig{
		Secret:          []byte(secret),
		AccessTokenTTL:  accessTokenTTL,
		RefreshTokenTTL: refreshTokenTTL,
	}

	authHandler := handlers.NewAuthHandler(logger, store, store, jwtConfig)
	entitiesHandler := handlers.NewEntitiesHandler(logger, store)
	healthHandler := handlers.NewHealthHandler(logger, Version)

	// Протухшие refresh токены чистим в фоне
	go cleanupExpiredTokens(ctx, store, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler.Health)

	authLimit := middleware.RateLimitMiddleware(authRateLimit, rateLimitWindow, logger)
	mux.Handle("POST /api/v1/auth/register", authLimit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", authLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/refresh", authLimit(http.HandlerFunc(authHandler.Refresh)))

	// Entity-эндпоинты защищены JWT
	authRequired := middleware.AuthMiddleware(logger, jwtConfig)
	entityLimit := middleware.RateLimitMiddleware(entityRateLimit, rateLimitWindow, logger)
	protect := func(h http.HandlerFunc) http.Handler {
		return entityLimit(authRequired(h))
	}

	mux.Handle("GET /api/v1/entities/{kind}", protect(entitiesHandler.List))
	mux.Handle("GET /api/v1/entities/{kind}/{id}", protect(entitiesHandler.Get))
	mux.Handle("PUT /api/v1/entities/{kind}/{id}", protect(entitiesHandler.Put))
	mux.Handle("DELETE /api/v1/entities/{kind}/{id}", protect(entitiesHandler.Delete))

	// Внешняя цепочка: recovery ловит панику в том числе из логирования
	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/healthz"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// cleanupExpiredTokens периодически удаляет истекшие refresh токены
func cleanupExpiredTokens(ctx context.Context, store *sqlite.Storage, logger *slog.Logger) {
	ticker := time.NewTicker(tokenCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := store.DeleteExpiredTokens(ctx)
			if err != nil {
				logger.Error("failed to delete expired tokens", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired refresh tokens removed", "count", deleted)
			}
		}
	}
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func printVersion() {
	fmt.Printf("ChatSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
