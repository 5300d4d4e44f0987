package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/storefront/internal/backend"
	"github.com/erazemk/storefront/internal/config"
	"github.com/erazemk/storefront/internal/db"
	"github.com/erazemk/storefront/internal/events"
	"github.com/erazemk/storefront/internal/session"
	"github.com/erazemk/storefront/internal/store"
	"github.com/erazemk/storefront/internal/telemetry"
	"github.com/erazemk/storefront/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const sessionSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	closeLog, err := setupLogger(cfg.LogPath, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("storefront failed", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter: cfg.Tracing,
		Endpoint: cfg.OTLPEndpoint,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			slog.Error("failed to flush traces", "error", err)
		}
	}()

	gw, err := backend.NewClient(cfg.BackendURL, backend.WithTimeout(cfg.BackendTimeout))
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	var database *sql.DB
	if cfg.Sessions == config.SessionsSQLite {
		database, err = db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		if err := db.Migrate(database); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
		slog.Info("database ready", "path", cfg.DBPath)
	}

	sessions, err := openSessionStore(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer sessions.Close()

	secret, err := sessionSecret(ctx, cfg, database)
	if err != nil {
		return err
	}

	pub, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	defer pub.Close()

	manager := session.NewManager(sessions, secret, cfg.SessionTTL, cfg.CookieSecure)
	router, err := web.NewRouter(gw, manager, pub)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	handler := web.LoggingMiddleware(telemetry.Middleware(router))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started",
		"addr", cfg.Addr,
		"backend", cfg.BackendURL,
		"sessions", cfg.Sessions,
		"tracing", cfg.Tracing,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, database *sql.DB) (session.Store, error) {
	switch cfg.Sessions {
	case config.SessionsSQLite:
		return session.NewSQLiteStore(database, cfg.SessionTTL, sessionSweepInterval), nil
	case config.SessionsRedis:
		st, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return st, nil
	default:
		return session.NewMemoryStore(cfg.SessionTTL, sessionSweepInterval), nil
	}
}

// sessionSecret picks the cookie signing key: the configured one, the one
// persisted in SQLite, or a random one that only lasts for this process.
func sessionSecret(ctx context.Context, cfg *config.Config, database *sql.DB) (string, error) {
	if cfg.SessionSecret != "" {
		return cfg.SessionSecret, nil
	}
	if database != nil {
		secret, err := store.GetSessionSecret(ctx, database)
		if err != nil {
			return "", fmt.Errorf("loading session secret: %w", err)
		}
		return secret, nil
	}

	secret, err := session.GenerateSecret()
	if err != nil {
		return "", err
	}
	if cfg.Sessions != config.SessionsMemory {
		slog.Warn("no session secret configured, sessions will not survive a restart")
	}
	return secret, nil
}

func openPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.KafkaBrokers == "" {
		return events.NopPublisher{}, nil
	}
	pub, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}
	slog.Info("publishing events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return pub, nil
}
