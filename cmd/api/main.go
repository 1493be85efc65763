// Package main is the entrypoint for the Pokecatch API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/catalog"
	"github.com/pokecatch/pokecatch/internal/config"
	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	st, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to open store",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("store ready", slog.String("database_url", redactURL(cfg.DatabaseURL)))

	hasher, err := auth.NewPasswordHasher(auth.Argon2Params{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2Memory,
		Threads: cfg.Argon2Threads,
	})
	if err != nil {
		logger.Error("failed to initialise password hasher", "error", err)
		os.Exit(1)
	}

	issuer, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Error("failed to initialise token issuer", "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewInMemory()

	catalogClient, err := catalog.New(catalog.Config{
		BaseURL: cfg.CatalogBaseURL,
		Timeout: cfg.CatalogTimeout,
		RPS:     cfg.CatalogRPS,
		Burst:   cfg.CatalogBurst,
		Retries: cfg.CatalogRetries,
	}, recorder)
	if err != nil {
		logger.Error("failed to initialise catalog client", "error", err)
		os.Exit(1)
	}

	r, err := newRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		recorder: recorder,
		hasher:   hasher,
		issuer:   issuer,
		fetcher:  catalogClient,
	})
	if err != nil {
		logger.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("store", func(context.Context) error {
		return st.Close()
	})

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"catalog", cfg.CatalogBaseURL,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL drops the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError replaces every secret in err's message with its redacted form.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
