package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/config"
	"github.com/pokecatch/pokecatch/internal/handler"
	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/middleware"
	"github.com/pokecatch/pokecatch/internal/ratelimit"
	"github.com/pokecatch/pokecatch/internal/service"
)

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    appStore
	recorder *metrics.InMemoryRecorder
	hasher   *auth.PasswordHasher
	issuer   *auth.TokenIssuer
	fetcher  service.Fetcher
}

// newRouter builds the chi router. Each rate limited route gets its own
// limiter, created here and owned by the returned router.
func newRouter(d routerDeps) (*chi.Mux, error) {
	cfg := d.cfg
	logger := d.logger

	authService := service.NewAuthService(d.store, d.hasher, d.issuer, d.recorder)
	caughtService := service.NewCaughtService(d.store, d.recorder)
	pokemonService := service.NewPokemonService(d.fetcher)

	h := handler.New()
	healthHandler := handler.NewHealthHandler(d.store)
	metricsHandler := handler.NewMetricsHandler(d.recorder)
	authHandler := handler.NewAuthHandler(authService, logger)
	pokemonHandler := handler.NewPokemonHandler(pokemonService, logger)
	caughtHandler := handler.NewCaughtHandler(caughtService, logger)

	rl := middleware.RateLimitConfig{
		Logger:  logger,
		Metrics: d.recorder,
		Enabled: cfg.RateLimitEnabled,
	}
	limits := cfg.RateLimits
	limited := func(route string, limit int, interval time.Duration) (func(chi.Router) chi.Router, error) {
		w, err := ratelimit.NewSlidingWindow(ratelimit.Policy{Limit: limit, Interval: interval})
		if err != nil {
			return nil, fmt.Errorf("rate limit for %s: %w", route, err)
		}
		mw := middleware.RateLimit(route, w, rl)
		return func(r chi.Router) chi.Router { return r.With(mw) }, nil
	}

	register, err := limited("register", limits.RegisterLimit, limits.RegisterInterval)
	if err != nil {
		return nil, err
	}
	login, err := limited("login", limits.LoginLimit, limits.LoginInterval)
	if err != nil {
		return nil, err
	}
	catch, err := limited("catch", limits.CatchLimit, limits.CatchInterval)
	if err != nil {
		return nil, err
	}
	release, err := limited("release", limits.ReleaseLimit, limits.ReleaseInterval)
	if err != nil {
		return nil, err
	}
	caught, err := limited("caught", limits.CaughtLimit, limits.CaughtInterval)
	if err != nil {
		return nil, err
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:   logger,
		Verifier: d.issuer,
		Metrics:  d.recorder,
	})

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.CORS(corsCfg))

	r.Get("/", h.Hello)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	register(r).Post("/register", authHandler.Register)
	login(r).Post("/login", authHandler.Login)
	r.Get("/pokemon/{name}", pokemonHandler.Get)

	// Rate limiting runs before authentication, so a request can be
	// rejected with 429 without presenting a token.
	r.Route("/protected", func(r chi.Router) {
		catch(r).With(requireAuth).Post("/catch", caughtHandler.Catch)
		release(r).With(requireAuth).Delete("/release/{id}", caughtHandler.Release)
		caught(r).With(requireAuth).Get("/caught", caughtHandler.List)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r, nil
}
