package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pokecatch/pokecatch/internal/repository"
	"github.com/pokecatch/pokecatch/internal/repository/memory"
	"github.com/pokecatch/pokecatch/internal/repository/sqlite"
	"github.com/pokecatch/pokecatch/internal/service"
)

// appStore is what the API needs from a storage backend.
type appStore interface {
	service.UserStore
	service.CaughtStore
	Ping(ctx context.Context) error
	Close() error
}

// openStore selects a backend by the scheme of databaseURL.
func openStore(ctx context.Context, databaseURL string) (appStore, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		repo, err := repository.New(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	case "sqlite":
		path := strings.TrimPrefix(databaseURL, u.Scheme+"://")
		if path == "" {
			return nil, fmt.Errorf("DATABASE_URL %q has no sqlite path", u.Scheme+"://")
		}
		return sqlite.Open(ctx, path)
	case "file":
		return sqlite.Open(ctx, databaseURL)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme %q", u.Scheme)
	}
}
