package service

import (
	"context"
	"encoding/json"
	"fmt"
)

// Fetcher looks up pokemon data upstream.
type Fetcher interface {
	Fetch(ctx context.Context, name string) (json.RawMessage, error)
}

// PokemonService reads catalog data from the upstream API.
type PokemonService struct {
	fetcher Fetcher
}

// NewPokemonService creates a new PokemonService.
func NewPokemonService(fetcher Fetcher) *PokemonService {
	return &PokemonService{fetcher: fetcher}
}

// Lookup returns the upstream document for name. Every failure, including
// an unreachable upstream, is reported as ErrPokemonNotFound wrapping the cause.
func (s *PokemonService) Lookup(ctx context.Context, name string) (json.RawMessage, error) {
	n, err := NormalizePokemonName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPokemonNotFound, err)
	}

	data, err := s.fetcher.Fetch(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPokemonNotFound, err)
	}
	return data, nil
}
