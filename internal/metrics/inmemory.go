package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	RateLimited         map[string]uint64 // by route
	AuthFailures        map[string]uint64 // by reason
	UsersRegistered     uint64
	PokemonCaught       uint64
	PokemonReleased     uint64
	CatalogFetchOK      uint64
	CatalogFetchFailed  uint64
	CatalogFetchTotalNs int64
}

// InMemoryRecorder stores metrics in memory. It backs /metrics and tests.
type InMemoryRecorder struct {
	mu           sync.Mutex
	rateLimited  map[string]uint64
	authFailures map[string]uint64

	usersRegistered     uint64
	pokemonCaught       uint64
	pokemonReleased     uint64
	catalogFetchOK      uint64
	catalogFetchFailed  uint64
	catalogFetchTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		rateLimited:  make(map[string]uint64),
		authFailures: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	rl := make(map[string]uint64, len(m.rateLimited))
	for k, v := range m.rateLimited {
		rl[k] = v
	}
	af := make(map[string]uint64, len(m.authFailures))
	for k, v := range m.authFailures {
		af[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		RateLimited:         rl,
		AuthFailures:        af,
		UsersRegistered:     atomic.LoadUint64(&m.usersRegistered),
		PokemonCaught:       atomic.LoadUint64(&m.pokemonCaught),
		PokemonReleased:     atomic.LoadUint64(&m.pokemonReleased),
		CatalogFetchOK:      atomic.LoadUint64(&m.catalogFetchOK),
		CatalogFetchFailed:  atomic.LoadUint64(&m.catalogFetchFailed),
		CatalogFetchTotalNs: atomic.LoadInt64(&m.catalogFetchTotalNs),
	}
}

// IncRateLimited increments the rejected-request counter for route.
func (m *InMemoryRecorder) IncRateLimited(route string) {
	m.mu.Lock()
	m.rateLimited[route]++
	m.mu.Unlock()
}

// IncAuthFailure increments the authentication failure counter for reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.mu.Lock()
	m.authFailures[reason]++
	m.mu.Unlock()
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncPokemonCaught increments the catch counter.
func (m *InMemoryRecorder) IncPokemonCaught() {
	atomic.AddUint64(&m.pokemonCaught, 1)
}

// IncPokemonReleased increments the release counter.
func (m *InMemoryRecorder) IncPokemonReleased() {
	atomic.AddUint64(&m.pokemonReleased, 1)
}

// ObserveCatalogFetch records an upstream lookup.
func (m *InMemoryRecorder) ObserveCatalogFetch(duration time.Duration, ok bool) {
	if ok {
		atomic.AddUint64(&m.catalogFetchOK, 1)
	} else {
		atomic.AddUint64(&m.catalogFetchFailed, 1)
	}
	atomic.AddInt64(&m.catalogFetchTotalNs, duration.Nanoseconds())
}
