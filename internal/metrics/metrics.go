// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Admission metrics
	IncRateLimited(route string)
	IncAuthFailure(reason string) // reason: "missing", "malformed", "signature", "expired", "credentials"

	// Domain metrics
	IncUserRegistered()
	IncPokemonCaught()
	IncPokemonReleased()

	// Upstream catalog metrics
	ObserveCatalogFetch(duration time.Duration, ok bool)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
