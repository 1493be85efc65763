package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(route string) {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(reason string) {}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncPokemonCaught is a no-op.
func (n *NoopRecorder) IncPokemonCaught() {}

// IncPokemonReleased is a no-op.
func (n *NoopRecorder) IncPokemonReleased() {}

// ObserveCatalogFetch is a no-op.
func (n *NoopRecorder) ObserveCatalogFetch(duration time.Duration, ok bool) {}
