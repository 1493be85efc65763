package catalog

import (
	"context"
	"math/rand"
	"time"
)

// Backoff between attempts of one Fetch. Attempts past the end of the
// table reuse its last entry.
var retryDelays = []time.Duration{
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// JitterFactor is the ±fraction of jitter applied to retry delays.
const JitterFactor = 0.2

// nextRetryDelay returns the delay before retry number attempt (0-indexed).
func nextRetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(retryDelays) {
		attempt = len(retryDelays) - 1
	}

	base := float64(retryDelays[attempt])
	jitter := (rand.Float64()*2 - 1) * base * JitterFactor
	return time.Duration(base + jitter)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
