// Package ratelimit provides per-route admission control using a sliding
// window request log.
//
// Each limiter keeps the exact timestamps of recent requests and rejects a
// request when more than Limit of them fall inside the trailing Interval.
// Unlike fixed windows there is no burst at window boundaries.
//
// State is local to the process. A limiter is safe for concurrent use.
package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidPolicy is returned when a policy has a non-positive limit or interval.
var ErrInvalidPolicy = errors.New("rate limit policy requires positive limit and interval")

// Policy configures a single route's limiter.
type Policy struct {
	Limit    int
	Interval time.Duration
}

// Validate checks that both Limit and Interval are positive.
func (p Policy) Validate() error {
	if p.Limit <= 0 || p.Interval <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time     // when the oldest logged request leaves the window
	RetryAfter time.Duration // meaningful only when denied
}

// SlidingWindow is a logged sliding window limiter for one route.
type SlidingWindow struct {
	policy Policy
	now    func() time.Time

	mu     sync.Mutex
	stamps []time.Time
}

// Option configures a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock overrides the time source used by Allow.
func WithClock(now func() time.Time) Option {
	return func(w *SlidingWindow) { w.now = now }
}

// NewSlidingWindow creates a limiter for the given policy.
func NewSlidingWindow(policy Policy, opts ...Option) (*SlidingWindow, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	w := &SlidingWindow{
		policy: policy,
		now:    time.Now,
		stamps: make([]time.Time, 0, policy.Limit+1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Policy returns the limiter's configuration.
func (w *SlidingWindow) Policy() Policy {
	return w.policy
}

// Allow runs an admission check at the limiter's current time.
func (w *SlidingWindow) Allow() Decision {
	return w.Admit(w.now())
}

// Admit records a request at now and decides whether it is admitted.
//
// The request is logged before eviction, so a rejected request still
// occupies the window. Timestamps older than now-Interval are evicted from
// the front of the log. The log never holds more than Limit+1 entries: once
// Limit+1 in-window entries exist every decision is a rejection, so older
// surplus entries cannot change the outcome.
func (w *SlidingWindow) Admit(now time.Time) Decision {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Out-of-order clocks are clamped so the log stays sorted.
	if n := len(w.stamps); n > 0 && now.Before(w.stamps[n-1]) {
		now = w.stamps[n-1]
	}
	w.stamps = append(w.stamps, now)

	cutoff := now.Add(-w.policy.Interval)
	evict := 0
	for evict < len(w.stamps) && w.stamps[evict].Before(cutoff) {
		evict++
	}

	if over := len(w.stamps) - evict - (w.policy.Limit + 1); over > 0 {
		evict += over
	}
	if evict > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[evict:]...)
	}

	count := len(w.stamps)
	resetAt := w.stamps[0].Add(w.policy.Interval)

	if count > w.policy.Limit {
		return Decision{
			Allowed:    false,
			Limit:      w.policy.Limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(w.stamps, w.policy, now),
		}
	}

	return Decision{
		Allowed:   true,
		Limit:     w.policy.Limit,
		Remaining: w.policy.Limit - count,
		ResetAt:   resetAt,
	}
}

// Len returns the number of logged timestamps (for testing/metrics).
func (w *SlidingWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stamps)
}

// retryAfter is the wait until enough entries expire for one more request
// to fit. A request at t is admitted once the window holds at most Limit-1
// earlier entries, i.e. after stamps[count-Limit] leaves the window.
func retryAfter(stamps []time.Time, policy Policy, now time.Time) time.Duration {
	idx := len(stamps) - policy.Limit
	if idx < 0 {
		return 0
	}
	// Entries equal to the cutoff are still inside the window.
	d := stamps[idx].Add(policy.Interval).Sub(now) + time.Millisecond
	if d < 0 {
		return 0
	}
	return d
}
