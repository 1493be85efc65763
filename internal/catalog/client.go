// Package catalog fetches pokemon data from the upstream catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pokecatch/pokecatch/internal/metrics"
)

const (
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second
	// MaxResponseSize caps how much of an upstream body is read.
	MaxResponseSize = 4 << 20
)

var (
	// ErrNotFound means the upstream has no entry for the name.
	ErrNotFound = errors.New("pokemon not found upstream")
	// ErrUnavailable means the upstream could not be reached or answered badly.
	ErrUnavailable = errors.New("catalog unavailable")
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
	// Retries is how many times a transient failure (network error,
	// 429 or 5xx) is retried. Zero disables retries.
	Retries int
}

// Client is a throttled HTTP client for the catalog API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	metrics metrics.Recorder
	retries int
}

// NewHTTPClient creates an HTTP client with bounded timeouts that does not
// follow redirects.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// New creates a Client. A nil recorder disables metrics.
func New(cfg Config, recorder metrics.Recorder) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RPS <= 0 || cfg.Burst <= 0 {
		return nil, errors.New("catalog RPS and burst must be positive")
	}
	if cfg.Retries < 0 {
		return nil, errors.New("catalog retries must not be negative")
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    NewHTTPClient(cfg.Timeout),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		metrics: recorder,
		retries: cfg.Retries,
	}, nil
}

// Fetch returns the upstream JSON document for name.
// It returns ErrNotFound on 404 and ErrUnavailable for every other failure.
func (c *Client) Fetch(ctx context.Context, name string) (json.RawMessage, error) {
	start := time.Now()
	body, err := c.fetchWithRetry(ctx, name)
	c.metrics.ObserveCatalogFetch(time.Since(start), err == nil)
	return body, err
}

func (c *Client) fetchWithRetry(ctx context.Context, name string) (json.RawMessage, error) {
	for attempt := 0; ; attempt++ {
		body, transient, err := c.fetch(ctx, name)
		if err == nil || !transient || attempt >= c.retries {
			return body, err
		}
		if err := sleep(ctx, nextRetryDelay(attempt)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
}

// fetch makes one attempt. transient reports whether retrying may help.
func (c *Client) fetch(ctx context.Context, name string) (data json.RawMessage, transient bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("%w: throttled: %v", ErrUnavailable, err)
	}

	endpoint := c.baseURL + "/pokemon/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Pokecatch/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if len(body) > MaxResponseSize {
		return nil, false, fmt.Errorf("%w: response exceeds %d bytes", ErrUnavailable, MaxResponseSize)
	}
	if !json.Valid(body) {
		return nil, false, fmt.Errorf("%w: invalid JSON", ErrUnavailable)
	}

	return json.RawMessage(body), false, nil
}
