package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/pokecatch/pokecatch/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, route := range sortedKeys(snap.RateLimited) {
		writeMetric(w, "pokecatch_rate_limited_total{route=%q} %d\n", route, snap.RateLimited[route])
	}
	for _, reason := range sortedKeys(snap.AuthFailures) {
		writeMetric(w, "pokecatch_auth_failures_total{reason=%q} %d\n", reason, snap.AuthFailures[reason])
	}

	writeMetric(w, "pokecatch_users_registered_total %d\n", snap.UsersRegistered)
	writeMetric(w, "pokecatch_pokemon_caught_total %d\n", snap.PokemonCaught)
	writeMetric(w, "pokecatch_pokemon_released_total %d\n", snap.PokemonReleased)

	writeMetric(w, "pokecatch_catalog_fetches_total{status=\"ok\"} %d\n", snap.CatalogFetchOK)
	writeMetric(w, "pokecatch_catalog_fetches_total{status=\"failed\"} %d\n", snap.CatalogFetchFailed)
	writeMetric(w, "pokecatch_catalog_fetch_duration_seconds_sum %.6f\n", float64(snap.CatalogFetchTotalNs)/1e9)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
