package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Metrics tracks operational counters for fetches and import runs.
// All methods are safe on a nil receiver so components can run unmetered.
type Metrics struct {
	// Fetch metrics
	FetchesTotal    atomic.Int64
	FetchesFailed   atomic.Int64
	FetchesRetried  atomic.Int64
	FetchesSkipped  atomic.Int64
	BytesDownloaded atomic.Int64

	// Response metrics
	Responses2xx atomic.Int64
	Responses3xx atomic.Int64
	Responses4xx atomic.Int64
	Responses5xx atomic.Int64

	// Discovery metrics
	URLsDiscovered atomic.Int64

	// Import metrics
	EntitiesCreated   atomic.Int64
	EntitiesDuplicate atomic.Int64
	EntitiesInvalid   atomic.Int64
	EntitiesFailed    atomic.Int64

	// Run metrics
	RunsStarted   atomic.Int64
	RunsCompleted atomic.Int64
	ActiveRuns    atomic.Int32

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// RecordFetch counts one fetch attempt and its status class.
func (m *Metrics) RecordFetch(status int, bytes int) {
	if m == nil {
		return
	}
	m.FetchesTotal.Add(1)
	m.BytesDownloaded.Add(int64(bytes))
	switch {
	case status >= 500:
		m.Responses5xx.Add(1)
	case status >= 400:
		m.Responses4xx.Add(1)
	case status >= 300:
		m.Responses3xx.Add(1)
	case status >= 200:
		m.Responses2xx.Add(1)
	}
}

// RecordRetry counts one retry.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.FetchesRetried.Add(1)
}

// RecordFailure counts a fetch that exhausted its retries.
func (m *Metrics) RecordFailure() {
	if m == nil {
		return
	}
	m.FetchesFailed.Add(1)
}

// RecordSkip counts a fetch short-circuited by the visited set.
func (m *Metrics) RecordSkip() {
	if m == nil {
		return
	}
	m.FetchesSkipped.Add(1)
}

// RecordDiscovered counts URLs placed into discovery buckets.
func (m *Metrics) RecordDiscovered(n int) {
	if m == nil {
		return
	}
	m.URLsDiscovered.Add(int64(n))
}

// RecordResult counts one per-item import result by status name.
func (m *Metrics) RecordResult(status string) {
	if m == nil {
		return
	}
	switch status {
	case "created":
		m.EntitiesCreated.Add(1)
	case "skipped_duplicate":
		m.EntitiesDuplicate.Add(1)
	case "skipped_invalid":
		m.EntitiesInvalid.Add(1)
	case "failed":
		m.EntitiesFailed.Add(1)
	}
}

// RunStarted marks the start of an import run.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsStarted.Add(1)
	m.ActiveRuns.Add(1)
}

// RunFinished marks the end of an import run.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.RunsCompleted.Add(1)
	m.ActiveRuns.Add(-1)
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	metrics := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"okkyno_fetches_total", "Total fetch attempts", "counter", m.FetchesTotal.Load()},
		{"okkyno_fetches_failed_total", "Fetches that exhausted retries", "counter", m.FetchesFailed.Load()},
		{"okkyno_fetches_retried_total", "Total fetch retries", "counter", m.FetchesRetried.Load()},
		{"okkyno_fetches_skipped_total", "Fetches skipped as already visited", "counter", m.FetchesSkipped.Load()},
		{"okkyno_bytes_downloaded_total", "Total bytes downloaded", "counter", m.BytesDownloaded.Load()},
		{"okkyno_responses_2xx_total", "Total 2xx responses", "counter", m.Responses2xx.Load()},
		{"okkyno_responses_3xx_total", "Total 3xx responses", "counter", m.Responses3xx.Load()},
		{"okkyno_responses_4xx_total", "Total 4xx responses", "counter", m.Responses4xx.Load()},
		{"okkyno_responses_5xx_total", "Total 5xx responses", "counter", m.Responses5xx.Load()},
		{"okkyno_urls_discovered_total", "URLs placed into discovery buckets", "counter", m.URLsDiscovered.Load()},
		{"okkyno_entities_created_total", "Entities created", "counter", m.EntitiesCreated.Load()},
		{"okkyno_entities_duplicate_total", "Entities skipped as duplicates", "counter", m.EntitiesDuplicate.Load()},
		{"okkyno_entities_invalid_total", "Entities skipped as invalid", "counter", m.EntitiesInvalid.Load()},
		{"okkyno_entities_failed_total", "Entities that failed to import", "counter", m.EntitiesFailed.Load()},
		{"okkyno_runs_started_total", "Import runs started", "counter", m.RunsStarted.Load()},
		{"okkyno_runs_completed_total", "Import runs completed", "counter", m.RunsCompleted.Load()},
		{"okkyno_active_runs", "Import runs in progress", "gauge", int64(m.ActiveRuns.Load())},
	}

	for _, metric := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n", metric.name, metric.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", metric.name, metric.kind)
		fmt.Fprintf(w, "%s %d\n", metric.name, metric.value)
	}
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"fetches_total":      m.FetchesTotal.Load(),
		"fetches_failed":     m.FetchesFailed.Load(),
		"fetches_retried":    m.FetchesRetried.Load(),
		"fetches_skipped":    m.FetchesSkipped.Load(),
		"bytes_downloaded":   m.BytesDownloaded.Load(),
		"urls_discovered":    m.URLsDiscovered.Load(),
		"entities_created":   m.EntitiesCreated.Load(),
		"entities_duplicate": m.EntitiesDuplicate.Load(),
		"entities_invalid":   m.EntitiesInvalid.Load(),
		"entities_failed":    m.EntitiesFailed.Load(),
		"runs_started":       m.RunsStarted.Load(),
		"runs_completed":     m.RunsCompleted.Load(),
		"active_runs":        int64(m.ActiveRuns.Load()),
	}
}
