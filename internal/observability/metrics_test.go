package observability

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRecordFetchBuckets(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordFetch(200, 100)
	m.RecordFetch(301, 0)
	m.RecordFetch(404, 10)
	m.RecordFetch(503, 10)

	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap["fetches_total"])
	assert.Equal(t, int64(120), snap["bytes_downloaded"])
	assert.Equal(t, int64(1), m.Responses2xx.Load())
	assert.Equal(t, int64(1), m.Responses3xx.Load())
	assert.Equal(t, int64(1), m.Responses4xx.Load())
	assert.Equal(t, int64(1), m.Responses5xx.Load())
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetch(200, 1)
		m.RecordRetry()
		m.RecordFailure()
		m.RecordSkip()
		m.RecordDiscovered(3)
		m.RecordResult("created")
		m.RunStarted()
		m.RunFinished()
	})
}

func TestServeHTTP(t *testing.T) {
	m := NewMetrics(testLogger)
	m.RecordResult("created")
	m.RecordResult("skipped_duplicate")
	m.RunStarted()

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, body, "okkyno_entities_created_total 1")
	assert.Contains(t, body, "okkyno_entities_duplicate_total 1")
	assert.Contains(t, body, "# TYPE okkyno_active_runs gauge")
	assert.Contains(t, body, "okkyno_active_runs 1")
}
