package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_New(t *testing.T) {
	m := New()
	assert.NotNil(t, m.RequestsTotal)
	assert.NotNil(t, m.RequestDuration)
	assert.NotNil(t, m.SavesTotal)
	assert.NotNil(t, m.RecordsSweptTotal)
	assert.NotNil(t, m.StorageErrorsTotal)
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest("/save", "200")
	m.RecordRequest("/save", "200")
	m.RecordRequest("/records", "401")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `textpaste_requests_total{route="/save",status="200"} 2`)
	assert.Contains(t, body, `textpaste_requests_total{route="/records",status="401"} 1`)
}

func TestMetrics_SavesAndSweeps(t *testing.T) {
	m := New()
	m.RecordSave()
	m.RecordSave()
	m.RecordSwept(3)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "textpaste_saves_total 2")
	assert.Contains(t, body, "textpaste_records_swept_total 3")
}

func TestMetrics_RecordStorageError(t *testing.T) {
	m := New()
	m.RecordStorageError("put")

	body := getMetricsBody(t, m)
	assert.Contains(t, body, `textpaste_storage_errors_total{op="put"} 1`)
}

func TestMetrics_ObserveDuration(t *testing.T) {
	m := New()
	m.ObserveDuration("/records", 0.25)

	body := getMetricsBody(t, m)
	assert.Contains(t, body, "textpaste_request_duration_seconds")
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	handler := m.Handler()
	assert.NotNil(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func getMetricsBody(t *testing.T, m *Metrics) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	return strings.TrimSpace(string(body))
}
