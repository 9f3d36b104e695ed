package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/sage/internal/engine"
	"github.com/peekknuf/sage/internal/report"
)

func testResult() *engine.GradeResult {
	return &engine.GradeResult{
		OverallScore:  0.92,
		OverallStatus: engine.StatusPassed,
		MetricOrder:   []string{"completeness"},
		Metrics: map[string]engine.MetricResult{
			"completeness": {
				Kind:    engine.KindCompleteness,
				Score:   0.92,
				Status:  engine.StatusPassed,
				Message: "92.0% complete across 4 columns",
			},
		},
		Metadata: engine.Metadata{
			Grader:      "grader_test",
			Source:      "orders.csv",
			Timestamp:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			RowCount:    100,
			ColumnCount: 4,
		},
	}
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestServerReport(t *testing.T) {
	srv := NewServer(testResult(), report.DefaultOptions())
	router := srv.Routes()

	rec := get(t, router, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "92.0%")
	assert.Contains(t, rec.Body.String(), "orders.csv")
}

func TestServerResultAPI(t *testing.T) {
	srv := NewServer(testResult(), report.DefaultOptions())
	router := srv.Routes()

	rec := get(t, router, "/api/result")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, 0.92, doc["overall_score"])
	assert.Equal(t, "passed", doc["overall_status"])
}

func TestServerHealth(t *testing.T) {
	srv := NewServer(testResult(), report.DefaultOptions())
	router := srv.Routes()

	rec := get(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServerUnknownRoute(t *testing.T) {
	srv := NewServer(testResult(), report.DefaultOptions())
	router := srv.Routes()

	rec := get(t, router, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
