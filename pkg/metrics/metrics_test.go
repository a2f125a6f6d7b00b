package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestCounters(t *testing.T) {
	m := New()

	m.URLCreated(true)
	m.URLCreated(true)
	m.URLCreated(false)
	m.Redirect("redirect")
	m.Redirect("not_found")

	body := scrape(t, m)
	assert.Contains(t, body, `shortlink_urls_created_total{owner="anonymous"} 2`)
	assert.Contains(t, body, `shortlink_urls_created_total{owner="user"} 1`)
	assert.Contains(t, body, `shortlink_redirects_total{outcome="not_found"} 1`)
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("GET /{short_code}", http.MethodGet, http.StatusFound, 3*time.Millisecond)
	m.ObserveRequest("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `shortlink_http_requests_total{method="GET",route="GET /{short_code}",status="302"} 1`)
	assert.Contains(t, body, `shortlink_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, body, `shortlink_http_request_duration_seconds_count{method="GET",route="unmatched"} 1`)
}

func TestRuntimeCollectors(t *testing.T) {
	assert.Contains(t, scrape(t, New()), "go_goroutines")
	assert.NotNil(t, New().Registry())
}
