package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/session"
)

func TestSessionGauge(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnSessionEvent(ctx, session.Event{Type: session.EventLogin})
	m.OnSessionEvent(ctx, session.Event{Type: session.EventLogin})
	m.OnSessionEvent(ctx, session.Event{Type: session.EventTokenExpired})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionEvents.WithLabelValues("login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionEvents.WithLabelValues("token_expired")))
}

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveUpstream("QuanLyDatVe/DatVe", 200, 30*time.Millisecond)
	m.ObserveUpstream("QuanLyDatVe/DatVe", 0, time.Second)
	m.CacheResult("movies", true)
	m.CacheResult("movies", false)
	m.CacheResult("movies", false)
	m.ObserveHTTP("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("QuanLyDatVe/DatVe", "0")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("movies", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/list-movie", 200, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cinebook_http_requests_total{method="GET",route="/list-movie",status="200"} 1`)
}
