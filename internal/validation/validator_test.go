package validation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/api"
	"cinebook/internal/config"
	"cinebook/internal/external"
	"cinebook/internal/external/upstreamtest"
	"cinebook/internal/session"
)

func startInstance(t *testing.T) string {
	t.Helper()

	mr := miniredis.RunT(t)
	up := upstreamtest.New(t)

	cfg := &config.Config{
		GinMode:        gin.TestMode,
		RequestTimeout: 10 * time.Second,
		VisitTTL:       15 * time.Minute,
		CatalogTTL:     time.Minute,
		NewsFile:       filepath.Join(t.TempDir(), "news.yaml"),
		Upstream: external.MovieAPIConfig{
			BaseURL:        up.URL,
			CybersoftToken: upstreamtest.CybersoftToken,
			Group:          upstreamtest.Group,
			Timeout:        5 * time.Second,
		},
		Session: session.Config{Secret: "test-secret", TTL: time.Hour, CookieName: "cinebook_session"},
	}

	s, err := api.New(cfg, redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Cleanup() })

	srv := httptest.NewServer(s.GetRouter())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestValidateAll(t *testing.T) {
	url := startInstance(t)

	v := NewSmokeValidator(url).WithCredentials(upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	assert.NoError(t, v.ValidateAll(context.Background()))
}

func TestValidateAllWrongCredentials(t *testing.T) {
	url := startInstance(t)

	v := NewSmokeValidator(url).WithCredentials(upstreamtest.CustomerAccount, "wrong")
	err := v.ValidateAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POST /login: expected 200, got 404")
}

func TestValidateAllDetectsOpenRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewSmokeValidator(srv.URL).ValidateAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /profile: expected 302, got 200")
}
