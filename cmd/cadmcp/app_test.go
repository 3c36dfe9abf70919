package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppWiresServicesWithoutTouchingHost(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Directory = t.TempDir()

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.driver.Connected(), "the host is attached lazily")
	assert.Nil(t, a.rdb, "no Redis without journal.redis_addr")
	assert.Equal(t, 11, a.tools.ToolCount())

	w := httptest.NewRecorder()
	a.httpEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.httpEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewAppFailsWhenRedisIsDown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Journal.RedisAddr = "127.0.0.1:1"

	_, err := newApp(context.Background(), cfg)
	assert.ErrorContains(t, err, "could not connect to Redis")
}
