package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestHandleHealth(t *testing.T) {
	server := NewServer("0", zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "UP", resp.Status)
}

func TestHandleReady_AllChecksPass(t *testing.T) {
	server := NewServer("0", zaptest.NewLogger(t))
	server.RegisterReadinessCheck("database", func(ctx context.Context) error { return nil })
	server.RegisterReadinessCheck("nats", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "READY", resp.Status)
	assert.Equal(t, "ok", resp.Details["database"])
	assert.Equal(t, "ok", resp.Details["nats"])
}

func TestHandleReady_FailingCheckReturns503(t *testing.T) {
	server := NewServer("0", zaptest.NewLogger(t))
	server.RegisterReadinessCheck("database", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_READY", resp.Status)
	assert.Equal(t, "connection refused", resp.Details["database"])
}
