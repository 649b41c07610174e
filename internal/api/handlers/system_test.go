package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeConnPinger struct{ err error }

func (f fakeConnPinger) Ping() error { return f.err }

func systemRouter(db, minio fakePinger, nats fakeConnPinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSystemHandler(db, minio, nats)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	return r
}

func TestHealthz(t *testing.T) {
	r := systemRouter(fakePinger{}, fakePinger{}, fakeConnPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzAllHealthy(t *testing.T) {
	r := systemRouter(fakePinger{}, fakePinger{}, fakeConnPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "ok", resp.Checks["minio"])
	assert.Equal(t, "ok", resp.Checks["nats"])
}

func TestReadyzDegraded(t *testing.T) {
	r := systemRouter(fakePinger{err: errors.New("connection refused")}, fakePinger{}, fakeConnPinger{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
