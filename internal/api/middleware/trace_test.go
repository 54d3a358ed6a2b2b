package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/users-qa/internal/api/shared"
	"github.com/phrazzld/users-qa/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddlewareReusesRequestID(t *testing.T) {
	l, logBuf := logger.GetTestLogger(t)
	requestID := uuid.NewString()

	var traceID string
	h := NewTraceMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	}))
	req := httptest.NewRequest(http.MethodGet, "/user/", nil)
	req.Header.Set(RequestIDHeader, requestID)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, requestID, traceID)
	assert.Equal(t, requestID, rec.Header().Get(RequestIDHeader))
	entries, err := logBuf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, requestID, e["trace_id"])
	}
}

func TestTraceMiddlewareGeneratesID(t *testing.T) {
	h := NewTraceMiddleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestLatencyDelaysRequest(t *testing.T) {
	h := Latency(30 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()

	start := time.Now()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLatencyStopsOnCancel(t *testing.T) {
	called := false
	h := Latency(time.Hour)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	assert.False(t, called)
}

func TestLatencyZeroIsPassThrough(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	h := Latency(0)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
