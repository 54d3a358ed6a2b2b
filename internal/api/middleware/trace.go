package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/users-qa/internal/api/shared"
	"github.com/phrazzld/users-qa/internal/platform/logger"
)

// RequestIDHeader is echoed back on every response so callers can match
// their request logs against the sandbox's.
const RequestIDHeader = "X-Request-Id"

// NewTraceMiddleware adds a trace ID and a request-scoped logger to the
// request context. It should run early in the chain so that error responses
// carry the trace ID.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context(), r.Header.Get(RequestIDHeader))
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)
			w.Header().Set(RequestIDHeader, traceID)

			start := time.Now()
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))

			log.Debug("request finished",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("elapsed", time.Since(start)))
		})
	}
}

// Latency delays every request by d, or until the client gives up. The
// sandbox uses it to exercise latency bounds.
func Latency(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-r.Context().Done():
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
