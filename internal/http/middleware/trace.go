package middleware

import (
	"net/http"
	"time"

	"github.com/davidbz/costdesk/internal/observability"
)

const (
	traceHeader   = "X-Trace-Id"
	requestHeader = "X-Request-Id"
)

// Trace injects trace, span and request ids into every request. An inbound
// X-Trace-Id is kept so a caller can correlate usage logging with its own logs.
func Trace() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			traceID := r.Header.Get(traceHeader)
			if traceID == "" {
				traceID = observability.GenerateTraceID()
			}
			ctx = observability.WithTraceID(ctx, traceID)
			ctx = observability.WithSpanID(ctx, observability.GenerateSpanID())

			requestID := observability.GenerateRequestID()
			ctx = observability.WithRequestID(ctx, requestID)

			w.Header().Set(traceHeader, traceID)
			w.Header().Set(requestHeader, requestID)

			logger := observability.FromContext(ctx)
			logger.Debug("request started",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("remote_addr", r.RemoteAddr),
			)

			next.ServeHTTP(w, r.WithContext(ctx))

			logger.Info("request finished",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
