package middleware

import (
	"net/http"
	"strconv"

	"github.com/davidbz/costdesk/internal/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Metrics counts requests by matched route pattern and status class.
func Metrics(metrics *observability.Metrics) Middleware {
	if metrics == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			metrics.ObserveRequest(route, strconv.Itoa(rec.status/100)+"xx")
		})
	}
}
