package middleware

import (
	"net/http"

	"github.com/davidbz/costdesk/internal/config"
	"github.com/davidbz/costdesk/internal/observability"
)

// Middleware decorates the API handler.
type Middleware func(http.Handler) http.Handler

// Chain folds middlewares into one; the first argument ends up outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// BuildMiddlewareChain answers preflight requests before any ids are minted,
// then tags the request with trace ids, then counts it per route. Metrics has
// to wrap the mux directly because r.Pattern is only set on the request the
// mux receives.
func BuildMiddlewareChain(corsConfig *config.CORSConfig, metrics *observability.Metrics) Middleware {
	return Chain(
		CORS(corsConfig),
		Trace(),
		Metrics(metrics),
	)
}
