package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/costdesk/internal/config"
)

// Headers set by Trace that browser clients may read.
var exposedHeaders = []string{traceHeader, requestHeader}

// CORS applies the configured cross-origin policy via github.com/rs/cors.
// A nil config disables it.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
