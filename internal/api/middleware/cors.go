package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/contests/internal/config"
)

// CORS answers browser preflights and tags allowed origins. Requests without
// an Origin header pass through untouched.
func CORS(cfg config.CORSConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := cfg.AllowAllOrigins || isOriginAllowed(origin, cfg.AllowedOrigins)
			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-Request-ID")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID")
				h.Set("Access-Control-Max-Age", "86400")
			} else {
				logger.Warn().
					Str("origin", origin).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("CORS request rejected: origin not in allow list")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	origin = strings.ToLower(strings.TrimSpace(origin))
	for _, allowed := range allowedOrigins {
		if strings.ToLower(strings.TrimSpace(allowed)) == origin {
			return true
		}
	}
	return false
}
