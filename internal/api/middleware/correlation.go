package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

// RequestIDKey is the context key for the request correlation ID.
const RequestIDKey contextKey = "request_id"

// CorrelationID reuses an incoming X-Request-ID or mints one, echoes it on
// the response, and stores a request-scoped logger in the context.
func CorrelationID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = reqLogger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFromContext returns the request logger, or a disabled logger when
// none was installed.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		noop := zerolog.Nop()
		return &noop
	}
	return logger
}
