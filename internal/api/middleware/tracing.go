package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Togather-Foundation/contests/internal/api"

// Tracing starts a server span per request, continuing any W3C trace context
// carried in the request headers. Apply it before RequestLogging.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(tracerName)
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(r.Method),
				semconv.HTTPURL(r.URL.String()),
				attribute.String("http.user_agent", r.UserAgent()),
				semconv.HTTPScheme(schemeFromRequest(r)),
				semconv.NetHostName(r.Host),
			),
		)
		defer span.End()

		if requestID := GetRequestID(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		ww := &tracingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		req := r.WithContext(ctx)
		next.ServeHTTP(ww, req)

		if req.Pattern != "" {
			span.SetAttributes(semconv.HTTPRoute(req.Pattern))
		}
		span.SetAttributes(semconv.HTTPStatusCode(ww.statusCode))
		if ww.statusCode >= 500 {
			span.SetStatus(codes.Error, http.StatusText(ww.statusCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	})
}

type tracingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *tracingResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func schemeFromRequest(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
