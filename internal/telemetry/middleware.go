package telemetry

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes set on every server span.
const (
	MethodAttribute = "http.method"
	RouteAttribute  = "http.route"
)

// Middleware traces every request handled by next. Spans are named after the
// matched chi route pattern, or the mount point when no pattern matched, so
// ids in the path never become part of a span name.
func (p *Providers) Middleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(requestHook(next), "http.server",
		otelhttp.WithTracerProvider(p.TracerProvider),
		otelhttp.WithMeterProvider(p.MeterProvider),
		otelhttp.WithPropagators(p.propagator),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + mountPoint(r.URL.Path)
		}),
	)
}

func requestHook(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		if r.Method != "" {
			span.SetAttributes(attribute.String(MethodAttribute, r.Method))
		}

		// A chi router reuses a route context found on the request, which
		// leaves the matched pattern readable once it returns.
		rctx := chi.NewRouteContext()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx)))

		if pattern := rctx.RoutePattern(); pattern != "" {
			span.SetName(r.Method + " " + pattern)
			span.SetAttributes(attribute.String(RouteAttribute, pattern))
		}
	})
}

// mountPoint keeps the first path segment: "/api/agents/1" becomes "/api".
func mountPoint(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[:i]
	}
	return "/" + trimmed
}
