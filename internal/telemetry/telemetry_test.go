package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/realestate-crm/internal/config"
)

func newTestProviders(t *testing.T, metrics string) (*Providers, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	cfg := config.TelemetryConfig{
		ServiceName:     "test",
		TracesExporter:  config.ExporterNone,
		MetricsExporter: metrics,
		SampleRatio:     1,
	}
	p, err := NewProviders(context.Background(), cfg, zaptest.NewLogger(t), WithSpanExporter(exp, true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p, exp
}

func attr(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestMiddlewareSetsMethodAttribute(t *testing.T) {
	p, exp := newTestProviders(t, config.ExporterNone)

	handler := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(method, "/graphql", nil))
	}

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	for i, method := range []string{http.MethodGet, http.MethodPost} {
		got, ok := attr(spans[i].Attributes, MethodAttribute)
		require.True(t, ok, "span %d missing %s", i, MethodAttribute)
		assert.Equal(t, method, got)
		assert.Equal(t, method+" /graphql", spans[i].Name)
	}
}

func TestMiddlewareNamesSpansByRoutePattern(t *testing.T) {
	p, exp := newTestProviders(t, config.ExporterNone)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/agents/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})
	handler := p.Middleware(r)

	for _, path := range []string{
		"/api/agents/6f1c1f6e-8f5e-4c43-9f4e-2b8d2e1a0c11",
		"/api/agents/00000000-0000-4000-8000-000000000002",
		"/assets/app.js",
	} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := exp.GetSpans()
	require.Len(t, spans, 3)
	for _, span := range spans[:2] {
		assert.Equal(t, "GET /api/agents/{id}", span.Name)
		route, ok := attr(span.Attributes, RouteAttribute)
		require.True(t, ok)
		assert.Equal(t, "/api/agents/{id}", route)
	}
	assert.Equal(t, "GET /assets", spans[2].Name)
}

func TestMountPoint(t *testing.T) {
	for path, want := range map[string]string{
		"":               "/",
		"/":              "/",
		"/graphql":       "/graphql",
		"/api/agents/42": "/api",
		"/assets/app.js": "/assets",
		"/_health/ready": "/_health",
	} {
		assert.Equal(t, want, mountPoint(path), path)
	}
}

func TestSpanRecordsErrors(t *testing.T) {
	p, exp := newTestProviders(t, config.ExporterNone)

	ctx, span := Span(context.Background(), p.Tracer(), "agent.findOne", attribute.String("id", "a1"))
	assert.NotEmpty(t, TraceID(ctx))
	End(span, errors.New("boom"))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "agent.findOne", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	id, _ := attr(spans[0].Attributes, "id")
	assert.Equal(t, "a1", id)
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	p, _ := newTestProviders(t, config.ExporterPrometheus)

	counter, err := p.Meter().Int64Counter("crm.test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rr := httptest.NewRecorder()
	p.MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, "crm_test_events_total"), "counter missing from exposition")
	assert.True(t, strings.Contains(text, "go_goroutines"), "go collector missing from exposition")
}

func TestMetricsHandlerDisabled(t *testing.T) {
	p, _ := newTestProviders(t, config.ExporterNone)
	assert.Nil(t, p.MetricsHandler())
}

func TestUnsupportedExporter(t *testing.T) {
	_, err := NewProviders(context.Background(), config.TelemetryConfig{TracesExporter: "zipkin"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
