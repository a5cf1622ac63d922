// Package telemetry wires OpenTelemetry tracing and metrics for the server.
//
// Traces are exported over OTLP/gRPC, to stdout, or dropped, depending on
// OTEL_TRACES_EXPORTER. Metrics are collected by the OpenTelemetry Prometheus
// exporter on a dedicated registry and served from /metrics.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/eugenenazirov/realestate-crm/internal/config"
)

// InstrumentationName identifies tracers and meters created by this service.
const InstrumentationName = "github.com/eugenenazirov/realestate-crm"

// Providers holds the tracer and meter providers for the process.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Registry       *prometheus.Registry

	propagator propagation.TextMapPropagator
	logger     *zap.Logger
}

type options struct {
	spanExporter sdktrace.SpanExporter
	syncExport   bool
}

// Option customises provider construction.
type Option func(*options)

// WithSpanExporter replaces the exporter selected by configuration. When sync
// is true spans are exported as soon as they end.
func WithSpanExporter(exp sdktrace.SpanExporter, sync bool) Option {
	return func(o *options) {
		o.spanExporter = exp
		o.syncExport = sync
	}
}

// NewProviders builds tracing and metrics according to cfg and installs them
// as the global OpenTelemetry providers.
func NewProviders(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger, opts ...Option) (*Providers, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = config.DefaultServiceName
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName))

	p := &Providers{
		propagator: propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}),
		logger:     logger,
	}

	exporter := o.spanExporter
	if exporter == nil {
		var err error
		exporter, err = newSpanExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}
	if exporter != nil {
		if o.syncExport {
			tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
		} else {
			tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
		}
	}
	p.TracerProvider = sdktrace.NewTracerProvider(tpOpts...)

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if cfg.MetricsExporter == config.ExporterPrometheus {
		p.Registry = prometheus.NewRegistry()
		p.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		reader, err := otelprom.New(otelprom.WithRegisterer(p.Registry))
		if err != nil {
			_ = p.TracerProvider.Shutdown(ctx)
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(reader))
	}
	p.MeterProvider = sdkmetric.NewMeterProvider(mpOpts...)

	otel.SetTracerProvider(p.TracerProvider)
	otel.SetMeterProvider(p.MeterProvider)
	otel.SetTextMapPropagator(p.propagator)

	logger.Info("telemetry initialized",
		zap.String("service", serviceName),
		zap.String("traces_exporter", cfg.TracesExporter),
		zap.String("metrics_exporter", cfg.MetricsExporter),
		zap.Float64("sample_ratio", cfg.SampleRatio),
	)
	return p, nil
}

func newSpanExporter(ctx context.Context, cfg config.TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch cfg.TracesExporter {
	case config.ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(config.DefaultServiceName)),
		}
		if cfg.ExporterOtlpEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.ExporterOtlpEndpoint))
		}
		if cfg.ExporterOtlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
		}
		return otlptracegrpc.New(ctx, opts...)
	case config.ExporterStdout:
		return stdouttrace.New()
	case config.ExporterNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported trace exporter %q", cfg.TracesExporter)
	}
}

// Tracer returns the service tracer.
func (p *Providers) Tracer() trace.Tracer {
	return p.TracerProvider.Tracer(InstrumentationName)
}

// Meter returns the service meter.
func (p *Providers) Meter() metric.Meter {
	return p.MeterProvider.Meter(InstrumentationName)
}

// MetricsHandler serves the Prometheus registry, or nil when metrics export is disabled.
func (p *Providers) MetricsHandler() http.Handler {
	if p.Registry == nil {
		return nil
	}
	return promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{Registry: p.Registry})
}

// Shutdown flushes pending spans and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
	}
	if err := p.MeterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.logger.Info("telemetry shutdown complete")
	return nil
}
