package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/config"
)

// Module provides the telemetry providers plus the service tracer and meter.
var Module = fx.Module("telemetry",
	fx.Provide(
		New,
		func(p *Providers) trace.Tracer { return p.Tracer() },
		func(p *Providers) metric.Meter { return p.Meter() },
	),
)

// New builds the providers and flushes them when the app stops.
func New(lc fx.Lifecycle, cfg config.TelemetryConfig, logger *zap.Logger) (*Providers, error) {
	p, err := NewProviders(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: p.Shutdown,
	})
	return p, nil
}
