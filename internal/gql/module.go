package gql

import (
	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/agent"
	"github.com/eugenenazirov/realestate-crm/internal/appointment"
	"github.com/eugenenazirov/realestate-crm/internal/client"
	"github.com/eugenenazirov/realestate-crm/internal/property"
)

type schemaParams struct {
	fx.In

	Agents       *agent.Service
	Clients      *client.Service
	Properties   *property.Service
	Appointments *appointment.Service
	Tracer       trace.Tracer
}

// Module provides the schema and the /graphql handler, and writes the SDL
// file while the application is being built.
var Module = fx.Module("graphql",
	fx.Provide(
		NewOptions,
		func(p schemaParams) (graphql.Schema, error) {
			return NewSchema(&Resolvers{
				Agents:       p.Agents,
				Clients:      p.Clients,
				Properties:   p.Properties,
				Appointments: p.Appointments,
				Tracer:       p.Tracer,
			})
		},
		NewHandler,
	),
	fx.Invoke(writeSchema),
)

func writeSchema(opts Options, schema graphql.Schema, logger *zap.Logger) error {
	if opts.AutoSchemaFile == "" {
		return nil
	}
	if err := WriteSchemaFile(opts.AutoSchemaFile, schema, opts.SortSchema); err != nil {
		return err
	}
	logger.Info("graphql schema written",
		zap.String("path", opts.AutoSchemaFile),
		zap.Bool("playground", opts.Playground),
		zap.Bool("introspection", opts.Introspection),
	)
	return nil
}
