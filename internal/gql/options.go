// Package gql serves the GraphQL API: schema construction, the sorted SDL
// file, introspection control and the HTTP transport.
package gql

import "github.com/eugenenazirov/realestate-crm/internal/config"

// Options controls the GraphQL driver.
type Options struct {
	// AutoSchemaFile is where the SDL is written at startup; empty disables it.
	AutoSchemaFile string
	SortSchema     bool
	Playground     bool
	Introspection  bool
}

// NewOptions derives driver options from configuration. The playground
// needs introspection, so enabling it turns introspection on as well.
func NewOptions(cfg config.GraphQLConfig) Options {
	return Options{
		AutoSchemaFile: cfg.SchemaFile,
		SortSchema:     true,
		Playground:     cfg.Playground,
		Introspection:  cfg.IntrospectionEnabled(),
	}
}
