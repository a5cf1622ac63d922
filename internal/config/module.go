package config

import "go.uber.org/fx"

// Module exposes the sections of a supplied Config to their consumers.
var Module = fx.Module("config",
	fx.Provide(
		func(c Config) GraphQLConfig { return c.GraphQL },
		func(c Config) RedisConfig { return c.Redis },
		func(c Config) DatabaseConfig { return c.DB },
		func(c Config) TelemetryConfig { return c.Otel },
		func(c Config) SecretsConfig { return c.Secrets },
		func(c Config) LogConfig { return c.Log },
	),
)
