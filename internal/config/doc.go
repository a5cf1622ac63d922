// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > Environment
// variables > YAML config > Defaults. The resulting Config is built once at
// startup and handed to each constructor; nothing reads the environment later.
package config
