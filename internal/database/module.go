package database

import (
	"context"
	"database/sql"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/config"
	"github.com/eugenenazirov/realestate-crm/internal/health"
	"github.com/eugenenazirov/realestate-crm/internal/secrets"
)

// Module provides the *sql.DB pool and its readiness check.
var Module = fx.Module("database",
	fx.Provide(
		New,
		health.AsCheck(NewCheck),
	),
)

// New opens the pool during construction and closes it when the app stops.
func New(lc fx.Lifecycle, cfg config.DatabaseConfig, mgr secrets.Manager, logger *zap.Logger) (*sql.DB, error) {
	conn, err := Open(context.Background(), cfg, mgr, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return conn.Close()
		},
	})
	return conn, nil
}

// NewCheck reports the pool as ready when it answers a ping.
func NewCheck(conn *sql.DB) health.Checker {
	return health.CheckFunc{Label: "database", Fn: conn.PingContext}
}
