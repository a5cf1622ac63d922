// Package database owns the PostgreSQL connection pool and its schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/config"
	"github.com/eugenenazirov/realestate-crm/internal/secrets"
)

// URLSecret is the secret consulted when DB_URL is not configured.
const URLSecret = "DB_URL"

const pingTimeout = 5 * time.Second

// ErrNoURL is returned when neither the config nor the secrets manager supply a URL.
var ErrNoURL = errors.New("database URL is not configured")

// ResolveURL returns cfg.URL or, when empty, the DB_URL secret.
func ResolveURL(ctx context.Context, cfg config.DatabaseConfig, mgr secrets.Manager) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}
	if mgr == nil {
		return "", ErrNoURL
	}
	url, err := mgr.GetSecret(ctx, URLSecret)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return "", fmt.Errorf("%w: %w", ErrNoURL, err)
		}
		return "", fmt.Errorf("resolve database URL: %w", err)
	}
	return url, nil
}

// Open connects to PostgreSQL, verifies connectivity and applies migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, mgr secrets.Manager, logger *zap.Logger) (*sql.DB, error) {
	url, err := ResolveURL(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := Prepare(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Info("database connected",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
	)
	return conn, nil
}

// Prepare pings conn and brings the schema up to date.
func Prepare(ctx context.Context, conn *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := ApplyMigrations(ctx, conn); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	return nil
}
