package cache

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/config"
	"github.com/eugenenazirov/realestate-crm/internal/health"
)

// memorySweepInterval bounds how long expired entries linger in the
// in-memory store when nothing reads them.
const memorySweepInterval = time.Minute

// Module registers the global cache. An empty REDIS_HOST selects the
// in-memory store.
var Module = fx.Module("cache",
	fx.Provide(
		New,
		health.AsCheck(NewCheck),
	),
)

// NewCheck reports the cache as ready when it answers a ping.
func NewCheck(c Cache) health.Checker {
	return health.CheckFunc{Label: "cache", Fn: c.Ping}
}

// New builds the cache described by cfg and closes it when the app stops.
func New(lc fx.Lifecycle, cfg config.RedisConfig, logger *zap.Logger) (Cache, error) {
	var c Cache
	if cfg.Host == "" {
		logger.Info("cache store selected", zap.String("store", "memory"), zap.Duration("ttl", cfg.TTLDuration()))
		c = NewMemory(cfg.TTLDuration(), WithSweepInterval(memorySweepInterval))
	} else {
		redis, err := NewRedis(RedisOptions{
			Host:       cfg.Host,
			Port:       cfg.Port,
			Username:   cfg.Username,
			Password:   cfg.Password,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.TTLDuration(),
		})
		if err != nil {
			return nil, err
		}
		logger.Info("cache store selected",
			zap.String("store", "redis"),
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.Duration("ttl", cfg.TTLDuration()),
		)
		c = redis
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	})
	return c, nil
}
