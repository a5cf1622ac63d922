package crud

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/cache"
	"github.com/eugenenazirov/realestate-crm/internal/config"
)

// Deps carries the collaborators shared by every entity service.
type Deps struct {
	Cache    cache.Cache
	TTL      time.Duration
	Validate *validator.Validate
	Tracer   trace.Tracer
	Logger   *zap.Logger
	Now      func() time.Time
	NewID    func() string

	hits   metric.Int64Counter
	misses metric.Int64Counter
}

// NewDeps builds Deps and registers the cache hit/miss counters on meter.
func NewDeps(c cache.Cache, redis config.RedisConfig, tracer trace.Tracer, meter metric.Meter, logger *zap.Logger) (Deps, error) {
	hits, err := meter.Int64Counter("crm.cache.hits", metric.WithDescription("Entity lookups served from the cache"))
	if err != nil {
		return Deps{}, fmt.Errorf("create cache hit counter: %w", err)
	}
	misses, err := meter.Int64Counter("crm.cache.misses", metric.WithDescription("Entity lookups that fell through to the repository"))
	if err != nil {
		return Deps{}, fmt.Errorf("create cache miss counter: %w", err)
	}
	return Deps{
		Cache:    c,
		TTL:      redis.TTLDuration(),
		Validate: NewValidator(),
		Tracer:   tracer,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    uuid.NewString,
		hits:     hits,
		misses:   misses,
	}, nil
}

// NewValidator returns a validator that reports fields by their JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Module provides Deps to the feature modules.
var Module = fx.Module("crud",
	fx.Provide(NewDeps),
)
