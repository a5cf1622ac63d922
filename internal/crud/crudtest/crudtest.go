// Package crudtest builds crud.Deps backed by in-memory collaborators for tests.
package crudtest

import (
	"testing"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/realestate-crm/internal/cache"
	"github.com/eugenenazirov/realestate-crm/internal/config"
	"github.com/eugenenazirov/realestate-crm/internal/crud"
)

// Epoch is the first timestamp produced by the test clock.
var Epoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// Deps returns crud.Deps over a memory cache with a deterministic clock
// (one second per call) and sequential ids.
func Deps(t testing.TB) (crud.Deps, *cache.Memory) {
	t.Helper()

	mem := cache.NewMemory(config.DefaultRedisTTL * time.Millisecond)
	deps, err := crud.NewDeps(mem, config.RedisConfig{TTL: config.DefaultRedisTTL},
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
		zaptest.NewLogger(t),
	)
	if err != nil {
		t.Fatalf("crud deps: %v", err)
	}

	tick := 0
	deps.Now = func() time.Time {
		tick++
		return Epoch.Add(time.Duration(tick) * time.Second)
	}
	ids := 0
	deps.NewID = func() string {
		ids++
		return sequentialUUID(ids)
	}
	return deps, mem
}

func sequentialUUID(n int) string {
	const tmpl = "00000000-0000-4000-8000-000000000000"
	digits := []byte(tmpl)
	for i := len(digits) - 1; n > 0 && i >= 0; i-- {
		if digits[i] == '-' {
			continue
		}
		digits[i] = "0123456789abcdef"[n%16]
		n /= 16
	}
	return string(digits)
}
