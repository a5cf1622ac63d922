// Package health exposes liveness and readiness probes under /_health.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single readiness evaluation.
const DefaultTimeout = 3 * time.Second

// Checker reports whether a dependency is usable.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc struct {
	Label string
	Fn    func(ctx context.Context) error
}

func (c CheckFunc) Name() string                    { return c.Label }
func (c CheckFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

// Service evaluates registered checks.
type Service struct {
	checks  []Checker
	timeout time.Duration
	logger  *zap.Logger
}

// NewService returns a Service over checks. Nil entries are skipped.
func NewService(logger *zap.Logger, timeout time.Duration, checks ...Checker) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s := &Service{timeout: timeout, logger: logger}
	for _, c := range checks {
		if c != nil {
			s.checks = append(s.checks, c)
		}
	}
	return s
}

// Ready runs every check concurrently and returns the first failure.
func (s *Service) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range s.checks {
		g.Go(func() error {
			if err := c.Check(ctx); err != nil {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Routes mounts GET /live and GET /ready.
func (s *Service) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/live", s.handleLive)
	r.Get("/ready", s.handleReady)
	return r
}

func (s *Service) handleLive(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.Ready(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", zap.Error(err))
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
