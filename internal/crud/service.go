// Package crud implements the behaviour shared by every entity service:
// paging, cache-aside lookups, validation and tracing.
package crud

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/cache"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/store"
	"github.com/eugenenazirov/realestate-crm/internal/telemetry"
)

// Service manages records of one entity type.
type Service[T model.Record] struct {
	name string
	repo store.Repository[T]
	deps Deps
	attr metric.MeasurementOption
}

// NewService returns a Service for the entity called name (e.g. "agent").
func NewService[T model.Record](name string, repo store.Repository[T], deps Deps) *Service[T] {
	return &Service[T]{
		name: name,
		repo: repo,
		deps: deps,
		attr: metric.WithAttributes(attribute.String("entity", name)),
	}
}

// Name is the entity name used for cache keys and span names.
func (s *Service[T]) Name() string { return s.name }

// Deps exposes the shared collaborators to the entity service.
func (s *Service[T]) Deps() Deps { return s.deps }

func (s *Service[T]) cacheKey(id string) string {
	return s.name + ":" + id
}

// Validate checks v against its validate tags.
func (s *Service[T]) Validate(v any) error {
	if err := s.deps.Validate.Struct(v); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// FindMany returns a page of records.
func (s *Service[T]) FindMany(ctx context.Context, q store.Query) (items []T, err error) {
	ctx, span := telemetry.Span(ctx, s.deps.Tracer, s.name+".findMany",
		attribute.Int("take", q.Take), attribute.Int("skip", q.Skip))
	defer func() { telemetry.End(span, err) }()

	items, err = s.repo.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.name, err)
	}
	return items, nil
}

// Count returns how many records match q, ignoring paging.
func (s *Service[T]) Count(ctx context.Context, q store.Query) (n int, err error) {
	ctx, span := telemetry.Span(ctx, s.deps.Tracer, s.name+".count")
	defer func() { telemetry.End(span, err) }()

	n, err = s.repo.Count(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.name, err)
	}
	return n, nil
}

// FindOne returns the record with id, consulting the cache first.
func (s *Service[T]) FindOne(ctx context.Context, id string) (record T, err error) {
	ctx, span := telemetry.Span(ctx, s.deps.Tracer, s.name+".findOne", attribute.String("id", id))
	defer func() { telemetry.End(span, err) }()

	key := s.cacheKey(id)
	switch cerr := cache.GetJSON(ctx, s.deps.Cache, key, &record); {
	case cerr == nil:
		s.deps.hits.Add(ctx, 1, s.attr)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return record, nil
	case !errors.Is(cerr, cache.ErrMiss):
		s.deps.Logger.Warn("cache read failed", zap.String("key", key), zap.Error(cerr))
	}
	s.deps.misses.Add(ctx, 1, s.attr)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	record, err = s.repo.Get(ctx, id)
	if err != nil {
		var zero T
		if errors.Is(err, store.ErrNotFound) {
			return zero, &NotFoundError{ID: id}
		}
		return zero, fmt.Errorf("get %s: %w", s.name, err)
	}

	if cerr := cache.SetJSON(ctx, s.deps.Cache, key, record, s.deps.TTL); cerr != nil {
		s.deps.Logger.Warn("cache write failed", zap.String("key", key), zap.Error(cerr))
	}
	return record, nil
}

// Load reads the record with id from the repository, bypassing the cache.
// Read-modify-write paths use it so a stale cache entry is never written back.
func (s *Service[T]) Load(ctx context.Context, id string) (record T, err error) {
	ctx, span := telemetry.Span(ctx, s.deps.Tracer, s.name+".load", attribute.String("id", id))
	defer func() { telemetry.End(span, err) }()

	record, err = s.repo.Get(ctx, id)
	if err != nil {
		var zero T
		if errors.Is(err, store.ErrNotFound) {
			return zero, &NotFoundError{ID: id}
		}
		return zero, fmt.Errorf("get %s: %w", s.name, err)
	}
	return record, nil
}

// Lookup resolves an optional relation. A nil id or a dangling reference yields nil.
func (s *Service[T]) Lookup(ctx context.Context, id *string) (*T, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	record, err := s.FindOne(ctx, *id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// RequireRef fails validation when id is set but names no existing record.
func (s *Service[T]) RequireRef(ctx context.Context, field string, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	found, err := s.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if found == nil {
		return &ValidationError{Err: fmt.Errorf("%s %q does not reference an existing %s", field, *id, s.name)}
	}
	return nil
}

// Create validates and stores a new record.
func (s *Service[T]) Create(ctx context.Context, record T) (_ T, err error) {
	ctx, span := telemetry.Span(ctx, s.deps.Tracer, s.name+".create")
	defer func() { telemetry.End(span, err) }()

	if err = s.Validate(record); err != nil {
		return record, err
	}
	if err = s.repo.Insert(ctx, record); err != nil {
		return record, fmt.Errorf("create %s: %w", s.name, err)
	}
	return record, nil
}

// Update validates and replaces an existing record, then drops its cache entry.
func (s *Service[T]) Update(ctx context.Context, record T) (_ T, err error) {
	id := record.RecordID()
	ctx, span := telemetry.Span(ctx, s.deps.Tracer, s.name+".update", attribute.String("id", id))
	defer func() { telemetry.End(span, err) }()

	if err = s.Validate(record); err != nil {
		return record, err
	}
	if err = s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return record, &NotFoundError{ID: id}
		}
		return record, fmt.Errorf("update %s: %w", s.name, err)
	}
	s.invalidate(ctx, id)
	return record, nil
}

// Delete removes the record with id and returns it.
func (s *Service[T]) Delete(ctx context.Context, id string) (record T, err error) {
	ctx, span := telemetry.Span(ctx, s.deps.Tracer, s.name+".delete", attribute.String("id", id))
	defer func() { telemetry.End(span, err) }()

	record, err = s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return record, &NotFoundError{ID: id}
		}
		return record, fmt.Errorf("delete %s: %w", s.name, err)
	}
	s.invalidate(ctx, id)
	return record, nil
}

func (s *Service[T]) invalidate(ctx context.Context, id string) {
	key := s.cacheKey(id)
	if err := s.deps.Cache.Delete(ctx, key); err != nil {
		s.deps.Logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

// Detach clears column on every record of the child entity called name that
// points at parentID and drops the cached copies of the records it changed.
// Entity services call it before deleting a parent so children end up with a
// null reference instead of a dangling one.
func Detach[C model.Record](ctx context.Context, deps Deps, name string, repo store.Repository[C], column, parentID string) (err error) {
	ctx, span := telemetry.Span(ctx, deps.Tracer, name+".detach",
		attribute.String("column", column), attribute.String("parent", parentID))
	defer func() { telemetry.End(span, err) }()

	changed, err := repo.ClearRef(ctx, column, parentID)
	if err != nil {
		return fmt.Errorf("detach %s.%s: %w", name, column, err)
	}
	span.SetAttributes(attribute.Int("detached", len(changed)))
	for _, id := range changed {
		key := name + ":" + id
		if cerr := deps.Cache.Delete(ctx, key); cerr != nil {
			deps.Logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(cerr))
		}
	}
	return nil
}
