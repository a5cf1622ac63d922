package crud

import (
	"context"

	"github.com/eugenenazirov/realestate-crm/internal/store"
)

// Resource is the surface an entity service exposes to the REST and
// GraphQL transports. C and U are its create and update payloads.
type Resource[T any, C any, U any] interface {
	FindMany(ctx context.Context, q store.Query) ([]T, error)
	Count(ctx context.Context, q store.Query) (int, error)
	FindOne(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in C) (T, error)
	Update(ctx context.Context, id string, in U) (T, error)
	Delete(ctx context.Context, id string) (T, error)
}
