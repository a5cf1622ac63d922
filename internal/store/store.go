package store

import (
	"context"
	"errors"

	"github.com/eugenenazirov/realestate-crm/internal/model"
)

const defaultTake = 100

var (
	// ErrNotFound is returned when no record matches the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidQuery indicates a negative page bound or an unknown filter column.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrDuplicateID is returned when inserting a record whose id already exists.
	ErrDuplicateID = errors.New("record id already exists")
)

// Query selects a page of records, optionally filtered by a single relation column.
type Query struct {
	Take  int
	Skip  int
	Field string
	Value string
}

// Where returns a copy of q filtered on column == value.
func (q Query) Where(column, value string) Query {
	q.Field = column
	q.Value = value
	return q
}

func (q Query) normalize() (Query, error) {
	if q.Take < 0 || q.Skip < 0 {
		return q, ErrInvalidQuery
	}
	if q.Take == 0 {
		q.Take = defaultTake
	}
	return q, nil
}

// Repository persists records of a single entity type.
type Repository[T model.Record] interface {
	Find(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, q Query) (int, error)
	Get(ctx context.Context, id string) (T, error)
	Insert(ctx context.Context, record T) error
	Update(ctx context.Context, record T) error
	Delete(ctx context.Context, id string) (T, error)
	// ClearRef nulls column on every record where it equals value and
	// returns the ids of the records it changed.
	ClearRef(ctx context.Context, column, value string) ([]string, error)
}
