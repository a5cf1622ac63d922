package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/eugenenazirov/realestate-crm/internal/model"
)

// MemoryRepository keeps records in-memory and guards access with a RWMutex.
type MemoryRepository[T model.Record] struct {
	mu      sync.RWMutex
	records map[string]T
	order   []string
}

// NewMemoryRepository initialises an empty repository.
func NewMemoryRepository[T model.Record]() *MemoryRepository[T] {
	return &MemoryRepository[T]{
		records: make(map[string]T),
	}
}

func (m *MemoryRepository[T]) Find(_ context.Context, q Query) ([]T, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := m.matching(q)
	if q.Skip >= len(matched) {
		return []T{}, nil
	}
	end := min(q.Skip+q.Take, len(matched))

	out := make([]T, end-q.Skip)
	copy(out, matched[q.Skip:end])
	return out, nil
}

func (m *MemoryRepository[T]) Count(_ context.Context, q Query) (int, error) {
	if _, err := q.normalize(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matching(q)), nil
}

func (m *MemoryRepository[T]) Get(_ context.Context, id string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return record, nil
}

func (m *MemoryRepository[T]) Insert(_ context.Context, record T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := record.RecordID()
	if _, exists := m.records[id]; exists {
		return ErrDuplicateID
	}
	m.records[id] = record
	m.order = append(m.order, id)
	m.sortLocked()
	return nil
}

func (m *MemoryRepository[T]) Update(_ context.Context, record T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := record.RecordID()
	if _, exists := m.records[id]; !exists {
		return ErrNotFound
	}
	m.records[id] = record
	return nil
}

func (m *MemoryRepository[T]) Delete(_ context.Context, id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	delete(m.records, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return record, nil
}

func (m *MemoryRepository[T]) ClearRef(_ context.Context, column, value string) ([]string, error) {
	if column == "" || value == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var changed []string
	for _, id := range m.order {
		record := m.records[id]
		if record.Ref(column) != value {
			continue
		}
		cleared, ok := record.WithoutRef(column).(T)
		if !ok {
			return changed, fmt.Errorf("clear %s on %s: unexpected record type %T", column, id, cleared)
		}
		m.records[id] = cleared
		changed = append(changed, id)
	}
	return changed, nil
}

// matching must be called with the read lock held.
func (m *MemoryRepository[T]) matching(q Query) []T {
	out := make([]T, 0, len(m.order))
	for _, id := range m.order {
		record := m.records[id]
		if q.Field != "" && record.Ref(q.Field) != q.Value {
			continue
		}
		out = append(out, record)
	}
	return out
}

// sortLocked keeps order by creation time, then id, matching the SQL ordering.
func (m *MemoryRepository[T]) sortLocked() {
	sort.SliceStable(m.order, func(i, j int) bool {
		a, b := m.records[m.order[i]], m.records[m.order[j]]
		if !a.Created().Equal(b.Created()) {
			return a.Created().Before(b.Created())
		}
		return m.order[i] < m.order[j]
	})
}
