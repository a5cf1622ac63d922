package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eugenenazirov/realestate-crm/internal/model"
)

func newClient(id string, created time.Time, agentID string) model.Client {
	c := model.Client{ID: id, CreatedAt: created, UpdatedAt: created, FirstName: "First " + id, LastName: "Last"}
	if agentID != "" {
		c.AgentID = &agentID
	}
	return c
}

func TestMemoryRepositoryInsertAndGet(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository[model.Client]()
	ctx := context.Background()
	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

	if err := repo.Insert(ctx, newClient("a", now, "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Insert(ctx, newClient("a", now, "")); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FirstName != "First a" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryFindOrdersAndPages(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository[model.Client]()
	ctx := context.Background()
	base := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

	// inserted out of creation order on purpose
	for i, offset := range []int{3, 1, 2, 0} {
		id := fmt.Sprintf("c%d", i)
		if err := repo.Insert(ctx, newClient(id, base.Add(time.Duration(offset)*time.Minute), "")); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	all, err := repo.Find(ctx, Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"c3", "c1", "c2", "c0"}
	if len(all) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(all))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Fatalf("expected %s at position %d, got %s", id, i, all[i].ID)
		}
	}

	page, err := repo.Find(ctx, Query{Take: 2, Skip: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c1" || page[1].ID != "c2" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := repo.Find(ctx, Query{Skip: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page, got %d records", len(empty))
	}
}

func TestMemoryRepositoryFilterByRelation(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository[model.Client]()
	ctx := context.Background()
	now := time.Now().UTC()

	_ = repo.Insert(ctx, newClient("a", now, "agent-1"))
	_ = repo.Insert(ctx, newClient("b", now, "agent-2"))
	_ = repo.Insert(ctx, newClient("c", now, "agent-1"))

	q := Query{}.Where(model.RefAgent, "agent-1")
	found, err := repo.Find(ctx, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 clients for agent-1, got %d", len(found))
	}

	count, err := repo.Count(ctx, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}

func TestMemoryRepositoryRejectsNegativePaging(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository[model.Agent]()
	if _, err := repo.Find(context.Background(), Query{Take: -1}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if _, err := repo.Count(context.Background(), Query{Skip: -1}); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestMemoryRepositoryUpdateAndDelete(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository[model.Client]()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Update(ctx, newClient("a", now, "")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = repo.Insert(ctx, newClient("a", now, ""))

	updated := newClient("a", now, "")
	updated.FirstName = "Renamed"
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := repo.Get(ctx, "a")
	if got.FirstName != "Renamed" {
		t.Fatalf("expected update to persist, got %+v", got)
	}

	deleted, err := repo.Delete(ctx, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.FirstName != "Renamed" {
		t.Fatalf("expected deleted record to be returned, got %+v", deleted)
	}
	if count, _ := repo.Count(ctx, Query{}); count != 0 {
		t.Fatalf("expected empty repository, got %d", count)
	}
	if _, err := repo.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryClearRef(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository[model.Client]()
	ctx := context.Background()
	now := time.Now().UTC()
	_ = repo.Insert(ctx, newClient("a", now, "agent-1"))
	_ = repo.Insert(ctx, newClient("b", now.Add(time.Second), "agent-2"))
	_ = repo.Insert(ctx, newClient("c", now.Add(2*time.Second), "agent-1"))

	changed, err := repo.ClearRef(ctx, model.RefAgent, "agent-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changed) != 2 || changed[0] != "a" || changed[1] != "c" {
		t.Fatalf("expected a and c to change, got %v", changed)
	}
	if got, _ := repo.Get(ctx, "a"); got.AgentID != nil {
		t.Fatalf("expected agentId to be cleared, got %v", *got.AgentID)
	}
	if got, _ := repo.Get(ctx, "b"); got.AgentID == nil || *got.AgentID != "agent-2" {
		t.Fatalf("expected unrelated client to keep its agent")
	}
	if n, _ := repo.Count(ctx, Query{}.Where(model.RefAgent, "agent-1")); n != 0 {
		t.Fatalf("expected no clients left on agent-1, got %d", n)
	}
}

func TestMemoryRepositoryConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository[model.Client]()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			id := fmt.Sprintf("client-%d", offset)
			if err := repo.Insert(ctx, newClient(id, time.Now().UTC(), "")); err != nil {
				t.Errorf("Insert failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, err := repo.Find(ctx, Query{}); err != nil {
				t.Errorf("Find failed: %v", err)
			}
		}()
	}

	wg.Wait()

	if count, err := repo.Count(ctx, Query{}); err != nil || count != 32 {
		t.Fatalf("expected 32 records, got %d (%v)", count, err)
	}
}
