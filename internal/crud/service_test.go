package crud_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/realestate-crm/internal/cache"
	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/crud/crudtest"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

const agentID = "6f1c1f6e-8f5e-4c43-9f4e-2b8d2e1a0c11"

func newAgentService(t *testing.T) (*crud.Service[model.Agent], *store.MemoryRepository[model.Agent], *cache.Memory) {
	t.Helper()
	deps, mem := crudtest.Deps(t)
	repo := store.NewMemoryRepository[model.Agent]()
	return crud.NewService[model.Agent]("agent", repo, deps), repo, mem
}

func agent(id, first string) model.Agent {
	return model.Agent{ID: id, CreatedAt: crudtest.Epoch, UpdatedAt: crudtest.Epoch, FirstName: first, LastName: "Doe", Email: "jane@example.com"}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &crud.NotFoundError{ID: "abc"}
	assert.Equal(t, `No resource was found for {"id":"abc"}`, err.Error())
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestFindOneCachesRecords(t *testing.T) {
	svc, repo, mem := newAgentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, agent(agentID, "Jane"))
	require.NoError(t, err)

	first, err := svc.FindOne(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", first.FirstName)

	_, err = mem.Get(ctx, "agent:"+agentID)
	require.NoError(t, err, "expected FindOne to populate the cache")

	// Bypass the service so only a cache hit can return the old name.
	require.NoError(t, repo.Update(ctx, agent(agentID, "Janet")))
	cached, err := svc.FindOne(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", cached.FirstName)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, _, mem := newAgentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, agent(agentID, "Jane"))
	require.NoError(t, err)
	_, err = svc.FindOne(ctx, agentID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, agent(agentID, "Janet"))
	require.NoError(t, err)

	_, err = mem.Get(ctx, "agent:"+agentID)
	assert.ErrorIs(t, err, cache.ErrMiss)

	got, err := svc.FindOne(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, "Janet", got.FirstName)
}

func TestDeleteInvalidatesCacheAndReturnsRecord(t *testing.T) {
	svc, _, mem := newAgentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, agent(agentID, "Jane"))
	require.NoError(t, err)
	_, err = svc.FindOne(ctx, agentID)
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, agentID, deleted.ID)

	_, err = mem.Get(ctx, "agent:"+agentID)
	assert.ErrorIs(t, err, cache.ErrMiss)

	_, err = svc.FindOne(ctx, agentID)
	var nf *crud.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, agentID, nf.ID)
}

func TestMissingRecords(t *testing.T) {
	svc, _, _ := newAgentService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, agent(agentID, "Jane"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Delete(ctx, agentID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	found, err := svc.Lookup(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, found)

	missing := agentID
	found, err = svc.Lookup(ctx, &missing)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreateValidates(t *testing.T) {
	svc, _, _ := newAgentService(t)

	bad := agent(agentID, "Jane")
	bad.Email = "not-an-email"
	_, err := svc.Create(context.Background(), bad)

	var verr *crud.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "email")
}

func TestFindManyAndCount(t *testing.T) {
	svc, _, _ := newAgentService(t)
	ctx := context.Background()

	ids := []string{
		"00000000-0000-4000-8000-000000000001",
		"00000000-0000-4000-8000-000000000002",
		"00000000-0000-4000-8000-000000000003",
	}
	for _, id := range ids {
		_, err := svc.Create(ctx, agent(id, "A"))
		require.NoError(t, err)
	}

	page, err := svc.FindMany(ctx, store.Query{Take: 2, Skip: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)

	n, err := svc.Count(ctx, store.Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = svc.FindMany(ctx, store.Query{Take: -1})
	assert.ErrorIs(t, err, store.ErrInvalidQuery)
}

func TestLoadBypassesCache(t *testing.T) {
	svc, repo, _ := newAgentService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, agent(agentID, "Jane"))
	require.NoError(t, err)
	_, err = svc.FindOne(ctx, agentID)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, agent(agentID, "Janet")))
	got, err := svc.Load(ctx, agentID)
	require.NoError(t, err)
	assert.Equal(t, "Janet", got.FirstName)

	_, err = svc.Load(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDetachClearsChildrenAndTheirCacheEntries(t *testing.T) {
	deps, mem := crudtest.Deps(t)
	clients := store.NewMemoryRepository[model.Client]()
	svc := crud.NewService[model.Client](model.EntityClient, clients, deps)
	ctx := context.Background()

	owner := agentID
	_, err := svc.Create(ctx, model.Client{ID: "c1", CreatedAt: crudtest.Epoch, UpdatedAt: crudtest.Epoch, FirstName: "Ann", LastName: "Lee", AgentID: &owner})
	require.NoError(t, err)
	_, err = svc.FindOne(ctx, "c1")
	require.NoError(t, err)

	require.NoError(t, crud.Detach(ctx, deps, model.EntityClient, clients, model.RefAgent, agentID))

	_, err = mem.Get(ctx, "client:c1")
	assert.ErrorIs(t, err, cache.ErrMiss)
	got, err := svc.FindOne(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got.AgentID)
}
