package basket

import (
	"context"
	"errors"
	"testing"

	"github.com/example/shopdesk/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	baskets map[string]*Basket
	saves   int
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{baskets: make(map[string]*Basket)}
}

func (m *memoryStore) Load(_ context.Context, sessionID string) (*Basket, error) {
	if m.failing {
		return nil, errors.New("redis down")
	}
	b, ok := m.baskets[sessionID]
	if !ok {
		return nil, nil
	}
	clone := &Basket{Entries: append([]uint64(nil), b.Entries...), Count: b.Count}
	return clone, nil
}

func (m *memoryStore) Save(_ context.Context, sessionID string, b *Basket) error {
	m.saves++
	m.baskets[sessionID] = &Basket{Entries: append([]uint64(nil), b.Entries...), Count: b.Count}
	return nil
}

func (m *memoryStore) Clear(_ context.Context, sessionID string) error {
	delete(m.baskets, sessionID)
	return nil
}

type memoryCatalog map[uint64]models.Product

func (c memoryCatalog) GetProduct(_ context.Context, id uint64) (*models.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &p, nil
}

func (c memoryCatalog) ProductsByID(_ context.Context, ids []uint64) (map[uint64]models.Product, error) {
	out := make(map[uint64]models.Product)
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func setup(t *testing.T) (*Service, *memoryStore, memoryCatalog) {
	t.Helper()
	store := newMemoryStore()
	catalog := memoryCatalog{
		1: {ID: 1, Name: "Tea", Price: decimal.NewFromInt(10), InOrder: true},
		2: {ID: 2, Name: "Cup", Price: decimal.NewFromInt(5), InOrder: true},
		3: {ID: 3, Name: "Retired", Price: decimal.NewFromInt(1), InOrder: false},
	}
	return NewService(store, catalog, zap.NewNop()), store, catalog
}

func TestServiceAdd(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	t.Run("Purchasable product", func(t *testing.T) {
		b, added, err := svc.Add(ctx, "s1", 1)
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, 1, b.Count)
		assert.Equal(t, []uint64{1}, store.baskets["s1"].Entries)
	})

	t.Run("Not purchasable is a no-op", func(t *testing.T) {
		saves := store.saves
		b, added, err := svc.Add(ctx, "s1", 3)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, 1, b.Count)
		assert.Equal(t, saves, store.saves)
	})

	t.Run("Unknown product", func(t *testing.T) {
		_, _, err := svc.Add(ctx, "s1", 99)
		assert.ErrorIs(t, err, models.ErrProductNotFound)
		assert.Equal(t, 1, store.baskets["s1"].Count)
	})
}

func TestServiceRemove(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	_, _, _ = svc.Add(ctx, "s1", 1)
	_, _, _ = svc.Add(ctx, "s1", 1)

	b, err := svc.Remove(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count)

	saves := store.saves
	b, err = svc.Remove(ctx, "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Count)
	assert.Equal(t, saves, store.saves, "removing an absent product must not rewrite the session")

	b, err = svc.Remove(ctx, "fresh", 1)
	require.NoError(t, err)
	assert.True(t, b.IsEmpty())
}

func TestServiceViewAndClear(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	for _, id := range []uint64{1, 2, 1, 2, 2} {
		_, _, err := svc.Add(ctx, "s1", id)
		require.NoError(t, err)
	}

	summary, err := svc.View(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)
	assert.True(t, decimal.NewFromInt(35).Equal(summary.Total))
	assert.Equal(t, 5, summary.Count)

	require.NoError(t, svc.Clear(ctx, "s1"))
	totals, err := svc.Totals(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestServiceViewReportsVanishedProduct(t *testing.T) {
	svc, _, catalog := setup(t)
	ctx := context.Background()

	_, _, err := svc.Add(ctx, "s1", 2)
	require.NoError(t, err)
	delete(catalog, 2)

	_, err = svc.View(ctx, "s1")
	assert.ErrorIs(t, err, models.ErrIntegrity)
}

func TestServiceStoreFailure(t *testing.T) {
	svc, store, _ := setup(t)
	store.failing = true

	_, _, err := svc.Add(context.Background(), "s1", 1)
	assert.Error(t, err)
}
