package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/shopdesk/pkg/basket"
	"github.com/example/shopdesk/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBasketStore(t *testing.T, ttl time.Duration) (*BasketStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	repo := NewRedisRepository(&config.RedisConfig{Addr: srv.Addr()})
	t.Cleanup(func() { repo.Close() })
	return NewBasketStore(repo, ttl), srv
}

func TestBasketStoreRoundTrip(t *testing.T) {
	store, srv := newBasketStore(t, time.Hour)
	ctx := context.Background()

	missing, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	b := basket.New()
	b.Add(3)
	b.Add(3)
	b.Add(5)
	require.NoError(t, store.Save(ctx, "sid-1", b))
	assert.Equal(t, time.Hour, srv.TTL("session:sid-1:basket"))

	loaded, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 3, 5}, loaded.Entries)
	assert.Equal(t, 3, loaded.Count)

	require.NoError(t, store.Clear(ctx, "sid-1"))
	assert.False(t, srv.Exists("session:sid-1:basket"))
}

func TestBasketStoreSessionsAreIsolated(t *testing.T) {
	store, _ := newBasketStore(t, 0)
	ctx := context.Background()

	b := basket.New()
	b.Add(1)
	require.NoError(t, store.Save(ctx, "a", b))

	other, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestBasketStoreCorruptValue(t *testing.T) {
	store, srv := newBasketStore(t, 0)
	require.NoError(t, srv.Set("session:bad:basket", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisPing(t *testing.T) {
	srv := miniredis.RunT(t)
	repo := NewRedisRepository(&config.RedisConfig{Addr: srv.Addr()})
	defer repo.Close()

	assert.NoError(t, repo.Ping(context.Background()))
}
