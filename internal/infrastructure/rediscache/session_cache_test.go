package rediscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-core/internal/application/checkout"
	"github.com/jhoicas/pos-core/internal/infrastructure/rediscache"
)

func newCache(t *testing.T) (*rediscache.SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return rediscache.NewSessionCache(client, time.Hour), mr
}

type payload struct {
	OrderID string `json:"order_id"`
	Total   string `json:"total"`
}

func TestSessionCache_SetYGet(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	in := payload{OrderID: "orden-1", Total: "94.50"}
	require.NoError(t, cache.Set(ctx, "biz", "tx-1", checkout.CacheNameSession, in, 0))

	var out payload
	found, err := cache.Get(ctx, "biz", "tx-1", checkout.CacheNameSession, &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestSessionCache_ClaveAusente(t *testing.T) {
	cache, _ := newCache(t)

	var out payload
	found, err := cache.Get(context.Background(), "biz", "tx-nada", checkout.CacheNameSession, &out)
	require.NoError(t, err, "clave ausente no es error")
	assert.False(t, found)
}

// El TTL es el mecanismo de abandono: la entrada expira sola.
func TestSessionCache_ExpiraPorTTL(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "biz", "tx-1", checkout.CacheNameSession, payload{OrderID: "o"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out payload
	found, err := cache.Get(ctx, "biz", "tx-1", checkout.CacheNameSession, &out)
	require.NoError(t, err)
	assert.False(t, found, "la entrada debe haber expirado")
}

// Las entradas son por (negocio, transacción, nombre): no se pisan entre sí.
func TestSessionCache_ClavesAisladasPorTransaccion(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "biz", "tx-1", checkout.CacheNameSession, payload{OrderID: "a"}, 0))
	require.NoError(t, cache.Set(ctx, "biz", "tx-2", checkout.CacheNameSession, payload{OrderID: "b"}, 0))
	require.NoError(t, cache.Set(ctx, "otro", "tx-1", checkout.CacheNameSession, payload{OrderID: "c"}, 0))

	var out payload
	_, err := cache.Get(ctx, "biz", "tx-1", checkout.CacheNameSession, &out)
	require.NoError(t, err)
	assert.Equal(t, "a", out.OrderID)

	_, err = cache.Get(ctx, "otro", "tx-1", checkout.CacheNameSession, &out)
	require.NoError(t, err)
	assert.Equal(t, "c", out.OrderID)
}

func TestSessionCache_DeleteDescartaVariasEntradas(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "biz", "tx-1", checkout.CacheNameSession, payload{OrderID: "a"}, 0))
	require.NoError(t, cache.Set(ctx, "biz", "tx-1", checkout.CacheNameCatalog, payload{OrderID: "b"}, 0))

	require.NoError(t, cache.Delete(ctx, "biz", "tx-1", checkout.CacheNameSession, checkout.CacheNameCatalog))

	var out payload
	found, err := cache.Get(ctx, "biz", "tx-1", checkout.CacheNameSession, &out)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = cache.Get(ctx, "biz", "tx-1", checkout.CacheNameCatalog, &out)
	require.NoError(t, err)
	assert.False(t, found)
}
