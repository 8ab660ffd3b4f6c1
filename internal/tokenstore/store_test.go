package tokenstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, secret string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sealer, err := NewSealer(secret)
	require.NoError(t, err)

	return NewRedisStore(client, sealer, time.Hour), mr
}

func TestSlot_MemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot := AccessTokenSlot(NewMemoryStore(), "ws-1")

	v, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, v, "empty slot reads as empty string")

	require.NoError(t, slot.Set(ctx, "tok-1"))
	require.NoError(t, slot.Set(ctx, "tok-2"))

	v, err = slot.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", v, "last write wins")

	require.NoError(t, slot.Clear(ctx))
	require.NoError(t, slot.Clear(ctx), "clearing twice is not an error")

	v, err = slot.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSlot_SetEmptyClears(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	slot := ProviderSessionSlot(store, "ws-1")

	require.NoError(t, slot.Set(ctx, `{"access_token":"a"}`))
	require.NoError(t, slot.Set(ctx, ""))

	_, err := store.Get(ctx, slot.Key())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SealsAtRest(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "a-long-enough-secret-for-testing-123")
	slot := AccessTokenSlot(store, "ws-1")

	require.NoError(t, slot.Set(ctx, "eyJhbGciOi.bearer"))

	raw, err := mr.Get("costpilot:token:ws-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "bearer", "stored value must be sealed")
	assert.Equal(t, time.Hour, mr.TTL("costpilot:token:ws-1"))

	v, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi.bearer", v)
}

func TestRedisStore_TamperedValueReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "a-long-enough-secret-for-testing-123")
	slot := AccessTokenSlot(store, "ws-1")

	require.NoError(t, slot.Set(ctx, "token"))

	raw, err := mr.Get("costpilot:token:ws-1")
	require.NoError(t, err)
	require.NoError(t, mr.Set("costpilot:token:ws-1", strings.ToUpper(raw)))

	v, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.False(t, mr.Exists("costpilot:token:ws-1"), "unreadable slot is removed")
}

func TestRedisStore_ValueBoundToSlotKey(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "a-long-enough-secret-for-testing-123")

	require.NoError(t, AccessTokenSlot(store, "ws-1").Set(ctx, "token-of-ws-1"))

	raw, err := mr.Get("costpilot:token:ws-1")
	require.NoError(t, err)
	require.NoError(t, mr.Set("costpilot:token:ws-2", raw))

	v, err := AccessTokenSlot(store, "ws-2").Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, v, "a sealed value copied to another slot must not open")
}

func TestRedisStore_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "a-long-enough-secret-for-testing-123")
	slot := AccessTokenSlot(store, "ws-1")

	require.NoError(t, slot.Set(ctx, "token"))
	mr.FastForward(2 * time.Hour)

	v, err := slot.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSealer_DifferentSecretsDoNotOpen(t *testing.T) {
	a, err := NewSealer("secret-a")
	require.NoError(t, err)
	b, err := NewSealer("secret-b")
	require.NoError(t, err)

	sealed, err := a.Seal("k", "value")
	require.NoError(t, err)

	_, err = b.Open("k", sealed)
	assert.Error(t, err)

	_, err = NewSealer("")
	assert.Error(t, err)
}

func TestSlot_MoveToResealsUnderNewKey(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, "a-long-enough-secret-for-testing-123")
	from := AccessTokenSlot(store, "ws-old")
	to := AccessTokenSlot(store, "ws-new")

	require.NoError(t, from.Set(ctx, "token"))
	require.NoError(t, from.MoveTo(ctx, to))

	v, err := to.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token", v)
	assert.False(t, mr.Exists("costpilot:token:ws-old"))

	// Moving an empty slot empties the destination.
	require.NoError(t, from.MoveTo(ctx, to))
	v, err = to.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, v)
}
