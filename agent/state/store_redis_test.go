package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/contract"
	statex "github.com/ZeinNoureddin/Conversational-AI-Customer-Service/agent/state"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	store := statex.NewRedisStoreFromClient(client)
	ctx := context.Background()

	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, statex.ErrStateNotFound)

	st := statex.NewTurnState("u1", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	st.Intent = contractx.IntentGetOrder
	st.SetParameter("order_id", "42")
	st.AssistantReply = "Your order is on its way."
	require.NoError(t, store.Put(ctx, st))

	assert.True(t, mr.Exists("assistant:session:u1"))

	loaded, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, contractx.IntentGetOrder, loaded.Intent)
	assert.Equal(t, "42", loaded.Parameters["order_id"])
	assert.Equal(t, "Your order is on its way.", loaded.AssistantReply)
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	store := statex.NewRedisStoreFromClient(client, statex.WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, statex.NewTurnState("u1", time.Now())))
	assert.Equal(t, time.Hour, mr.TTL("assistant:session:u1"))

	mr.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "u1")
	assert.ErrorIs(t, err, statex.ErrStateNotFound)
}

func TestRedisStoreCustomPrefix(t *testing.T) {
	mr, client := newTestRedis(t)
	store := statex.NewRedisStoreFromClient(client, statex.WithKeyPrefix("svc:sess:"))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, statex.NewTurnState("u1", time.Now())))
	assert.True(t, mr.Exists("svc:sess:u1"))
}

func TestRedisStoreEvictIdempotent(t *testing.T) {
	_, client := newTestRedis(t)
	store := statex.NewRedisStoreFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, statex.NewTurnState("u1", time.Now())))

	removed, err := store.Evict(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Evict(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRedisLockerContention(t *testing.T) {
	_, client := newTestRedis(t)
	locker := statex.NewRedisLocker(client, "svc:sess:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "u1")
	require.NoError(t, err)

	// A second caller must not acquire the lock while it is held.
	blockedCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(blockedCtx, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()

	unlock2, err := locker.Lock(ctx, "u1")
	require.NoError(t, err)
	unlock2()
}

func TestNewRedisStoreValidatesConfig(t *testing.T) {
	_, err := statex.NewRedisStore(statex.RedisConfig{Addr: "  "})
	assert.Error(t, err)

	_, err = statex.NewRedisStore(statex.RedisConfig{Addr: "localhost:6379", TTL: -time.Second})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, statex.ErrStateNotFound))
}
