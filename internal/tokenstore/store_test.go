package tokenstore

import (
	"context"
	"testing"
	"time"

	"nmc-mcp/internal/auth"
	"nmc-mcp/internal/testing/mock"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T, clock *mock.MockClock) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedis(client, AccountKey("https://nmc.example.com", "admin"), clock)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedis_SaveLoadClear(t *testing.T) {
	now := time.Date(2025, 8, 9, 7, 0, 0, 0, time.UTC)
	clock := mock.NewMockClock(now)
	store, mr := newTestRedis(t, clock)
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	tok := auth.Token{Value: "abc", IssuedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Save(ctx, tok))
	assert.Equal(t, time.Hour, mr.TTL(store.key))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", got.Value)
	assert.True(t, got.ExpiresAt.Equal(tok.ExpiresAt))

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ExpiresWithToken(t *testing.T) {
	now := time.Date(2025, 8, 9, 7, 0, 0, 0, time.UTC)
	store, mr := newTestRedis(t, mock.NewMockClock(now))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, auth.Token{Value: "abc", ExpiresAt: now.Add(time.Minute)}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_SkipsExpiredToken(t *testing.T) {
	now := time.Date(2025, 8, 9, 7, 0, 0, 0, time.UTC)
	store, mr := newTestRedis(t, mock.NewMockClock(now))

	require.NoError(t, store.Save(context.Background(), auth.Token{Value: "old", ExpiresAt: now.Add(-time.Second)}))
	assert.False(t, mr.Exists(store.key))
}

func TestRedis_CorruptValueIsIgnored(t *testing.T) {
	store, mr := newTestRedis(t, mock.NewMockClock(time.Time{}))
	require.NoError(t, mr.Set(store.key, "not json"))

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpen(t *testing.T) {
	s, err := Open("", "https://nmc", "admin")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open("memory://", "https://nmc", "admin")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	mr := miniredis.RunT(t)
	s, err = Open("redis://"+mr.Addr()+"/0", "https://nmc", "admin")
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)

	_, err = Open("etcd://localhost", "https://nmc", "admin")
	assert.Error(t, err)
}

func TestAccountKey(t *testing.T) {
	a := AccountKey("https://nmc.example.com/", "admin")
	b := AccountKey("https://nmc.example.com", "admin")
	c := AccountKey("https://nmc.example.com", "other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, a, "admin")
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Save(context.Background(), auth.Token{Value: "x"}))
	_, ok, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, m.Clear(context.Background()))
}
