package redisstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/fpl-companion/storage/redisstore"
	"github.com/jrsteele09/fpl-companion/storage/storagetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, opts ...redisstore.Option) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := redisstore.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "fplcompanion-test", opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := setupTestStore(t)
	storagetest.Run(t, s)
}

func TestRedisStore_PrefixesKeys(t *testing.T) {
	s, mr := setupTestStore(t)

	require.NoError(t, s.Set("team", []byte(`{"fpl_id":42}`)))
	got, err := mr.Get("fplcompanion-test:team")
	require.NoError(t, err)
	require.Equal(t, `{"fpl_id":42}`, got)

	require.NoError(t, s.Remove("team"))
	require.False(t, mr.Exists("fplcompanion-test:team"))
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := setupTestStore(t, redisstore.WithTTL(time.Minute))

	require.NoError(t, s.Set("dashboard", []byte(`{}`)))
	require.Equal(t, time.Minute, mr.TTL("fplcompanion-test:dashboard"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Get("dashboard")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisStore_Unreachable(t *testing.T) {
	s, mr := setupTestStore(t, redisstore.WithTimeout(200*time.Millisecond))
	mr.Close()

	_, _, err := s.Get("team")
	require.Error(t, err)
	require.Error(t, s.Set("team", []byte(`{}`)))
}

// Runs against a real server when REDIS_TEST_ADDR points at a disposable Redis.
func TestRedisStore_RealServer(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	s := redisstore.New(rdb, "fplcompanion-test-"+t.Name())
	t.Cleanup(func() { _ = s.Close() })

	storagetest.Run(t, s)
}
