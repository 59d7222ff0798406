package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, "hsp:")
	defer s.Close()

	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), KeyRecentlyViewed, []string{"x"}))
	assert.True(t, mr.Exists("hsp:"+KeyRecentlyViewed), "keys are namespaced by prefix")
	assert.Equal(t, `["x"]`, mustGet(t, mr, "hsp:"+KeyRecentlyViewed))
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	s := NewRedisStoreFromClient(client, "")
	mr.Close()

	err := s.Set(context.Background(), KeyAuth, record{Access: "a"})
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "redis", storeErr.Driver)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
