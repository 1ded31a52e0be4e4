package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pta/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	revoked, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti", time.Hour))
	require.NoError(t, store.Revoke(ctx, "expired", 0))

	revoked, _ = store.IsRevoked(ctx, "jti")
	assert.True(t, revoked)
	revoked, _ = store.IsRevoked(ctx, "expired")
	assert.False(t, revoked)

	now = now.Add(time.Hour)
	revoked, _ = store.IsRevoked(ctx, "jti")
	assert.False(t, revoked, "revocation outlives the token")

	// expired entries are purged on the next revocation
	require.NoError(t, store.Revoke(ctx, "other", time.Minute))
	assert.Len(t, store.revoked, 1)
}

func TestRedisStore_Unavailable(t *testing.T) {
	// nothing listens on port 1
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()
	store := NewRedisStore(client)

	_, err := store.IsRevoked(context.Background(), "jti")
	assert.True(t, core.IsUnavailable(err))

	err = store.Revoke(context.Background(), "jti", time.Minute)
	assert.True(t, core.IsUnavailable(err))
}
