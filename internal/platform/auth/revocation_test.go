package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore(t *testing.T) {
	s := NewMemoryRevocationStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, s.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	s.cleanup(time.Now())
	assert.Equal(t, 1, s.Count())
}

func TestRedisRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisRevocationStore(client)
	ctx := context.Background()

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry should expire with the token")
}

func TestRedisRevocationStore_AlreadyExpired(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisRevocationStore(client)
	require.NoError(t, s.Revoke(context.Background(), "jti-1", time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists("clinic:revoked:jti-1"))
}

func TestRedisRevocationStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	_, err := NewRedisRevocationStore(client).IsRevoked(context.Background(), "jti-1")
	assert.Error(t, err)
}
