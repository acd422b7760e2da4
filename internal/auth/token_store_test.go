package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"charitychain/internal/cache"
)

func TestTokenStore_WritesFailWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	down := cache.New(ctx, "127.0.0.1:1", "", 0, zap.NewNop())
	t.Cleanup(func() { _ = down.Close() })
	store := NewTokenStore(down)

	err := store.StoreRefreshToken(ctx, "token-id", 7, time.Hour)
	assert.Error(t, err)

	err = store.RevokeAccessToken(ctx, "access-id", time.Hour)
	assert.Error(t, err)

	_, err = store.GetRefreshToken(ctx, "token-id")
	assert.Error(t, err)
}

func TestTokenStore_WithoutRedis(t *testing.T) {
	ctx := context.Background()
	store := NewTokenStore(nil)

	require.NoError(t, store.StoreRefreshToken(ctx, "token-id", 7, time.Hour))
	require.NoError(t, store.RevokeAccessToken(ctx, "access-id", time.Hour))

	revoked, err := store.IsAccessTokenRevoked(ctx, "access-id")
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = store.GetRefreshToken(ctx, "token-id")
	assert.Error(t, err)
}
