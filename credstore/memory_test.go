package credstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/urbanease/go-session"
	"github.com/urbanease/go-session/credstore"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	require.NoError(t, store.Store(ctx, "access", 15*time.Minute, "refresh"))

	token, err := store.ValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access", token)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh)
}

func TestMemoryStoreEmpty(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	token, err := store.ValidToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestMemoryStoreLazyPurgeOnRead(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	store := credstore.NewMemoryStore().WithClock(func() time.Time { return current })
	require.NoError(t, store.Store(ctx, "access", 15*time.Minute, "refresh"))

	// Cross into the expiry buffer: the read reports no token and drops
	// the stored credential, refresh token included.
	current = current.Add(15*time.Minute - session.ExpiryBuffer)

	token, err := store.ValidToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	refresh, err := store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestMemoryStoreClearIdempotent(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	require.NoError(t, store.Store(ctx, "access", time.Hour, ""))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	token, err := store.ValidToken(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemoryStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := credstore.NewMemoryStore()

	require.NoError(t, store.Store(ctx, "first", time.Hour, "r1"))
	require.NoError(t, store.Store(ctx, "second", time.Hour, "r2"))

	token, err := store.ValidToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}
