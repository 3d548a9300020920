package stores

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strideapp/stride/internal/data/db"
)

func newTestKVStore(t *testing.T) *KVStore {
	t.Helper()
	database, err := db.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return NewKVStore(database)
}

func TestKVStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	type payload struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	err := store.Set(ctx, "test-key", payload{Name: "hello", Value: 42})
	require.NoError(t, err)

	var got payload
	err = store.Get(ctx, "test-key", &got)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Name)
	assert.Equal(t, 42, got.Value)
}

func TestKVStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	var v string
	err := store.Get(ctx, "nonexistent", &v)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.True(t, IsNotFoundError(err))
}

func TestKVStore_SetOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "key", "first"))
	require.NoError(t, store.Set(ctx, "key", "second"))

	var got string
	require.NoError(t, store.Get(ctx, "key", &got))
	assert.Equal(t, "second", got)
}

func TestKVStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "key", "value"))
	require.NoError(t, store.Delete(ctx, "key"))

	has, err := store.Has(ctx, "key")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestKVStore_Has(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	has, err := store.Has(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, store.Set(ctx, "exists", true))
	has, err = store.Has(ctx, "exists")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestKVStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.SetTTL(ctx, "ephemeral", "gone", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var v string
	err := store.Get(ctx, "ephemeral", &v)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	has, err := store.Has(ctx, "ephemeral")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestKVStore_TTLNotYetExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.SetTTL(ctx, "short-lived", "here", time.Hour))

	var v string
	require.NoError(t, store.Get(ctx, "short-lived", &v))
	assert.Equal(t, "here", v)
}
