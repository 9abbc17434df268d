package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))

	val, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.SetTimeFunc(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 5*time.Minute))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	store.SetTimeFunc(func() time.Time { return now.Add(5*time.Minute + time.Second) })

	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "expired entry should not be returned")
}

func TestMemoryStoreSetNX(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "flag", []byte("1"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, "flag", []byte("2"), 0)
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX on same key should not store")

	val, found, err := store.Get(ctx, "flag")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("1"), val)
}

func TestMemoryStoreSetNXAfterExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	store.SetTimeFunc(func() time.Time { return now })

	ok, err := store.SetNX(ctx, "flag", []byte("1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	store.SetTimeFunc(func() time.Time { return now.Add(2 * time.Minute) })

	ok, err = store.SetNX(ctx, "flag", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "SetNX should succeed once the old value expired")
}

func TestMemoryStoreIncrByFloat(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	total, err := store.IncrByFloat(ctx, "spend", 0.5, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, total, 1e-9)

	total, err = store.IncrByFloat(ctx, "spend", 0.25, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, total, 1e-9)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, store.Delete(ctx, "k"))

	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error
	require.NoError(t, store.Delete(ctx, "k"))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("abc"), 0))

	val, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	val[0] = 'x'

	again, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again, "mutating a returned value must not affect the store")
}
