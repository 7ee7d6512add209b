package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T, limits Limits) *SQLite {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), limits)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := openTestSQLite(t, Limits{})
	ctx := context.Background()

	require.NoError(t, store.PutAll(ctx, map[string][]byte{
		"a": []byte("alpha"),
		"b": []byte("beta"),
	}))

	value, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("alpha"), value)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteOverwrite(t *testing.T) {
	store := openTestSQLite(t, Limits{})
	ctx := context.Background()

	require.NoError(t, store.PutAll(ctx, map[string][]byte{"k": []byte("old")}))
	require.NoError(t, store.PutAll(ctx, map[string][]byte{"k": []byte("new")}))

	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), value)
}

func TestSQLiteDelete(t *testing.T) {
	store := openTestSQLite(t, Limits{})
	ctx := context.Background()

	require.NoError(t, store.PutAll(ctx, map[string][]byte{"k": []byte("v")}))
	require.NoError(t, store.Delete(ctx, "k", "never-existed"))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteEnforcesValueLimit(t *testing.T) {
	store := openTestSQLite(t, Limits{MaxValueBytes: 8, MaxBatchBytes: 100})
	ctx := context.Background()

	err := store.PutAll(ctx, map[string][]byte{"big": []byte("123456789")})
	require.ErrorIs(t, err, ErrValueTooLarge)

	// Nothing was written.
	_, ok, getErr := store.Get(ctx, "big")
	require.NoError(t, getErr)
	assert.False(t, ok)
}

func TestSQLiteEnforcesBatchLimit(t *testing.T) {
	store := openTestSQLite(t, Limits{MaxValueBytes: 8, MaxBatchBytes: 10})
	ctx := context.Background()

	err := store.PutAll(ctx, map[string][]byte{
		"a": []byte("12345678"),
		"b": []byte("12345678"),
	})
	require.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestMemoryMatchesStoreSemantics(t *testing.T) {
	store := NewMemory(Limits{MaxValueBytes: 8, MaxBatchBytes: 10})
	ctx := context.Background()

	require.NoError(t, store.PutAll(ctx, map[string][]byte{"k": []byte("v")}))
	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	require.ErrorIs(t,
		store.PutAll(ctx, map[string][]byte{"big": []byte("123456789")}),
		ErrValueTooLarge)
	require.ErrorIs(t,
		store.PutAll(ctx, map[string][]byte{"a": []byte("12345678"), "b": []byte("123")}),
		ErrBatchTooLarge)

	require.NoError(t, store.Delete(ctx, "k"))
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCopiesValues(t *testing.T) {
	store := NewMemory(Limits{})
	ctx := context.Background()

	original := []byte("value")
	require.NoError(t, store.PutAll(ctx, map[string][]byte{"k": original}))
	original[0] = 'X'

	stored, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), stored)
}
