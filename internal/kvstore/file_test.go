package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFile(path)
	require.NoError(t, err)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "key", []byte(`{"a":1}`)))

	value, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(value))
}

func TestFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "urls", []byte(`["https://a.example"]`)))
	require.NoError(t, store.Close())

	reopened, err := NewFile(path)
	require.NoError(t, err)

	value, ok, err := reopened.Get(ctx, "urls")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["https://a.example"]`, string(value))
}

func TestFileRejectsInvalidJSON(t *testing.T) {
	ctx := context.Background()
	store, err := NewFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	assert.Error(t, store.Set(ctx, "key", []byte("not json")))
}

func TestFileDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFile(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, "key", []byte(`true`)))
	require.NoError(t, store.Delete(ctx, "key"))

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryIsolatesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	original := []byte(`[1]`)
	require.NoError(t, store.Set(ctx, "key", original))
	original[1] = '9'

	value, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(value))
}
