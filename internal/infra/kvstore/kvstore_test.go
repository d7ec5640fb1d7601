package kvstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/mens-health/internal/domain/localstore"
)

func exerciseKV(t *testing.T, kv localstore.KV) {
	t.Helper()
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, kv.Set(ctx, "health_assessments", []byte(`[1,2]`), 0))
	value, found, err := kv.Get(ctx, "health_assessments")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `[1,2]`, string(value))

	require.NoError(t, kv.Set(ctx, "health_assessments", []byte(`[3]`), 0))
	value, _, err = kv.Get(ctx, "health_assessments")
	require.NoError(t, err)
	require.Equal(t, `[3]`, string(value))

	require.NoError(t, kv.Delete(ctx, "health_assessments"))
	_, found, err = kv.Get(ctx, "health_assessments")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemoryStore())
}

func TestMemoryStore_ExpiresEntries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "session_a", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, found, err := store.Get(ctx, "session_a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	payload := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", payload, 0))
	payload[0] = 'z'

	value, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(value))
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseKV(t, store)
}
