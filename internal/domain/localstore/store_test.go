package localstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mapKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMapKV() *mapKV {
	return &mapKV{data: make(map[string][]byte)}
}

func (m *mapKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func testStore(kv KV) *Store {
	return NewStore(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func emptyList() []int { return []int{} }

func TestCollection_LoadMissingReturnsEmpty(t *testing.T) {
	col := NewCollection(testStore(newMapKV()), KeyRatings, emptyList)
	require.Empty(t, col.Load(context.Background()))
	require.NotNil(t, col.Load(context.Background()))
}

func TestCollection_CorruptValueYieldsEmpty(t *testing.T) {
	kv := newMapKV()
	kv.data[KeyRatings] = []byte("{not json")
	col := NewCollection(testStore(kv), KeyRatings, emptyList)

	require.Equal(t, []int{}, col.Load(context.Background()))
}

func TestCollection_NullValueYieldsEmpty(t *testing.T) {
	kv := newMapKV()
	kv.data[KeyRatings] = []byte(" null\n")
	col := NewCollection(testStore(kv), KeyRatings, emptyList)

	require.Equal(t, []int{}, col.Load(context.Background()))
}

func TestCollection_ReadErrorYieldsEmpty(t *testing.T) {
	kv := newMapKV()
	kv.getErr = errors.New("backend down")
	col := NewCollection(testStore(kv), KeyRatings, emptyList)

	require.Equal(t, []int{}, col.Load(context.Background()))
}

func TestCollection_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	col := NewCollection(testStore(newMapKV()), KeyUsers, emptyList)

	require.NoError(t, col.Save(ctx, []int{1, 2, 3}))
	require.Equal(t, []int{1, 2, 3}, col.Load(ctx))

	require.NoError(t, col.Clear(ctx))
	require.Empty(t, col.Load(ctx))
}

func TestCollection_UpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	col := NewCollection(testStore(newMapKV()), KeyUsers, emptyList)
	require.NoError(t, col.Save(ctx, []int{7}))

	_, err := col.Update(ctx, func(v []int) ([]int, error) {
		return nil, errors.New("reject")
	})
	require.Error(t, err)
	require.Equal(t, []int{7}, col.Load(ctx))
}

func TestCollection_UpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	col := NewCollection(testStore(newMapKV()), KeyAssessments, emptyList)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := col.Update(ctx, func(v []int) ([]int, error) {
				return append(v, n), nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, col.Load(ctx), 40)
}

func TestKeys(t *testing.T) {
	require.Equal(t, "user_role_abc", RoleKey("abc"))
	require.Equal(t, "session_s1", SessionKey("s1"))
	require.Equal(t, "u1:health_assessments", ScopedKey("u1", KeyAssessments))
	require.Equal(t, KeyAssessments, ScopedKey("", KeyAssessments))
}
