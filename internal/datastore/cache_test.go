package datastore

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCache_LoaderInvokedOncePerPath(t *testing.T) {
	cache := newMemCache()
	modTime := time.Now()

	calls := 0
	loader := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	v1, err := cache.getOrLoad("/data/a.json", modTime, loader)
	require.NoError(t, err)
	v2, err := cache.getOrLoad("/data/a.json", modTime, loader)
	require.NoError(t, err)

	assert.Equal(t, "value", v1)
	assert.Equal(t, "value", v2)
	assert.Equal(t, 1, calls, "loader must run exactly once for repeated lookups")
}

func TestMemCache_ClearForcesReload(t *testing.T) {
	cache := newMemCache()
	modTime := time.Now()

	calls := 0
	loader := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := cache.getOrLoad("/data/a.json", modTime, loader)
	require.NoError(t, err)
	cache.clear()
	v, err := cache.getOrLoad("/data/a.json", modTime, loader)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, v)
}

func TestMemCache_ModTimeChangeForcesReload(t *testing.T) {
	cache := newMemCache()
	first := time.Now()

	calls := 0
	loader := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	_, err := cache.getOrLoad("/data/a.json", first, loader)
	require.NoError(t, err)
	v, err := cache.getOrLoad("/data/a.json", first.Add(time.Second), loader)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, v)
}

func TestMemCache_LoaderErrorNotCached(t *testing.T) {
	cache := newMemCache()
	modTime := time.Now()
	boom := errors.New("boom")

	calls := 0
	loader := func() (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "ok", nil
	}

	_, err := cache.getOrLoad("/data/a.json", modTime, loader)
	assert.ErrorIs(t, err, boom)

	v, err := cache.getOrLoad("/data/a.json", modTime, loader)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestMemCache_Info(t *testing.T) {
	cache := newMemCache()
	now := time.Now()
	loader := func() (interface{}, error) { return "v", nil }

	_, _ = cache.getOrLoad("/data/b.json", now, loader)
	_, _ = cache.getOrLoad("/data/a.json", now, loader)

	info := cache.info()
	assert.Equal(t, 2, info.Entries)
	assert.Equal(t, []string{"/data/a.json", "/data/b.json"}, info.Paths, "paths are sorted")

	cache.invalidate("/data/a.json")
	assert.Equal(t, 1, cache.info().Entries)
}

func TestStore_CachedReadSurvivesOnDiskEditWithSameModTime(t *testing.T) {
	store := newTestStore(t)
	path := writeRaw(t, store, "fixtures/value.json", `{"v": 1}`)

	info, err := os.Stat(path)
	require.NoError(t, err)

	first, err := store.ReadJSON("fixtures", "value.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"v": float64(1)}, first)

	// Rewrite behind the store's back, pinning the old mtime so the entry
	// still looks fresh. The cached value must be served.
	require.NoError(t, os.WriteFile(path, []byte(`{"v": 2}`), 0o644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	second, err := store.ReadJSON("fixtures", "value.json")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// An explicit clear always forces a reload.
	store.ClearCache()
	third, err := store.ReadJSON("fixtures", "value.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"v": float64(2)}, third)
}

func TestStore_ModTimeChangeTriggersReload(t *testing.T) {
	store := newTestStore(t)
	path := writeRaw(t, store, "fixtures/value.json", `{"v": 1}`)

	_, err := store.ReadJSON("fixtures", "value.json")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"v": 2}`), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	got, err := store.ReadJSON("fixtures", "value.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"v": float64(2)}, got)
}

func TestStore_WriteRefreshesCacheEntry(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.WriteJSON(map[string]interface{}{"v": "old"}, "fixtures", "w.json"))
	_, err := store.ReadJSON("fixtures", "w.json")
	require.NoError(t, err)

	require.NoError(t, store.WriteJSON(map[string]interface{}{"v": "new"}, "fixtures", "w.json"))
	got, err := store.ReadJSON("fixtures", "w.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"v": "new"}, got)
}

func TestStore_DeletedFileInvalidatesEntry(t *testing.T) {
	store := newTestStore(t)
	path := writeRaw(t, store, "fixtures/gone.json", `{}`)

	_, err := store.ReadJSON("fixtures", "gone.json")
	require.NoError(t, err)
	assert.Equal(t, 1, store.CacheInfo().Entries)

	require.NoError(t, os.Remove(path))
	_, err = store.ReadJSON("fixtures", "gone.json")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, store.CacheInfo().Entries)
}

func TestStore_InvalidateSingleEntry(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "fixtures/a.json", `{}`)
	writeRaw(t, store, "fixtures/b.json", `{}`)

	_, err := store.ReadJSON("fixtures", "a.json")
	require.NoError(t, err)
	_, err = store.ReadJSON("fixtures", "b.json")
	require.NoError(t, err)
	require.Equal(t, 2, store.CacheInfo().Entries)

	require.NoError(t, store.Invalidate("fixtures", "a.json"))
	info := store.CacheInfo()
	assert.Equal(t, 1, info.Entries)
}
