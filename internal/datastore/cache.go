package datastore

import (
	"os"
	"sort"
	"sync"
	"time"
)

// cacheEntry holds a parsed value and the backing file's modification time
// at load. The entry is valid only while the mtime still matches.
type cacheEntry struct {
	value   interface{}
	modTime time.Time
}

// memCache memoizes parsed values keyed by resolved absolute path. Entries
// live until explicit invalidation or until the backing file's mtime
// changes; there is no eviction, the key space is the test corpus.
type memCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]cacheEntry)}
}

// getOrLoad returns the cached value for path if present and still fresh,
// otherwise invokes loader and stores the result together with modTime.
// The loader runs under the cache lock; loads are whole-file parses and the
// store's callers are test workers, so simplicity wins over load
// parallelism for a single path.
func (c *memCache) getOrLoad(path string, modTime time.Time, loader func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[path]; ok && entry.modTime.Equal(modTime) {
		return entry.value, nil
	}

	value, err := loader()
	if err != nil {
		return nil, err
	}
	c.entries[path] = cacheEntry{value: value, modTime: modTime}
	return value, nil
}

// put stores a value directly, used after writes so a subsequent read does
// not re-parse what was just written.
func (c *memCache) put(path string, value interface{}) {
	modTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{value: value, modTime: modTime}
}

// invalidate removes one entry.
func (c *memCache) invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// clear removes all entries.
func (c *memCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// CacheInfo describes the current cache contents for introspection.
type CacheInfo struct {
	Entries int      `json:"entries"`
	Paths   []string `json:"paths"`
}

// info returns the entry count and the sorted list of cached paths.
func (c *memCache) info() CacheInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	paths := make([]string, 0, len(c.entries))
	for path := range c.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return CacheInfo{Entries: len(paths), Paths: paths}
}
