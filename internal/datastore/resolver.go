package datastore

import (
	"path/filepath"
	"strings"
)

// Resolve joins path segments under the data root and returns the absolute,
// platform-normalized path. Callers may pass the segments individually or as
// one delimited string; Resolve("a", "b", "c") and Resolve("a/b/c") produce
// the identical result. A resolved path outside the root fails with a
// *PathError.
func (s *Store) Resolve(parts ...string) (string, error) {
	joined := filepath.Join(append([]string{s.root}, parts...)...)
	resolved := filepath.Clean(joined)

	if !s.underRoot(resolved) {
		return "", &PathError{Path: resolved, Root: s.root}
	}
	return resolved, nil
}

// underRoot reports whether path is the root itself or below it.
func (s *Store) underRoot(path string) bool {
	if path == s.root {
		return true
	}
	return strings.HasPrefix(path, s.root+string(filepath.Separator))
}
