package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"testrig/pkg/logging"
)

// Watch starts a filesystem watcher on the data root and its
// subdirectories that invalidates cache entries as soon as their backing
// files change on disk. The mtime check in the cache already catches stale
// entries on the next read; watching additionally drops entries for files
// edited while the harness idles, which keeps CacheInfo honest during long
// interactive sessions.
//
// The returned stop function shuts the watcher down and is safe to call
// more than once.
func (s *Store) Watch() (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := s.watchTree(watcher); err != nil {
		watcher.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					s.cache.invalidate(event.Name)
					logging.Debug(subsystem, "invalidated %s after %s", event.Name, event.Op)
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn(subsystem, "watcher error: %v", err)
			case <-done:
				return
			}
		}
	}()

	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		close(done)
		watcher.Close()
	}, nil
}

// watchTree registers the root and every existing subdirectory. fsnotify
// does not watch recursively; newly created directories are added from the
// event loop.
func (s *Store) watchTree(watcher *fsnotify.Watcher) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		if err := os.MkdirAll(s.root, 0o755); err != nil {
			return fmt.Errorf("failed to create data root %s: %w", s.root, err)
		}
	}
	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
