package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"testrig/pkg/logging"
)

const subsystem = "DataStore"

// Store is the typed file-data store. Construct one per harness (or per
// test, for isolation) with New; there is no package-level instance.
type Store struct {
	root       string
	formats    *Registry
	lookup     Lookup
	strictVars bool
	cache      *memCache
}

// Option configures a Store.
type Option func(*Store)

// WithLookup sets the placeholder variable lookup. The default resolves
// against the process environment.
func WithLookup(l Lookup) Option {
	return func(s *Store) { s.lookup = l }
}

// WithLenientVars leaves unresolved ${NAME} placeholders verbatim instead
// of failing the read.
func WithLenientVars() Option {
	return func(s *Store) { s.strictVars = false }
}

// WithFormats replaces the format registry.
func WithFormats(r *Registry) Option {
	return func(s *Store) { s.formats = r }
}

// New creates a store rooted at the given data directory. The root does not
// need to exist yet; writes create it.
func New(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data root %q: %w", root, err)
	}

	s := &Store{
		root:       filepath.Clean(abs),
		formats:    NewRegistry(),
		lookup:     func(name string) (string, bool) { return os.LookupEnv(name) },
		strictVars: true,
		cache:      newMemCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute data root directory.
func (s *Store) Root() string { return s.root }

// load resolves parts, reads and decodes the file through the cache, and
// returns the pre-substitution value together with the resolved path.
func (s *Store) load(parts []string) (string, interface{}, error) {
	path, err := s.Resolve(parts...)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.cache.invalidate(path)
			return "", nil, &NotFoundError{Path: path, Err: err}
		}
		return "", nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	format, err := s.formats.ForPath(path)
	if err != nil {
		return "", nil, err
	}

	value, err := s.cache.getOrLoad(path, info.ModTime(), func() (interface{}, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &NotFoundError{Path: path, Err: err}
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		decoded, err := format.Decode(data)
		if err != nil {
			return nil, &FormatError{Path: path, Format: format.Name(), Err: err}
		}
		logging.Debug(subsystem, "loaded %s", path)
		return decoded, nil
	})
	if err != nil {
		return "", nil, err
	}
	return path, value, nil
}

// write resolves parts, encodes the value with the extension-implied
// format, creates missing parent directories and overwrites the file. The
// cache entry is refreshed so a subsequent read does not re-parse.
func (s *Store) write(value interface{}, parts []string) error {
	path, err := s.Resolve(parts...)
	if err != nil {
		return err
	}

	format, err := s.formats.ForPath(path)
	if err != nil {
		return err
	}

	data, err := format.Encode(value)
	if err != nil {
		return &FormatError{Path: path, Format: format.Name(), Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.cache.put(path, value)
	logging.Info(subsystem, "wrote %s", path)
	return nil
}

// ReadFile reads a plain text file.
func (s *Store) ReadFile(parts ...string) (string, error) {
	_, value, err := s.load(parts)
	if err != nil {
		return "", err
	}
	text, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s is not a text file", filepath.Join(parts...))
	}
	return text, nil
}

// ReadRaw reads a file's bytes verbatim, regardless of extension. No
// format decoding, no placeholder substitution, no caching.
func (s *Store) ReadRaw(parts ...string) ([]byte, error) {
	path, err := s.Resolve(parts...)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile writes content to a text file, creating parent directories as
// needed.
func (s *Store) WriteFile(content string, parts ...string) error {
	return s.write(content, parts)
}

// AppendFile appends content to a text file and flushes before returning.
func (s *Store) AppendFile(content string, parts ...string) error {
	path, err := s.Resolve(parts...)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s for append: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	// The on-disk content changed in a way the cached value does not reflect.
	s.cache.invalidate(path)
	logging.Info(subsystem, "appended to %s", path)
	return nil
}

// ReadJSON reads a structured file and substitutes ${NAME} placeholders.
// Substitution runs after the cache on every read, so cached values never
// hold resolved secrets and environment changes between reads are observed.
func (s *Store) ReadJSON(parts ...string) (interface{}, error) {
	return s.readStructured(parts)
}

// ReadYAML reads a structured YAML file. Identical semantics to ReadJSON;
// the extension selects the codec.
func (s *Store) ReadYAML(parts ...string) (interface{}, error) {
	return s.readStructured(parts)
}

func (s *Store) readStructured(parts []string) (interface{}, error) {
	path, value, err := s.load(parts)
	if err != nil {
		return nil, err
	}
	return s.substituteVars(path, value)
}

// WriteJSON writes a structured value to a JSON file.
func (s *Store) WriteJSON(value interface{}, parts ...string) error {
	return s.write(value, parts)
}

// WriteYAML writes a structured value to a YAML file.
func (s *Store) WriteYAML(value interface{}, parts ...string) error {
	return s.write(value, parts)
}

// JSONValue reads a structured file and descends into it along a
// dot-delimited key ("user.profile.username"). An absent segment fails with
// a *KeyNotFoundError.
func (s *Store) JSONValue(key string, parts ...string) (interface{}, error) {
	value, err := s.readStructured(parts)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(parts...)
	current := value
	for _, segment := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, &KeyNotFoundError{Key: key, Segment: segment, Path: path}
		}
		current, ok = m[segment]
		if !ok {
			return nil, &KeyNotFoundError{Key: key, Segment: segment, Path: path}
		}
	}
	return current, nil
}

// ReadCSV reads a tabular file as a list of row mappings keyed by the
// header row. CSV reads are not cached; tabular fixtures are typically read
// once per scenario.
func (s *Store) ReadCSV(parts ...string) ([]map[string]string, error) {
	records, err := s.readCSVRecords(parts)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadCSVRows reads a tabular file as raw row sequences, header included.
func (s *Store) ReadCSVRows(parts ...string) ([][]string, error) {
	return s.readCSVRecords(parts)
}

func (s *Store) readCSVRecords(parts []string) ([][]string, error) {
	path, err := s.Resolve(parts...)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	format, err := s.formats.ForPath(path)
	if err != nil {
		return nil, err
	}
	decoded, err := format.Decode(data)
	if err != nil {
		return nil, &FormatError{Path: path, Format: format.Name(), Err: err}
	}
	records, ok := decoded.([][]string)
	if !ok {
		return nil, fmt.Errorf("%s is not a tabular file", path)
	}
	return records, nil
}

// WriteCSV writes row mappings to a tabular file. The header is the sorted
// key set of the first row so output is deterministic.
func (s *Store) WriteCSV(rows []map[string]string, parts ...string) error {
	return s.write(rows, parts)
}

// WriteCSVRows writes raw row sequences verbatim, header included.
func (s *Store) WriteCSVRows(rows [][]string, parts ...string) error {
	return s.write(rows, parts)
}

// FileExists reports whether the resolved path exists.
func (s *Store) FileExists(parts ...string) bool {
	path, err := s.Resolve(parts...)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// CreateDir creates a directory (and missing parents) under the root.
// Idempotent: an existing directory is not an error.
func (s *Store) CreateDir(parts ...string) error {
	path, err := s.Resolve(parts...)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	logging.Debug(subsystem, "created directory %s", path)
	return nil
}

// ListFiles returns the names of files directly under the resolved
// directory that match the glob pattern, sorted lexicographically so
// repeated listings are reproducible. A missing directory yields an empty
// list.
func (s *Store) ListFiles(pattern string, parts ...string) ([]string, error) {
	dir, err := s.Resolve(parts...)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		names = append(names, filepath.Base(match))
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate removes the cache entry for one logical path.
func (s *Store) Invalidate(parts ...string) error {
	path, err := s.Resolve(parts...)
	if err != nil {
		return err
	}
	s.cache.invalidate(path)
	return nil
}

// ClearCache removes all cache entries.
func (s *Store) ClearCache() {
	s.cache.clear()
	logging.Debug(subsystem, "cache cleared")
}

// CacheInfo returns the entry count and the sorted cached paths.
func (s *Store) CacheInfo() CacheInfo {
	return s.cache.info()
}
