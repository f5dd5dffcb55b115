package datastore

import (
	"fmt"
	"io/fs"
	"strings"
)

// NotFoundError reports a read of a path that does not resolve to an
// existing file.
type NotFoundError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Unwrap exposes the underlying filesystem error so callers can also match
// with errors.Is(err, fs.ErrNotExist).
func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return fs.ErrNotExist
}

// FormatError reports content that does not parse under the format implied
// by its extension.
type FormatError struct {
	Path   string
	Format string
	Err    error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s in %s: %v", e.Format, e.Path, e.Err)
}

// Unwrap returns the parser error.
func (e *FormatError) Unwrap() error { return e.Err }

// ResolutionError reports ${NAME} placeholders whose variables are not
// defined in the active lookup. Missing holds every unresolved name found
// during the walk, in first-seen order.
type ResolutionError struct {
	Path    string
	Missing []string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unresolved variables in %s: %s", e.Path, strings.Join(e.Missing, ", "))
}

// PathError reports a resolution that would escape the configured data root.
type PathError struct {
	Path string
	Root string
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("path %s escapes data root %s", e.Path, e.Root)
}

// KeyNotFoundError reports an absent segment in a dotted-key lookup into a
// structured value.
type KeyNotFoundError struct {
	Key     string
	Segment string
	Path    string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found in %s: missing segment %q", e.Key, e.Path, e.Segment)
}
