// Package datastore implements the typed file-data store that backs the
// harness: test fixtures, request payloads, expected responses, page
// selectors and tabular test data all live under a single data root and are
// loaded through one component.
//
// # Layout
//
// Files are addressed by logical path segments joined under the configured
// root. Callers may pass the segments individually or as one delimited
// string; both resolve to the same file:
//
//	store.ReadJSON("api", "requests", "users.json")
//	store.ReadJSON("api/requests/users.json")
//
// The first segment is conventionally a category ("api", "ui", "fixtures")
// but no category names are enforced. Resolution is pure: the same segments
// always produce the same absolute path, and a resolved path that would
// escape the root is rejected with a *PathError.
//
// # Formats
//
// The file extension selects the codec through a registry:
//
//	.txt .log   plain text (string)
//	.json       structured (encoding/json)
//	.yaml .yml  structured (sigs.k8s.io/yaml, JSON-compatible value shapes)
//	.csv        tabular (encoding/csv)
//
// YAML decoding goes through sigs.k8s.io/yaml so structured values have the
// same Go shapes (map[string]interface{}, []interface{}, string, float64,
// bool) regardless of whether they came from a JSON or a YAML file.
//
// # Variable placeholders
//
// String leaves of structured values may embed ${NAME} placeholders. They
// are resolved against an injected lookup (typically the harness
// configuration backed by the environment) on every read, after the cache.
// Cached values therefore never hold substituted secrets, and tests that
// change the environment between reads observe the new bindings. In strict
// mode (the default) an unresolved name fails the read with a
// *ResolutionError naming every missing variable; in lenient mode
// placeholders are left verbatim.
//
// # Caching
//
// Parsed values are memoized per resolved path together with the file's
// modification time at load. A later read whose current mtime differs
// reloads the file, so editing test data between runs of the same process
// is safe. Invalidation is otherwise explicit (Invalidate, ClearCache), and
// the cache is unbounded: the key space is the test corpus. The store is
// safe for concurrent use by parallel scenario workers.
//
// # Errors
//
// Failures surface undecorated so a test depending on broken data fails
// loudly: *NotFoundError (missing file on read), *FormatError (content does
// not parse under the extension-implied format), *ResolutionError
// (unresolved placeholder in strict mode), *PathError (traversal outside
// the root) and *KeyNotFoundError (absent segment in a dotted key lookup).
// The only automatic recovery is directory creation on writes.
package datastore
