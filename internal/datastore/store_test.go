package datastore

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	return store
}

func writeRaw(t *testing.T, store *Store, rel string, content string) string {
	t.Helper()
	path := filepath.Join(store.Root(), rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_PathEquivalence(t *testing.T) {
	store := newTestStore(t)

	split, err := store.Resolve("api", "requests", "users.json")
	require.NoError(t, err)
	joined, err := store.Resolve("api/requests/users.json")
	require.NoError(t, err)
	mixed, err := store.Resolve("api/requests", "users.json")
	require.NoError(t, err)

	assert.Equal(t, split, joined)
	assert.Equal(t, split, mixed)
	assert.True(t, filepath.IsAbs(split))
}

func TestResolve_TraversalGuard(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Resolve("..", "outside.json")
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, store.Root(), pathErr.Root)

	_, err = store.Resolve("api/../../escape.txt")
	assert.ErrorAs(t, err, &pathErr)

	// Harmless inner dot segments stay under the root.
	_, err = store.Resolve("api/./requests/../requests/users.json")
	assert.NoError(t, err)
}

func TestReadWriteFile_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.WriteFile("hello world\n", "fixtures", "greeting.txt"))

	content, err := store.ReadFile("fixtures", "greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", content)
}

func TestWriteFile_CreatesParentDirectories(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.WriteFile("x", "deeply", "nested", "dirs", "file.txt"))
	assert.True(t, store.FileExists("deeply", "nested", "dirs", "file.txt"))

	// Writing again with directories already present must not fail.
	require.NoError(t, store.WriteFile("y", "deeply", "nested", "dirs", "file.txt"))
}

func TestReadRaw(t *testing.T) {
	store := newTestStore(t, WithLookup(mapLookup(map[string]string{"TOKEN": "tok-123"})))
	content := `{"auth": "${TOKEN}", "count": 3}`
	writeRaw(t, store, "api/requests/login.json", content)

	data, err := store.ReadRaw("api", "requests", "login.json")
	require.NoError(t, err)
	assert.Equal(t, content, string(data), "raw bytes are returned verbatim, no decoding or substitution")

	_, err = store.ReadRaw("api", "requests", "absent.json")
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = store.ReadRaw("..", "outside.json")
	var pathErr *PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestAppendFile(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AppendFile("line one\n", "logs", "run.log"))
	require.NoError(t, store.AppendFile("line two\n", "logs", "run.log"))

	content, err := store.ReadFile("logs", "run.log")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", content)
}

func TestReadWriteJSON_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	value := map[string]interface{}{
		"name":  "project-alpha",
		"count": float64(3),
		"tags":  []interface{}{"api", "smoke"},
		"nested": map[string]interface{}{
			"enabled": true,
		},
	}
	require.NoError(t, store.WriteJSON(value, "api", "requests", "project.json"))

	got, err := store.ReadJSON("api", "requests", "project.json")
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestReadWriteYAML_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	value := map[string]interface{}{
		"name": "ui-suite",
		"steps": []interface{}{
			map[string]interface{}{"action": "click", "selector": "#login"},
		},
	}
	require.NoError(t, store.WriteYAML(value, "ui", "pages", "login.yaml"))

	got, err := store.ReadYAML("ui", "pages", "login.yaml")
	require.NoError(t, err)
	assert.Equal(t, value, got)
}

func TestYAML_DecodesToJSONCompatibleShapes(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "fixtures/data.yaml", "count: 2\nitems:\n  - a\n  - b\n")

	got, err := store.ReadYAML("fixtures", "data.yaml")
	require.NoError(t, err)

	m, ok := got.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), m["count"])
	assert.Equal(t, []interface{}{"a", "b"}, m["items"])
}

func TestReadWriteCSV_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	rows := []map[string]string{
		{"name": "alice", "role": "admin"},
		{"name": "bob", "role": "viewer"},
	}
	require.NoError(t, store.WriteCSV(rows, "fixtures", "users.csv"))

	got, err := store.ReadCSV("fixtures", "users.csv")
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadCSVRows_IncludesHeader(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "fixtures/plain.csv", "a,b\n1,2\n3,4\n")

	rows, err := store.ReadCSVRows("fixtures", "plain.csv")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, rows)
}

func TestReadCSV_EmptyFile(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "fixtures/empty.csv", "")

	rows, err := store.ReadCSV("fixtures", "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadJSON_MissingFileIsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.ReadJSON("api", "requests", "absent.json")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadJSON_MalformedContentIsFormatError(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "api/requests/broken.json", "{not valid json")

	value, err := store.ReadJSON("api", "requests", "broken.json")
	assert.Nil(t, value, "no partial value on parse failure")
	var formatErr *FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "json", formatErr.Format)
}

func TestReadYAML_MalformedContentIsFormatError(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "fixtures/broken.yaml", "key: [unclosed")

	_, err := store.ReadYAML("fixtures", "broken.yaml")
	var formatErr *FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestRead_UnknownExtension(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "fixtures/blob.bin", "\x00\x01")

	_, err := store.ReadFile("fixtures", "blob.bin")
	assert.Error(t, err)
}

func TestJSONValue_DottedKeyLookup(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "api/responses/user.json",
		`{"user": {"profile": {"username": "alice", "id": 7}}}`)

	value, err := store.JSONValue("user.profile.username", "api", "responses", "user.json")
	require.NoError(t, err)
	assert.Equal(t, "alice", value)

	value, err = store.JSONValue("user.profile.id", "api", "responses", "user.json")
	require.NoError(t, err)
	assert.Equal(t, float64(7), value)
}

func TestJSONValue_MissingSegment(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "api/responses/user.json", `{"user": {"profile": {}}}`)

	_, err := store.JSONValue("user.profile.username", "api", "responses", "user.json")
	var keyErr *KeyNotFoundError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "username", keyErr.Segment)

	// Descending through a non-mapping leaf is also a key miss.
	writeRaw(t, store, "api/responses/leaf.json", `{"user": "alice"}`)
	_, err = store.JSONValue("user.profile", "api", "responses", "leaf.json")
	assert.ErrorAs(t, err, &keyErr)
}

func TestListFiles_SortedAndFiltered(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "api/requests/zeta.json", "{}")
	writeRaw(t, store, "api/requests/alpha.json", "{}")
	writeRaw(t, store, "api/requests/notes.txt", "n")
	require.NoError(t, store.CreateDir("api", "requests", "subdir"))

	names, err := store.ListFiles("*.json", "api", "requests")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.json", "zeta.json"}, names)

	// Repeated listings over unchanged content return the same sequence.
	again, err := store.ListFiles("*.json", "api", "requests")
	require.NoError(t, err)
	assert.Equal(t, names, again)
}

func TestListFiles_MissingDirectory(t *testing.T) {
	store := newTestStore(t)

	names, err := store.ListFiles("*", "does", "not", "exist")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestCreateDir_Idempotent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.CreateDir("screenshots"))
	require.NoError(t, store.CreateDir("screenshots"))
	assert.True(t, store.FileExists("screenshots"))
}
