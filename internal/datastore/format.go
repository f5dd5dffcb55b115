package datastore

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

// Format is a codec selected by file extension. Decode parses raw file
// content into an in-memory value; Encode serializes a value for writing.
type Format interface {
	// Name identifies the format in error messages ("json", "yaml", ...).
	Name() string
	// Extensions lists the extensions (with leading dot) handled by this format.
	Extensions() []string
	// Decode parses file content into a value.
	Decode(data []byte) (interface{}, error)
	// Encode serializes a value into file content.
	Encode(v interface{}) ([]byte, error)
}

// Registry maps file extensions to formats. Adding a format is a single
// Register call; nothing else in the store dispatches on extensions.
type Registry struct {
	byExt map[string]Format
}

// NewRegistry returns a registry with the built-in formats (text, JSON,
// YAML, CSV) already registered.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Format)}
	r.Register(textFormat{})
	r.Register(jsonFormat{})
	r.Register(yamlFormat{})
	r.Register(csvFormat{})
	return r
}

// Register adds a format for all of its extensions, replacing any previous
// registration for the same extension.
func (r *Registry) Register(f Format) {
	for _, ext := range f.Extensions() {
		r.byExt[strings.ToLower(ext)] = f
	}
}

// ForPath returns the format registered for the extension of path.
func (r *Registry) ForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("no format registered for extension %q (%s)", ext, path)
	}
	return f, nil
}

// textFormat handles plain text files. Values are strings.
type textFormat struct{}

func (textFormat) Name() string         { return "text" }
func (textFormat) Extensions() []string { return []string{".txt", ".log"} }

func (textFormat) Decode(data []byte) (interface{}, error) {
	return string(data), nil
}

func (textFormat) Encode(v interface{}) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("text format requires a string value, got %T", v)
	}
	return []byte(s), nil
}

// jsonFormat handles structured JSON documents.
type jsonFormat struct{}

func (jsonFormat) Name() string         { return "json" }
func (jsonFormat) Extensions() []string { return []string{".json"} }

func (jsonFormat) Decode(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (jsonFormat) Encode(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// yamlFormat handles structured YAML documents. Decoding goes through
// sigs.k8s.io/yaml so values have the same JSON-compatible shapes as
// documents parsed from .json files.
type yamlFormat struct{}

func (yamlFormat) Name() string         { return "yaml" }
func (yamlFormat) Extensions() []string { return []string{".yaml", ".yml"} }

func (yamlFormat) Decode(data []byte) (interface{}, error) {
	var v interface{}
	if err := sigsyaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (yamlFormat) Encode(v interface{}) ([]byte, error) {
	return sigsyaml.Marshal(v)
}

// csvFormat handles tabular files. Decode returns the raw records as
// [][]string; the store layers the header-row mapping on top. Encode
// accepts either [][]string (written verbatim) or []map[string]string
// (header derived from the sorted keys of the first row so output is
// deterministic).
type csvFormat struct{}

func (csvFormat) Name() string         { return "csv" }
func (csvFormat) Extensions() []string { return []string{".csv"} }

func (csvFormat) Decode(data []byte) (interface{}, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (csvFormat) Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	switch rows := v.(type) {
	case [][]string:
		if err := writer.WriteAll(rows); err != nil {
			return nil, err
		}
	case []map[string]string:
		if len(rows) == 0 {
			return nil, fmt.Errorf("csv format requires at least one row")
		}
		header := make([]string, 0, len(rows[0]))
		for k := range rows[0] {
			header = append(header, k)
		}
		sort.Strings(header)
		if err := writer.Write(header); err != nil {
			return nil, err
		}
		for _, row := range rows {
			record := make([]string, len(header))
			for i, k := range header {
				record[i] = row[k]
			}
			if err := writer.Write(record); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("csv format requires [][]string or []map[string]string, got %T", v)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
