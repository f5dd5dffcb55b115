package scenario

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"testrig/pkg/logging"
)

const subsystem = "Scenario"

// Loader reads scenario definitions from YAML files.
type Loader struct{}

// NewLoader creates a scenario loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads scenarios from a YAML file or from every YAML file under a
// directory (recursively). Scenario names must be unique across the set.
func (l *Loader) Load(path string) ([]Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scenario path does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}

	// Scenario name -> source file, for reporting where a duplicate came from.
	seen := make(map[string]string)

	var scenarios []Scenario
	if info.IsDir() {
		scenarios, err = l.loadDirectory(path, seen)
	} else {
		scenarios, err = l.loadFile(path, seen)
	}
	if err != nil {
		return nil, err
	}

	logging.Debug(subsystem, "loaded %d scenarios from %s", len(scenarios), path)
	return scenarios, nil
}

func (l *Loader) loadDirectory(dir string, seen map[string]string) ([]Scenario, error) {
	var scenarios []Scenario

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}

		loaded, err := l.loadFile(path, seen)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		scenarios = append(scenarios, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	// Directory walk order is filesystem dependent; keep runs reproducible.
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].Name < scenarios[j].Name })
	return scenarios, nil
}

// loadFile parses one YAML file. A file holds either a single scenario
// document or a list under a top-level "scenarios" key.
func (l *Loader) loadFile(path string, seen map[string]string) ([]Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var multi struct {
		Scenarios []Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(content, &multi); err == nil && len(multi.Scenarios) > 0 {
		for i := range multi.Scenarios {
			if err := Validate(multi.Scenarios[i]); err != nil {
				return nil, fmt.Errorf("invalid scenario in %s: %w", path, err)
			}
		}
		if err := recordNames(multi.Scenarios, path, seen); err != nil {
			return nil, err
		}
		return multi.Scenarios, nil
	}

	var single Scenario
	if err := yaml.Unmarshal(content, &single); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	if err := Validate(single); err != nil {
		return nil, fmt.Errorf("invalid scenario in %s: %w", path, err)
	}
	if err := recordNames([]Scenario{single}, path, seen); err != nil {
		return nil, err
	}
	return []Scenario{single}, nil
}

// recordNames registers each scenario's source file and rejects names that
// were already loaded elsewhere.
func recordNames(scenarios []Scenario, path string, seen map[string]string) error {
	for _, sc := range scenarios {
		if prev, dup := seen[sc.Name]; dup {
			return fmt.Errorf("duplicate scenario name %q in %s (already defined in %s)", sc.Name, path, prev)
		}
		seen[sc.Name] = path
	}
	return nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Apply returns the scenarios matching the filter, preserving order.
func Apply(scenarios []Scenario, f Filter) []Scenario {
	var out []Scenario
	for _, sc := range scenarios {
		if f.Kind != "" && sc.Kind != f.Kind {
			continue
		}
		if f.Suite != "" && sc.Suite != f.Suite {
			continue
		}
		if f.Name != "" && sc.Name != f.Name {
			continue
		}
		if len(f.Tags) > 0 && !hasAllTags(sc.Tags, f.Tags) {
			continue
		}
		out = append(out, sc)
	}
	return out
}

func hasAllTags(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, tag := range have {
		set[tag] = true
	}
	for _, tag := range want {
		if !set[tag] {
			return false
		}
	}
	return true
}
