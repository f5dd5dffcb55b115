package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"testrig/internal/runner"
)

// SaveJSON writes the suite result as an indented JSON file into dir,
// named with the run's start timestamp, and returns the file path.
func SaveJSON(result runner.SuiteResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	name := fmt.Sprintf("testrig-report-%s.json", result.StartTime.Format("20060102-150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// LoadJSON reads a suite result previously written by SaveJSON.
func LoadJSON(path string) (*runner.SuiteResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var result runner.SuiteResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return &result, nil
}

// LatestJSON returns the newest report file in dir.
func LatestJSON(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "testrig-report-*.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no report files in %s", dir)
	}

	var newest string
	var newestMod time.Time
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = m
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no readable report files in %s", dir)
	}
	return newest, nil
}
