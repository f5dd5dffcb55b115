package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"testrig/internal/runner"
)

// Allure file formats, as consumed by `allure generate`.
type allureResult struct {
	UUID          string         `json:"uuid"`
	HistoryID     string         `json:"historyId"`
	Name          string         `json:"name"`
	FullName      string         `json:"fullName"`
	Status        string         `json:"status"`
	StatusDetails *allureDetails `json:"statusDetails,omitempty"`
	Stage         string         `json:"stage"`
	Start         int64          `json:"start"`
	Stop          int64          `json:"stop"`
	Labels        []allureLabel  `json:"labels"`
	Steps         []allureStep   `json:"steps,omitempty"`
	Description   string         `json:"description,omitempty"`
}

type allureDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

type allureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type allureStep struct {
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	StatusDetails *allureDetails `json:"statusDetails,omitempty"`
	Stage         string         `json:"stage"`
	Start         int64          `json:"start"`
	Stop          int64          `json:"stop"`
}

type allureContainer struct {
	UUID     string   `json:"uuid"`
	Name     string   `json:"name"`
	Children []string `json:"children"`
	Start    int64    `json:"start"`
	Stop     int64    `json:"stop"`
}

// WriteAllure writes one result file per scenario plus a container file
// into dir, the layout the Allure CLI expects.
func WriteAllure(result runner.SuiteResult, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating allure results directory: %w", err)
	}

	children := make([]string, 0, len(result.Scenarios))
	for _, sr := range result.Scenarios {
		id := uuid.New().String()
		children = append(children, id)

		ar := allureResult{
			UUID:      id,
			HistoryID: historyID(sr),
			Name:      sr.Name,
			FullName:  fullName(sr),
			Status:    allureStatus(sr.Status),
			Stage:     "finished",
			Start:     toMillis(sr.StartTime),
			Stop:      toMillis(sr.EndTime),
			Labels:    labels(sr),
		}
		if sr.Error != "" {
			ar.StatusDetails = &allureDetails{Message: sr.Error}
		}
		stepStart := sr.StartTime
		for _, step := range sr.Steps {
			stepStop := stepStart.Add(step.Duration)
			as := allureStep{
				Name:   step.Name,
				Status: allureStatus(step.Status),
				Stage:  "finished",
				Start:  toMillis(stepStart),
				Stop:   toMillis(stepStop),
			}
			if step.Error != "" {
				as.StatusDetails = &allureDetails{Message: step.Error}
			}
			ar.Steps = append(ar.Steps, as)
			stepStart = stepStop
		}

		if err := writeAllureFile(dir, id+"-result.json", ar); err != nil {
			return err
		}
	}

	container := allureContainer{
		UUID:     uuid.New().String(),
		Name:     "testrig run " + result.RunID,
		Children: children,
		Start:    toMillis(result.StartTime),
		Stop:     toMillis(result.EndTime),
	}
	return writeAllureFile(dir, container.UUID+"-container.json", container)
}

// CleanAllure removes previously written result and container files from
// dir, leaving anything else alone.
func CleanAllure(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, "-result.json") || strings.HasSuffix(name, "-container.json") {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// CleanAllureOld removes result and container files whose modification
// time is older than maxAge.
func CleanAllureOld(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, "-result.json") && !strings.HasSuffix(name, "-container.json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAllureFile(dir, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func allureStatus(status runner.Status) string {
	switch status {
	case runner.StatusPassed:
		return "passed"
	case runner.StatusFailed:
		return "failed"
	case runner.StatusSkipped:
		return "skipped"
	default:
		return "broken"
	}
}

// historyID is stable across runs so Allure can track a scenario's
// history; it is the full name, not a random id.
func historyID(sr runner.ScenarioResult) string {
	return fullName(sr)
}

func fullName(sr runner.ScenarioResult) string {
	if sr.Suite != "" {
		return sr.Suite + "." + sr.Name
	}
	return sr.Name
}

func labels(sr runner.ScenarioResult) []allureLabel {
	ls := []allureLabel{
		{Name: "framework", Value: "testrig"},
		{Name: "language", Value: "go"},
		{Name: "testClass", Value: sr.Name},
		{Name: "tag", Value: string(sr.Kind)},
	}
	if sr.Suite != "" {
		ls = append(ls,
			allureLabel{Name: "suite", Value: sr.Suite},
			allureLabel{Name: "package", Value: sr.Suite},
		)
	}
	return ls
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}
