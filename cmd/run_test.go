package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"testrig/internal/config"
	"testrig/internal/runner"
	"testrig/internal/scenario"
)

func resetRunFlags() {
	runReportDir = ""
	runAllureDir = ""
	runHTMLPath = ""
}

func TestWriteReportsUsesConfiguredHTMLPath(t *testing.T) {
	defer resetRunFlags()
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "report.html")
	t.Setenv("TESTRIG_REPORT_PATH", filepath.Join(dir, "json"))
	t.Setenv("TESTRIG_REPORT_ALLURE_RESULTS", filepath.Join(dir, "allure"))
	t.Setenv("TESTRIG_REPORT_HTML_PATH", htmlPath)

	cfg, err := config.Load(config.Options{})
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	now := time.Now()
	suite := runner.SuiteResult{
		RunID:     "run-1",
		StartTime: now,
		EndTime:   now,
		Total:     1,
		Passed:    1,
		Scenarios: []runner.ScenarioResult{
			{Name: "ok", Kind: scenario.KindData, Status: runner.StatusPassed, StartTime: now, EndTime: now},
		},
	}
	writeReports(cfg, suite)

	if _, err := os.Stat(htmlPath); err != nil {
		t.Errorf("Expected HTML report at the configured path, stat failed: %v", err)
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "json", "testrig-report-*.json")); len(matches) != 1 {
		t.Errorf("Expected one JSON report, got %d", len(matches))
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "allure", "*-result.json")); len(matches) != 1 {
		t.Errorf("Expected one Allure result, got %d", len(matches))
	}
}

func TestWriteReportsFlagOverridesConfig(t *testing.T) {
	defer resetRunFlags()
	dir := t.TempDir()
	t.Setenv("TESTRIG_REPORT_PATH", filepath.Join(dir, "ignored"))
	t.Setenv("TESTRIG_REPORT_ALLURE_RESULTS", filepath.Join(dir, "allure"))
	t.Setenv("TESTRIG_REPORT_HTML_PATH", filepath.Join(dir, "report.html"))
	runReportDir = filepath.Join(dir, "flagged")

	cfg, err := config.Load(config.Options{})
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	now := time.Now()
	writeReports(cfg, runner.SuiteResult{RunID: "run-2", StartTime: now, EndTime: now})

	if matches, _ := filepath.Glob(filepath.Join(dir, "flagged", "testrig-report-*.json")); len(matches) != 1 {
		t.Errorf("Expected the JSON report in the flag directory, got %d", len(matches))
	}
	if matches, _ := filepath.Glob(filepath.Join(dir, "ignored", "*")); len(matches) != 0 {
		t.Errorf("Expected the config directory to stay unused, got %d entries", len(matches))
	}
}
