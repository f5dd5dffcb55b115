// Package runner executes loaded scenarios against the API client, the
// browser client and the data store, sequentially or with a worker pool,
// and produces the suite result consumed by the reporters.
package runner

import (
	"context"
	"time"

	"testrig/internal/scenario"
)

// Status is the outcome of a step, scenario or suite.
type Status string

const (
	// StatusPassed indicates the unit completed with all expectations met.
	StatusPassed Status = "PASSED"
	// StatusFailed indicates an expectation was not met.
	StatusFailed Status = "FAILED"
	// StatusSkipped indicates the unit did not run (fail-fast.)
	StatusSkipped Status = "SKIPPED"
	// StatusError indicates the unit aborted before expectations applied.
	StatusError Status = "ERROR"
)

// StepResult records the outcome of one step.
type StepResult struct {
	Name     string        `json:"name"`
	Action   string        `json:"action"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Output   interface{}   `json:"output,omitempty"`
}

// ScenarioResult records the outcome of one scenario, including every
// attempt's final step list.
type ScenarioResult struct {
	Name      string        `json:"name"`
	Suite     string        `json:"suite,omitempty"`
	Kind      scenario.Kind `json:"kind"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Attempts  int           `json:"attempts"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Steps     []StepResult  `json:"steps"`
}

// SuiteResult aggregates a whole run.
type SuiteResult struct {
	RunID     string           `json:"runId"`
	StartTime time.Time        `json:"startTime"`
	EndTime   time.Time        `json:"endTime"`
	Duration  time.Duration    `json:"duration"`
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Errors    int              `json:"errors"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// Config controls a run.
type Config struct {
	// Parallel is the number of scenario workers; values below 2 mean
	// sequential execution.
	Parallel int
	// FailFast stops the run after the first failed scenario.
	FailFast bool
	// Timeout bounds each scenario without an explicit timeout.
	Timeout time.Duration
}

// Reporter receives run progress. Implementations live in internal/report.
type Reporter interface {
	SuiteStarted(total int, cfg Config)
	ScenarioStarted(sc scenario.Scenario)
	ScenarioFinished(result ScenarioResult)
	SuiteFinished(result SuiteResult)
}

// UIDriver is the browser surface the runner depends on. One driver is
// created per UI scenario and closed when the scenario ends.
type UIDriver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error
	WaitVisible(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	Screenshot(ctx context.Context, name string, failed bool) (string, error)
	Close() error
}

