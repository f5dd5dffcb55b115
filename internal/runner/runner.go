package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"testrig/internal/apiclient"
	"testrig/internal/datastore"
	"testrig/internal/scenario"
	"testrig/pkg/logging"
)

const logSubsystem = "Runner"

// Deps are the surfaces a Runner drives. Any of them may be nil; steps
// needing an absent dependency fail with a descriptive error.
type Deps struct {
	API   *apiclient.Client
	Store *datastore.Store
	// NewUI opens a browser session for one UI scenario.
	NewUI func(ctx context.Context) (UIDriver, error)
	// Lookup resolves ${NAME} references that no stored step result
	// covers, typically from configuration and the environment.
	Lookup   func(name string) (string, bool)
	Reporter Reporter
}

// Runner executes scenarios and aggregates their results.
type Runner struct {
	cfg  Config
	deps Deps
}

// expectationError marks a failed assertion, distinguishing FAILED from
// ERROR results.
type expectationError struct{ err error }

func (e *expectationError) Error() string { return e.err.Error() }
func (e *expectationError) Unwrap() error { return e.err }

// New creates a Runner. A zero Parallel runs sequentially and a zero
// Timeout applies no suite-level bound.
func New(cfg Config, deps Deps) *Runner {
	if deps.Reporter == nil {
		deps.Reporter = nopReporter{}
	}
	return &Runner{cfg: cfg, deps: deps}
}

// Run executes the given scenarios and returns the aggregated suite
// result. The returned error is non-nil only when the run itself could
// not proceed; scenario failures are reported through the result.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) (*SuiteResult, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios to run")
	}

	suite := &SuiteResult{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
		Total:     len(scenarios),
		Scenarios: make([]ScenarioResult, len(scenarios)),
	}
	r.deps.Reporter.SuiteStarted(len(scenarios), r.cfg)
	logging.Info(logSubsystem, "Starting run %s with %d scenario(s)", suite.RunID, len(scenarios))

	if r.cfg.Parallel > 1 {
		r.runParallel(ctx, scenarios, suite)
	} else {
		r.runSequential(ctx, scenarios, suite)
	}

	suite.EndTime = time.Now()
	suite.Duration = suite.EndTime.Sub(suite.StartTime)
	for _, sr := range suite.Scenarios {
		switch sr.Status {
		case StatusPassed:
			suite.Passed++
		case StatusFailed:
			suite.Failed++
		case StatusSkipped:
			suite.Skipped++
		default:
			suite.Errors++
		}
	}
	r.deps.Reporter.SuiteFinished(*suite)
	logging.Info(logSubsystem, "Run %s finished: %d passed, %d failed, %d skipped, %d errors",
		suite.RunID, suite.Passed, suite.Failed, suite.Skipped, suite.Errors)
	return suite, nil
}

func (r *Runner) runSequential(ctx context.Context, scenarios []scenario.Scenario, suite *SuiteResult) {
	stopped := false
	for i, sc := range scenarios {
		if stopped || ctx.Err() != nil {
			suite.Scenarios[i] = skippedResult(sc)
			r.deps.Reporter.ScenarioFinished(suite.Scenarios[i])
			continue
		}
		r.deps.Reporter.ScenarioStarted(sc)
		result := r.runScenario(ctx, sc)
		suite.Scenarios[i] = result
		r.deps.Reporter.ScenarioFinished(result)
		if r.cfg.FailFast && result.Status != StatusPassed {
			stopped = true
		}
	}
}

func (r *Runner) runParallel(ctx context.Context, scenarios []scenario.Scenario, suite *SuiteResult) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(runCtx)
	g.SetLimit(r.cfg.Parallel)

	for i, sc := range scenarios {
		g.Go(func() error {
			if gCtx.Err() != nil {
				mu.Lock()
				suite.Scenarios[i] = skippedResult(sc)
				r.deps.Reporter.ScenarioFinished(suite.Scenarios[i])
				mu.Unlock()
				return nil
			}
			r.deps.Reporter.ScenarioStarted(sc)
			result := r.runScenario(gCtx, sc)
			mu.Lock()
			suite.Scenarios[i] = result
			r.deps.Reporter.ScenarioFinished(result)
			mu.Unlock()
			if r.cfg.FailFast && result.Status != StatusPassed {
				cancel()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func skippedResult(sc scenario.Scenario) ScenarioResult {
	now := time.Now()
	return ScenarioResult{
		Name:      sc.Name,
		Suite:     sc.Suite,
		Kind:      sc.Kind,
		Status:    StatusSkipped,
		StartTime: now,
		EndTime:   now,
	}
}

// runScenario executes one scenario, retrying failed attempts up to the
// scenario's retry count. Each attempt gets a fresh run context and, for
// UI scenarios, a fresh browser session.
func (r *Runner) runScenario(ctx context.Context, sc scenario.Scenario) ScenarioResult {
	result := ScenarioResult{
		Name:      sc.Name,
		Suite:     sc.Suite,
		Kind:      sc.Kind,
		StartTime: time.Now(),
	}

	timeout := sc.Timeout
	if timeout == 0 {
		timeout = r.cfg.Timeout
	}

	attempts := sc.Retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt
		attemptCtx := ctx
		var cancel context.CancelFunc = func() {}
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		steps, status, errMsg := r.runAttempt(attemptCtx, sc)
		cancel()

		result.Steps = steps
		result.Status = status
		result.Error = errMsg
		if status == StatusPassed || ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			logging.Warn(logSubsystem, "Scenario %s attempt %d/%d failed, retrying", sc.Name, attempt, attempts)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result
}

func (r *Runner) runAttempt(ctx context.Context, sc scenario.Scenario) ([]StepResult, Status, string) {
	exec := &executor{
		api:   r.deps.API,
		store: r.deps.Store,
		rc:    newRunContext(r.deps.Lookup),
	}
	if sc.Kind == scenario.KindUI {
		if r.deps.NewUI == nil {
			return nil, StatusError, "no browser configured for UI scenario"
		}
		ui, err := r.deps.NewUI(ctx)
		if err != nil {
			return nil, StatusError, fmt.Sprintf("starting browser: %v", err)
		}
		exec.ui = ui
		defer func() {
			if cerr := ui.Close(); cerr != nil {
				logging.Warn(logSubsystem, "Closing browser for %s: %v", sc.Name, cerr)
			}
		}()
	}

	steps := make([]StepResult, 0, len(sc.Steps)+len(sc.Cleanup))
	status := StatusPassed
	errMsg := ""

	for i, step := range sc.Steps {
		if status != StatusPassed {
			steps = append(steps, StepResult{Name: stepName(step, i), Action: step.Action, Status: StatusSkipped})
			continue
		}
		sr := exec.execStep(ctx, step, i)
		steps = append(steps, sr)
		if sr.Status != StatusPassed {
			status = sr.Status
			errMsg = fmt.Sprintf("step %q: %s", sr.Name, sr.Error)
		}
	}

	// Cleanup steps always run; their failures degrade a passed
	// scenario to an error but never mask the original failure.
	for i, step := range sc.Cleanup {
		sr := exec.execStep(ctx, step, len(sc.Steps)+i)
		steps = append(steps, sr)
		if sr.Status != StatusPassed && status == StatusPassed {
			status = StatusError
			errMsg = fmt.Sprintf("cleanup step %q: %s", sr.Name, sr.Error)
		}
	}

	return steps, status, errMsg
}

func (e *executor) execStep(ctx context.Context, step scenario.Step, index int) StepResult {
	sr := StepResult{Name: stepName(step, index), Action: step.Action, Status: StatusPassed}
	start := time.Now()

	output, err := e.runStep(ctx, step)
	if err == nil && step.Expect != nil {
		if expErr := checkExpect(step.Expect, output); expErr != nil {
			err = &expectationError{err: expErr}
		}
	}
	sr.Duration = time.Since(start)
	sr.Output = output

	if err != nil {
		sr.Error = err.Error()
		if _, ok := err.(*expectationError); ok {
			sr.Status = StatusFailed
		} else {
			sr.Status = StatusError
		}
		logging.Debug(logSubsystem, "Step %s (%s) failed: %v", sr.Name, step.Action, err)
		return sr
	}

	if step.Store != "" {
		e.rc.store(step.Store, output)
	}
	return sr
}

func stepName(step scenario.Step, index int) string {
	if step.Name != "" {
		return step.Name
	}
	return fmt.Sprintf("step-%d (%s)", index+1, step.Action)
}

type nopReporter struct{}

func (nopReporter) SuiteStarted(int, Config)          {}
func (nopReporter) ScenarioStarted(scenario.Scenario) {}
func (nopReporter) ScenarioFinished(ScenarioResult)   {}
func (nopReporter) SuiteFinished(SuiteResult)         {}
