package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"testrig/internal/apiclient"
	"testrig/internal/auth"
	"testrig/internal/browser"
	"testrig/internal/config"
	"testrig/internal/datastore"
	"testrig/internal/report"
	"testrig/internal/runner"
	"testrig/internal/scenario"
	"testrig/pkg/logging"
)

var (
	runScenarioPath string
	runName         string
	runSuite        string
	runKind         string
	runTags         []string
	runParallel     int
	runFailFast     bool
	runTimeout      time.Duration
	runConfigPath   string
	runVerbose      bool
	runDebug        bool
	runHeadful      bool
	runReportDir    string
	runAllureDir    string
	runHTMLPath     string
	runNoReport     bool
)

// runCmd executes scenarios.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute test scenarios",
	Long: `The run command loads YAML scenarios, filters them and executes them
against the configured API base URL, browser and data store.

Example usage:
  testrig run                               # Run every scenario under ./scenarios
  testrig run --scenarios ./smoke           # Run a different scenario directory
  testrig run --suite auth                  # Run one suite
  testrig run --kind api --tags fast        # Filter by kind and tags
  testrig run --parallel 8 --fail-fast      # Parallel with early exit
  testrig run --html reports/run.html       # Also render an HTML report`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runScenarioPath, "scenarios", "scenarios", "Scenario file or directory")
	runCmd.Flags().StringVar(&runName, "scenario", "", "Run a single scenario by name")
	runCmd.Flags().StringVar(&runSuite, "suite", "", "Run scenarios of one suite")
	runCmd.Flags().StringVar(&runKind, "kind", "", "Run scenarios of one kind (api, ui, data)")
	runCmd.Flags().StringSliceVar(&runTags, "tags", nil, "Run scenarios carrying all given tags")

	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "Number of parallel scenario workers")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop execution on first failure")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "Per-scenario timeout unless the scenario sets its own")

	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to the configuration file (default: ./testrig.yaml if present)")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Enable verbose output")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")
	runCmd.Flags().BoolVar(&runHeadful, "headful", false, "Run the browser with a visible window")

	runCmd.Flags().StringVar(&runReportDir, "report", "", "Directory for the JSON report (default from configuration)")
	runCmd.Flags().StringVar(&runAllureDir, "allure", "", "Directory for Allure results (default from configuration)")
	runCmd.Flags().StringVar(&runHTMLPath, "html", "", "Path for the HTML report (default from configuration)")
	runCmd.Flags().BoolVar(&runNoReport, "no-report", false, "Skip writing report files")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted, stopping...")
		cancel()
	}()

	level := logging.LevelInfo
	if runDebug {
		level = logging.LevelDebug
	}
	logging.Init(level, os.Stderr)

	cfg, err := config.Load(config.Options{Path: runConfigPath})
	if err != nil {
		return err
	}

	scenarios, err := loadScenarios(runScenarioPath, scenario.Filter{
		Kind:  scenario.Kind(runKind),
		Suite: runSuite,
		Name:  runName,
		Tags:  runTags,
	})
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios match the given filters")
	}

	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	deps.Reporter = report.NewConsole(os.Stdout, runVerbose)

	r := runner.New(runner.Config{
		Parallel: runParallel,
		FailFast: runFailFast,
		Timeout:  runTimeout,
	}, deps)

	suite, err := r.Run(ctx, scenarios)
	if err != nil {
		return err
	}

	if !runNoReport {
		writeReports(cfg, *suite)
	}

	if suite.Failed > 0 || suite.Errors > 0 {
		return &scenariosFailedError{failed: suite.Failed + suite.Errors}
	}
	return nil
}

// loadScenarios loads, filters and validates the scenarios for a run.
func loadScenarios(path string, filter scenario.Filter) ([]scenario.Scenario, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Loading scenarios..."
	s.Start()
	defer s.Stop()

	scenarios, err := scenario.NewLoader().Load(path)
	if err != nil {
		return nil, err
	}
	return scenario.Apply(scenarios, filter), nil
}

// buildDeps wires the runner's dependencies from configuration. The
// returned cleanup stops the data store's change watcher.
func buildDeps(cfg config.Provider) (runner.Deps, func(), error) {
	store, err := datastore.New(cfg.GetString(config.KeyDataRoot), datastore.WithLookup(cfg.Lookup))
	if err != nil {
		return runner.Deps{}, nil, err
	}
	cleanup := func() {}
	if stop, err := store.Watch(); err == nil {
		cleanup = stop
	} else {
		logging.Warn("CLI", "Data store watcher unavailable: %v", err)
	}

	authHelper := auth.New(cfg.GetString(config.KeyAuthToken))
	if !authHelper.Authenticated() && store.FileExists("responses", "tokens.json") {
		if fromFile, err := auth.FromResponseFile(store, "responses", "tokens.json"); err == nil {
			authHelper = fromFile
		} else {
			logging.Warn("CLI", "Token response file unusable: %v", err)
		}
	}
	api := apiclient.New(cfg.GetString(config.KeyBaseURL), authHelper, apiclient.Options{
		Timeout:      cfg.GetDuration(config.KeyAPITimeout),
		RetryCount:   cfg.GetInt(config.KeyAPIRetryCount),
		RetryWaitMin: cfg.GetDuration(config.KeyAPIRetryWaitMin),
		RetryWaitMax: cfg.GetDuration(config.KeyAPIRetryWaitMax),
	})

	browserCfg := browserConfig(cfg)
	newUI := func(ctx context.Context) (runner.UIDriver, error) {
		client := browser.New(browserCfg)
		if err := client.Start(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}

	return runner.Deps{
		API:    api,
		Store:  store,
		NewUI:  newUI,
		Lookup: cfg.Lookup,
	}, cleanup, nil
}

func browserConfig(cfg config.Provider) browser.Config {
	c := browser.DefaultConfig()
	c.Headless = cfg.GetBool(config.KeyBrowserHeadless) && !runHeadful
	c.NavigationTimeout = cfg.GetDuration(config.KeyBrowserNavTimeout)
	c.ElementTimeout = cfg.GetDuration(config.KeyBrowserElemTimeout)
	c.RetryCount = cfg.GetInt(config.KeyBrowserRetryCount)
	c.RetryDelay = cfg.GetDuration(config.KeyBrowserRetryDelay)
	c.Screenshot = browser.ScreenshotConfig{
		Dir:         cfg.GetString(config.KeyScreenshotPath),
		FullPage:    cfg.GetBool(config.KeyScreenshotFullPage),
		OnFailure:   cfg.GetBool(config.KeyScreenshotOnFailure),
		FailedOnly:  cfg.GetBool(config.KeyScreenshotFailedOnly),
		Timestamped: cfg.GetBool(config.KeyScreenshotTimestamped),
	}
	return c
}

// writeReports renders the configured report outputs. Failures here are
// reported but never fail the run.
func writeReports(cfg config.Provider, suite runner.SuiteResult) {
	reportDir := runReportDir
	if reportDir == "" {
		reportDir = cfg.GetString(config.KeyReportPath)
	}
	if reportDir != "" {
		if path, err := report.SaveJSON(suite, reportDir); err != nil {
			fmt.Printf("⚠️  Failed to save JSON report: %v\n", err)
		} else {
			fmt.Printf("📄 JSON report saved to %s\n", path)
		}
	}

	allureDir := runAllureDir
	if allureDir == "" {
		allureDir = cfg.GetString(config.KeyAllureResultsDir)
	}
	if allureDir != "" {
		if err := report.WriteAllure(suite, allureDir); err != nil {
			fmt.Printf("⚠️  Failed to write Allure results: %v\n", err)
		} else {
			fmt.Printf("📄 Allure results written to %s\n", allureDir)
		}
	}

	htmlPath := runHTMLPath
	if htmlPath == "" {
		htmlPath = cfg.GetString(config.KeyHTMLReportPath)
	}
	if htmlPath != "" {
		if err := report.WriteHTML(suite, htmlPath); err != nil {
			fmt.Printf("⚠️  Failed to write HTML report: %v\n", err)
		} else {
			fmt.Printf("📄 HTML report written to %s\n", htmlPath)
		}
	}
}
