package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeScenariosFailed indicates the run completed but scenarios failed.
	ExitCodeScenariosFailed = 2
)

// rootCmd represents the base command for the testrig application.
var rootCmd = &cobra.Command{
	Use:   "testrig",
	Short: "Scenario-driven test harness for API, browser and data-driven tests",
	Long: `testrig executes YAML test scenarios against HTTP APIs and web UIs,
backed by a typed file-data store for fixtures, recorded responses and
generated output. Results can be rendered to the console, JSON, Allure
and HTML.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main to
// inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// scenariosFailedError signals that the run itself succeeded but some
// scenarios did not pass.
type scenariosFailedError struct{ failed int }

func (e *scenariosFailedError) Error() string {
	return "scenarios failed"
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "testrig version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		if _, ok := err.(*scenariosFailedError); ok {
			os.Exit(ExitCodeScenariosFailed)
		}
		os.Exit(ExitCodeError)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
