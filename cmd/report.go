package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"testrig/internal/config"
	"testrig/internal/report"
)

var (
	reportInput      string
	reportConfigPath string
	reportAllureDir  string
	reportHTMLPath   string
	reportAllure     bool
	reportHTML       bool
)

// reportCmd re-renders saved run results.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render reports from a saved run",
	Long: `The report command reads a JSON report written by run and renders it
to Allure results or a standalone HTML page, without re-running anything.

Example usage:
  testrig report --html                     # HTML from the newest report
  testrig report --allure                   # Allure results from the newest report
  testrig report --input reports/run.json --html --html-path out.html`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportInput, "input", "", "JSON report file (default: newest in the report directory)")
	reportCmd.Flags().StringVar(&reportConfigPath, "config", "", "Path to the configuration file")
	reportCmd.Flags().BoolVar(&reportAllure, "allure", false, "Write Allure results")
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "Write an HTML report")
	reportCmd.Flags().StringVar(&reportAllureDir, "allure-dir", "", "Directory for Allure results (default from configuration)")
	reportCmd.Flags().StringVar(&reportHTMLPath, "html-path", "", "Path for the HTML report (default from configuration)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if !reportAllure && !reportHTML {
		return fmt.Errorf("nothing to render: pass --allure, --html or both")
	}

	cfg, err := config.Load(config.Options{Path: reportConfigPath})
	if err != nil {
		return err
	}

	input := reportInput
	if input == "" {
		input, err = report.LatestJSON(cfg.GetString(config.KeyReportPath))
		if err != nil {
			return err
		}
	}
	suite, err := report.LoadJSON(input)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendering run %s (%d scenarios)\n", suite.RunID, suite.Total)

	if reportAllure {
		dir := reportAllureDir
		if dir == "" {
			dir = cfg.GetString(config.KeyAllureResultsDir)
		}
		if err := report.WriteAllure(*suite, dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Allure results written to %s\n", dir)
	}
	if reportHTML {
		path := reportHTMLPath
		if path == "" {
			path = cfg.GetString(config.KeyHTMLReportPath)
		}
		if err := report.WriteHTML(*suite, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "HTML report written to %s\n", path)
	}
	return nil
}
