// Package report turns suite results into output: console progress, a
// JSON report file, Allure result files and a standalone HTML page.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"testrig/internal/runner"
	"testrig/internal/scenario"
)

const timePrecision = time.Millisecond

// Console prints run progress to a writer. In parallel mode scenario
// start lines are buffered so start and result print as one line.
type Console struct {
	out     io.Writer
	verbose bool

	mu       sync.Mutex
	parallel bool
	buffers  map[string]string
}

// NewConsole creates a console reporter writing to out; a nil out means
// stdout.
func NewConsole(out io.Writer, verbose bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:     out,
		verbose: verbose,
		buffers: make(map[string]string),
	}
}

func (c *Console) SuiteStarted(total int, cfg runner.Config) {
	c.mu.Lock()
	c.parallel = cfg.Parallel > 1
	c.buffers = make(map[string]string)
	c.mu.Unlock()

	fmt.Fprintf(c.out, "🧪 Running %d scenario(s)\n", total)
	if c.verbose {
		fmt.Fprintf(c.out, "   • Parallel workers: %d\n", max(cfg.Parallel, 1))
		fmt.Fprintf(c.out, "   • Fail fast: %t\n", cfg.FailFast)
		if cfg.Timeout > 0 {
			fmt.Fprintf(c.out, "   • Timeout: %v\n", cfg.Timeout)
		}
		fmt.Fprintln(c.out)
	}
}

func (c *Console) ScenarioStarted(sc scenario.Scenario) {
	line := fmt.Sprintf("🎯 %s", sc.Name)
	if sc.Suite != "" {
		line = fmt.Sprintf("🎯 %s/%s", sc.Suite, sc.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parallel {
		c.buffers[sc.Name] = line + "... "
		return
	}
	fmt.Fprintf(c.out, "%s... ", line)
	if c.verbose {
		fmt.Fprintln(c.out)
		if sc.Description != "" {
			fmt.Fprintf(c.out, "   📝 %s\n", sc.Description)
		}
		if len(sc.Tags) > 0 {
			fmt.Fprintf(c.out, "   🏷️  Tags: %s\n", strings.Join(sc.Tags, ", "))
		}
		fmt.Fprintf(c.out, "   📋 Steps: %d\n", len(sc.Steps))
	}
}

func (c *Console) ScenarioFinished(result runner.ScenarioResult) {
	symbol := statusSymbol(result.Status)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.parallel {
		prefix, ok := c.buffers[result.Name]
		delete(c.buffers, result.Name)
		if !ok {
			prefix = fmt.Sprintf("🎯 %s... ", result.Name)
		}
		fmt.Fprintf(c.out, "%s%s (%v)\n", prefix, symbol, result.Duration.Round(timePrecision))
	} else if c.verbose {
		fmt.Fprintf(c.out, "%s %s (%v)\n", symbol, result.Name, result.Duration.Round(timePrecision))
	} else {
		fmt.Fprintf(c.out, "%s (%v)\n", symbol, result.Duration.Round(timePrecision))
	}

	if result.Error != "" {
		fmt.Fprintf(c.out, "   ❌ %s\n", result.Error)
	}
	if c.verbose {
		for _, step := range result.Steps {
			fmt.Fprintf(c.out, "   %s %s (%v)\n", statusSymbol(step.Status), step.Name, step.Duration.Round(timePrecision))
		}
	}
}

func (c *Console) SuiteFinished(result runner.SuiteResult) {
	fmt.Fprintf(c.out, "\n🏁 Run complete (%v)\n", result.Duration.Round(timePrecision))

	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.AppendHeader(table.Row{"Scenario", "Suite", "Kind", "Status", "Duration"})
	for _, sr := range result.Scenarios {
		t.AppendRow(table.Row{sr.Name, sr.Suite, sr.Kind, coloredStatus(sr.Status), sr.Duration.Round(timePrecision)})
	}
	t.AppendFooter(table.Row{"", "", "", summaryLine(result), ""})
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()

	rate := 0.0
	if result.Total > 0 {
		rate = float64(result.Passed) / float64(result.Total) * 100
	}
	fmt.Fprintf(c.out, "📏 Success rate: %.1f%%\n", rate)
	if result.Failed == 0 && result.Errors == 0 {
		fmt.Fprintln(c.out, "🎉 All scenarios passed!")
	} else {
		fmt.Fprintln(c.out, "💔 Some scenarios failed")
	}
}

func summaryLine(result runner.SuiteResult) string {
	parts := []string{fmt.Sprintf("%d passed", result.Passed)}
	if result.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", result.Failed))
	}
	if result.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", result.Errors))
	}
	if result.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", result.Skipped))
	}
	return strings.Join(parts, ", ")
}

func statusSymbol(status runner.Status) string {
	switch status {
	case runner.StatusPassed:
		return "✅"
	case runner.StatusFailed:
		return "❌"
	case runner.StatusSkipped:
		return "⏭️"
	case runner.StatusError:
		return "💥"
	default:
		return "❓"
	}
}

func coloredStatus(status runner.Status) string {
	switch status {
	case runner.StatusPassed:
		return text.FgGreen.Sprint(status)
	case runner.StatusSkipped:
		return text.FgYellow.Sprint(status)
	default:
		return text.FgRed.Sprint(status)
	}
}
