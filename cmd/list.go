package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"testrig/internal/scenario"
)

var (
	listScenarioPath string
	listKind         string
	listSuite        string
	listTags         []string
)

// listCmd shows the scenarios a run would pick up.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available test scenarios",
	Long: `The list command loads scenarios the same way run does and prints
them without executing anything. Useful to check filters before a run.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listScenarioPath, "scenarios", "scenarios", "Scenario file or directory")
	listCmd.Flags().StringVar(&listKind, "kind", "", "Show scenarios of one kind (api, ui, data)")
	listCmd.Flags().StringVar(&listSuite, "suite", "", "Show scenarios of one suite")
	listCmd.Flags().StringSliceVar(&listTags, "tags", nil, "Show scenarios carrying all given tags")
}

func runList(cmd *cobra.Command, args []string) error {
	scenarios, err := scenario.NewLoader().Load(listScenarioPath)
	if err != nil {
		return err
	}
	scenarios = scenario.Apply(scenarios, scenario.Filter{
		Kind:  scenario.Kind(listKind),
		Suite: listSuite,
		Tags:  listTags,
	})
	if len(scenarios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Name", "Suite", "Kind", "Steps", "Tags", "Description"})
	for _, sc := range scenarios {
		t.AppendRow(table.Row{
			sc.Name, sc.Suite, sc.Kind, len(sc.Steps), strings.Join(sc.Tags, ", "), sc.Description,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "%d scenario(s)\n", len(scenarios))
	return nil
}
