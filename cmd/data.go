package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"testrig/internal/config"
	"testrig/internal/datastore"
)

var (
	dataConfigPath string
	dataKey        string
	dataRaw        bool
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect the test data store",
}

// dataGetCmd prints one file from the data store, parsed and with
// placeholders substituted the same way scenarios see it.
var dataGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print a data file as the harness sees it",
	Long: `Reads one file from the data store, applying format parsing and
environment substitution, and prints the result.

Example usage:
  testrig data get requests/login.json
  testrig data get responses/login.json --key auth_token
  testrig data get requests/login.json --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runDataGet,
}

// dataLsCmd lists files in a data-store directory.
var dataLsCmd = &cobra.Command{
	Use:   "ls <dir> [pattern]",
	Short: "List files in a data store directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDataLs,
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataGetCmd)
	dataCmd.AddCommand(dataLsCmd)

	dataCmd.PersistentFlags().StringVar(&dataConfigPath, "config", "", "Path to the configuration file")
	dataGetCmd.Flags().StringVar(&dataKey, "key", "", "Print a single dotted key of a JSON document")
	dataGetCmd.Flags().BoolVar(&dataRaw, "raw", false, "Print the file content without parsing or substitution")
}

func openStore() (*datastore.Store, error) {
	cfg, err := config.Load(config.Options{Path: dataConfigPath})
	if err != nil {
		return nil, err
	}
	return datastore.New(cfg.GetString(config.KeyDataRoot), datastore.WithLookup(cfg.Lookup))
}

func runDataGet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	parts := strings.Split(strings.Trim(args[0], "/"), "/")

	if dataKey != "" {
		value, err := store.JSONValue(dataKey, parts...)
		if err != nil {
			return err
		}
		return printValue(cmd, value)
	}

	if dataRaw {
		data, err := store.ReadRaw(parts...)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	}

	lower := strings.ToLower(args[0])
	switch {
	case strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".log"):
		content, err := store.ReadFile(parts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
		return nil
	case strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml"):
		value, err := store.ReadYAML(parts...)
		if err != nil {
			return err
		}
		return printValue(cmd, value)
	case strings.HasSuffix(lower, ".csv"):
		rows, err := store.ReadCSV(parts...)
		if err != nil {
			return err
		}
		return printValue(cmd, rows)
	default:
		value, err := store.ReadJSON(parts...)
		if err != nil {
			return err
		}
		return printValue(cmd, value)
	}
}

func runDataLs(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	pattern := "*"
	if len(args) > 1 {
		pattern = args[1]
	}
	parts := strings.Split(strings.Trim(args[0], "/"), "/")

	names, err := store.ListFiles(pattern, parts...)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func printValue(cmd *cobra.Command, value interface{}) error {
	if s, ok := value.(string); ok {
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
