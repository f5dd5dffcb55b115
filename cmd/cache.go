package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"testrig/internal/datastore"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the data store cache",
}

// cacheInfoCmd warms the cache with every parseable file under the data
// root and reports what it found. Doubles as a data-file validity check.
var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Parse all data files and show cache contents",
	Long: `Walks the data root, loads every file with a known extension through
the store and prints the resulting cache contents. Files that fail to
parse are listed; the command fails if any do.`,
	RunE: runCacheInfo,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.PersistentFlags().StringVar(&dataConfigPath, "config", "", "Path to the configuration file")
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	var bad []string
	err = filepath.WalkDir(store.Root(), func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(store.Root(), path)
		if err != nil {
			return err
		}
		parts := strings.Split(rel, string(filepath.Separator))
		if loadErr := warmFile(store, rel, parts); loadErr != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", rel, loadErr))
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "Data root %s does not exist\n", store.Root())
			return nil
		}
		return err
	}

	info := store.CacheInfo()
	fmt.Fprintf(cmd.OutOrStdout(), "Data root: %s\n", store.Root())
	fmt.Fprintf(cmd.OutOrStdout(), "Cached entries: %d\n", info.Entries)
	for _, p := range info.Paths {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
	}

	if len(bad) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Unparseable files: %d\n", len(bad))
		for _, line := range bad {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line)
		}
		return fmt.Errorf("%d data file(s) failed to parse", len(bad))
	}
	return nil
}

// warmFile loads one file through the store cache. Unknown extensions
// and CSV files (which are never cached) are skipped.
func warmFile(store *datastore.Store, rel string, parts []string) error {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".json":
		_, err := store.ReadJSON(parts...)
		return err
	case ".yaml", ".yml":
		_, err := store.ReadYAML(parts...)
		return err
	case ".txt", ".log":
		_, err := store.ReadFile(parts...)
		return err
	default:
		return nil
	}
}
