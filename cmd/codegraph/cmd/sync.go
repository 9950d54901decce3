package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/ingest"
	"github.com/abramin/codegraph/internal/store"
	"github.com/spf13/cobra"
)

var syncQuiet bool

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Incrementally sync the graph with changed files",
	Long: `Reconcile the graph database with the working copy.

Files are compared by content hash: unchanged files are skipped, new and
modified files are re-extracted, and files that no longer exist are
removed from the graph. Much faster than a full re-index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := projectPath(args)

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		pipeline := ingest.NewPipeline(path, GetConfig(), st)
		result, err := pipeline.Sync(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if syncQuiet {
			return nil
		}
		fmt.Printf("Sync complete: %d checked, %d added, %d modified, %d removed (%dms)\n",
			result.FilesChecked, result.Added, result.Modified, result.Removed, result.DurationMS)
		for _, e := range result.Errors {
			fmt.Printf("  Warning: %s\n", e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "suppress output")
}
