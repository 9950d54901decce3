package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/resolve"
	"github.com/abramin/codegraph/internal/store"
	"github.com/spf13/cobra"
)

var resolveLimit int

var resolveCmd = &cobra.Command{
	Use:   "resolve [path]",
	Short: "Resolve pending cross-file references",
	Long: `Run a resolution pass over unresolved references.

References that cannot be bound during extraction (calls into other
files, ambiguous names) are queued in the database. Resolution scores
each queued reference against known definitions and commits an edge
when one candidate wins decisively; ambiguous references keep their
ranked candidates for later passes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := projectPath(args)

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		cfg := GetConfig()
		resolver := resolve.New(st, resolve.Options{
			Margin: cfg.Resolution.Margin,
			TopK:   cfg.Resolution.TopK,
		})
		result, err := resolver.Run(resolveLimit)
		if err != nil {
			return fmt.Errorf("resolution failed: %w", err)
		}

		fmt.Printf("Resolution complete: %d scanned, %d resolved, %d remaining\n",
			result.Scanned, result.Resolved, result.Remaining)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().IntVar(&resolveLimit, "limit", 10000, "maximum references to scan in one pass")
}
