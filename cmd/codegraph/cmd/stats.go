package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/store"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Show index statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := projectPath(args)

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		stats, err := st.GetStats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Index statistics for %s\n", st.DBPath())
		fmt.Printf("  Files:      %d\n", stats.FileCount)
		fmt.Printf("  Nodes:      %d\n", stats.NodeCount)
		fmt.Printf("  Edges:      %d\n", stats.EdgeCount)
		fmt.Printf("  Unresolved: %d\n", stats.UnresolvedCount)
		fmt.Printf("  Vectors:    %d\n", stats.VectorCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
