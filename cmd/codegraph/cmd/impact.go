package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abramin/codegraph/internal/query"
	"github.com/abramin/codegraph/internal/store"
)

var (
	impactProject string
	impactDepth   int
	impactNodes   int
)

var impactCmd = &cobra.Command{
	Use:   "impact <node-id>",
	Short: "Show what could be affected by changing a symbol",
	Long: `Walk incoming call and reference edges from a symbol and list every
symbol that could be affected by changing it, nearest first. Find node
IDs with the search command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(impactProject)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		engine := query.NewEngine(st)
		impacted, err := engine.Impact(args[0], impactDepth, impactNodes)
		if err != nil {
			return fmt.Errorf("impact analysis failed: %w", err)
		}

		if len(impacted) == 0 {
			fmt.Println("Nothing depends on this symbol.")
			return nil
		}
		for _, n := range impacted {
			fmt.Printf("depth %d  %-10s %-40s %s:%d\n",
				n.Depth, n.Node.Kind, n.Node.QualifiedName, n.Node.FilePath, n.Node.StartLine)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(impactCmd)
	impactCmd.Flags().StringVar(&impactProject, "project", ".", "project directory")
	impactCmd.Flags().IntVar(&impactDepth, "depth", 0, "maximum traversal depth (default 2)")
	impactCmd.Flags().IntVar(&impactNodes, "max-nodes", 0, "maximum results (default 50)")
}
