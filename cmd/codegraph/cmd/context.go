package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abramin/codegraph/internal/embed"
	"github.com/abramin/codegraph/internal/query"
	"github.com/abramin/codegraph/internal/store"
)

var (
	contextProject string
	contextNodes   int
	contextBlocks  int
	contextDepth   int
	contextNoCode  bool
)

var contextCmd = &cobra.Command{
	Use:   "context <task>",
	Short: "Build code context for a task description",
	Long: `Assemble a markdown context bundle for a task or issue description:
entry-point symbols found by search, the structure and calls around
them, and bounded source excerpts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(contextProject)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		var provider embed.Provider
		if GetConfig().Embeddings.Enabled {
			provider, err = embed.NewProvider(GetConfig().Embeddings)
			if err != nil {
				return err
			}
		}

		builder := query.NewContextBuilder(st, provider, contextProject)
		bundle, err := builder.Build(cmd.Context(), args[0], query.ContextOptions{
			MaxNodes:       contextNodes,
			MaxCodeBlocks:  contextBlocks,
			TraversalDepth: contextDepth,
			OmitCode:       contextNoCode,
		})
		if err != nil {
			return fmt.Errorf("context build failed: %w", err)
		}

		fmt.Println(bundle.Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVar(&contextProject, "project", ".", "project directory")
	contextCmd.Flags().IntVar(&contextNodes, "max-nodes", 0, "maximum relevant nodes (default 20)")
	contextCmd.Flags().IntVar(&contextBlocks, "max-blocks", 0, "maximum code blocks (default 5)")
	contextCmd.Flags().IntVar(&contextDepth, "depth", 0, "traversal depth from entry points (default 1)")
	contextCmd.Flags().BoolVar(&contextNoCode, "no-code", false, "omit source excerpts")
}
