package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/ingest"
	"github.com/abramin/codegraph/internal/store"
	"github.com/spf13/cobra"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a project and build the code graph",
	Long: `Scan a project tree and extract every supported source file into the
graph database.

The index command:
- Walks the tree honoring .gitignore and configured excludes
- Parses files with tree-sitter (Go, Python, JavaScript, TypeScript)
- Records symbols, containment, imports, and call edges
- Resolves cross-file references by name and context
- Persists results to .codegraph/index.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := projectPath(args)

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		fmt.Printf("Indexing project at: %s\n", path)
		pipeline := ingest.NewPipeline(path, GetConfig(), st)
		result, err := pipeline.IndexAll(cmd.Context(), indexForce)
		if err != nil {
			return fmt.Errorf("indexing failed: %w", err)
		}

		fmt.Println()
		fmt.Printf("Indexing complete!\n")
		fmt.Printf("  Files indexed: %d\n", result.FilesIndexed)
		fmt.Printf("  Files skipped: %d\n", result.FilesSkipped)
		fmt.Printf("  Nodes:         %d\n", result.NodesCreated)
		fmt.Printf("  Edges:         %d\n", result.EdgesCreated)
		fmt.Printf("  Duration:      %dms\n", result.DurationMS)
		fmt.Printf("  Database:      %s\n", st.DBPath())
		for _, e := range result.Errors {
			fmt.Printf("  Warning: %s\n", e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "clear the database and re-index everything")
}
