package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abramin/codegraph/internal/embed"
	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/query"
	"github.com/abramin/codegraph/internal/store"
)

var (
	searchProject string
	searchKind    string
	searchMode    string
	searchLimit   int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed symbols",
	Long: `Search the graph for symbols matching a query.

Modes:
  lexical   full-text match over names, signatures, and docstrings
  semantic  nearest neighbors by embedding similarity
  hybrid    lexical results first, semantic fill after`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(searchProject)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		settings := GetConfig()
		var provider embed.Provider
		if settings.Embeddings.Enabled {
			provider, err = embed.NewProvider(settings.Embeddings)
			if err != nil {
				return err
			}
		}
		searcher := query.NewSearcher(st, provider)

		kind := graph.NodeKind(searchKind)
		var results []graph.SearchResult
		switch searchMode {
		case "lexical":
			results, err = searcher.Lexical(args[0], kind, searchLimit)
		case "semantic":
			results, err = searcher.Semantic(cmd.Context(), args[0], searchLimit, 0)
		case "hybrid":
			results, err = searcher.Hybrid(cmd.Context(), args[0], kind, searchLimit, 0)
		default:
			return fmt.Errorf("unknown search mode %q", searchMode)
		}
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%-10s %-40s %s:%d  (%.2f)\n",
				r.Node.Kind, r.Node.QualifiedName, r.Node.FilePath, r.Node.StartLine, r.Score)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchProject, "project", ".", "project directory")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "node kind filter (function, method, class, ...)")
	searchCmd.Flags().StringVar(&searchMode, "mode", "lexical", "search mode: lexical, semantic, or hybrid")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results")
}
