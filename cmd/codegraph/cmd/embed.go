package cmd

import (
	"fmt"

	"github.com/abramin/codegraph/internal/embed"
	"github.com/abramin/codegraph/internal/store"
	"github.com/spf13/cobra"
)

var embedLimit int

var embedCmd = &cobra.Command{
	Use:   "embed [path]",
	Short: "Generate embeddings for indexed symbols",
	Long: `Compute vector embeddings for symbols that do not have one yet,
enabling semantic and hybrid search.

The provider comes from the embeddings section of the config: "local"
is a deterministic offline model, "openai" calls the OpenAI embeddings
API and needs OPENAI_API_KEY set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := projectPath(args)

		provider, err := embed.NewProvider(GetConfig().Embeddings)
		if err != nil {
			return err
		}

		st, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		nodes, err := st.MissingEmbeddings(provider.Model(), embedLimit)
		if err != nil {
			return fmt.Errorf("listing nodes: %w", err)
		}

		embedded := 0
		for _, node := range nodes {
			text := embed.EmbeddingText(node.Name, node.QualifiedName, node.Signature, node.Docstring)
			vec, err := provider.Embed(cmd.Context(), text)
			if err != nil {
				return fmt.Errorf("embedding %s: %w", node.QualifiedName, err)
			}
			if err := st.StoreEmbedding(node.ID, vec, provider.Model()); err != nil {
				return fmt.Errorf("storing embedding for %s: %w", node.QualifiedName, err)
			}
			embedded++
		}

		fmt.Printf("Embedded %d symbols with model %s\n", embedded, provider.Model())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().IntVar(&embedLimit, "limit", 1000, "maximum symbols to embed in one run")
}
