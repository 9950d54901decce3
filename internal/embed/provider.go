// Package embed produces vector embeddings for graph nodes and search
// queries.
package embed

import (
	"context"
	"fmt"

	"github.com/abramin/codegraph/internal/config"
)

// Provider turns text into a fixed-dimension vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// NewProvider builds the provider selected by the embeddings config.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocal(cfg.Model), nil
	case "openai":
		return NewOpenAI(cfg.Model)
	}
	return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
}

// EmbeddingText is the node text sent to the provider: name, signature
// and docstring, which together carry the searchable meaning of a
// symbol.
func EmbeddingText(name, qualifiedName, signature, docstring string) string {
	text := name
	if qualifiedName != "" && qualifiedName != name {
		text += "\n" + qualifiedName
	}
	if signature != "" {
		text += "\n" + signature
	}
	if docstring != "" {
		text += "\n" + docstring
	}
	return text
}
