package query

import (
	"context"
	"fmt"

	"github.com/abramin/codegraph/internal/embed"
	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/store"
)

// Searcher runs lexical, semantic, and hybrid searches. The provider
// may be nil, in which case semantic search is unavailable.
type Searcher struct {
	store    *store.Store
	provider embed.Provider
}

func NewSearcher(st *store.Store, provider embed.Provider) *Searcher {
	return &Searcher{store: st, provider: provider}
}

// Lexical is full-text search over names and docstrings. Multi-word
// queries match any term.
func (s *Searcher) Lexical(query string, kind graph.NodeKind, limit int) ([]graph.SearchResult, error) {
	return s.store.SearchText(query, kind, limit)
}

// Semantic embeds the query and ranks stored vectors by cosine
// similarity, dropping anything under the floor.
func (s *Searcher) Semantic(ctx context.Context, query string, limit int, floor float64) ([]graph.SearchResult, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no embedding provider configured")
	}
	vec, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return s.store.SearchSimilar(vec, s.provider.Model(), limit, floor)
}

// Hybrid merges lexical and semantic rankings, lexical hits first,
// deduplicated by symbol id. Without a provider it degrades to pure
// lexical search.
func (s *Searcher) Hybrid(ctx context.Context, query string, kind graph.NodeKind, limit int, floor float64) ([]graph.SearchResult, error) {
	lexical, err := s.Lexical(query, kind, limit)
	if err != nil {
		return nil, err
	}
	if s.provider == nil {
		return lexical, nil
	}

	semantic, err := s.Semantic(ctx, query, limit, floor)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(lexical))
	merged := make([]graph.SearchResult, 0, len(lexical)+len(semantic))
	for _, r := range lexical {
		seen[r.Node.ID] = true
		merged = append(merged, r)
	}
	for _, r := range semantic {
		if seen[r.Node.ID] {
			continue
		}
		if kind != "" && r.Node.Kind != kind {
			continue
		}
		merged = append(merged, r)
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}
