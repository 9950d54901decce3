package query

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abramin/codegraph/internal/embed"
	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/store"
)

// ContextOptions bounds a context bundle. Zero fields take defaults.
type ContextOptions struct {
	MaxNodes         int
	MaxCodeBlocks    int
	MaxCodeBlockSize int
	TraversalDepth   int
	OmitCode         bool
}

func (o *ContextOptions) defaults() {
	if o.MaxNodes <= 0 {
		o.MaxNodes = 20
	}
	if o.MaxCodeBlocks <= 0 {
		o.MaxCodeBlocks = 5
	}
	if o.MaxCodeBlockSize <= 0 {
		o.MaxCodeBlockSize = 1500
	}
	if o.TraversalDepth <= 0 {
		o.TraversalDepth = 1
	}
}

// CodeBlock is a source excerpt attached to a context bundle.
type CodeBlock struct {
	Content   string      `json:"content"`
	FilePath  string      `json:"file_path"`
	StartLine int         `json:"start_line"`
	EndLine   int         `json:"end_line"`
	Language  string      `json:"language"`
	Node      *graph.Node `json:"node,omitempty"`
}

// ContextStats summarizes a bundle's size.
type ContextStats struct {
	NodeCount      int `json:"node_count"`
	EdgeCount      int `json:"edge_count"`
	FileCount      int `json:"file_count"`
	CodeBlockCount int `json:"code_block_count"`
	TotalCodeSize  int `json:"total_code_size"`
}

// Context is a task-focused bundle: the symbols matching a query, the
// neighborhood around them, and the source excerpts backing them.
type Context struct {
	Query        string       `json:"query"`
	EntryPoints  []graph.Node `json:"entry_points"`
	Subgraph     *Subgraph    `json:"subgraph"`
	CodeBlocks   []CodeBlock  `json:"code_blocks"`
	RelatedFiles []string     `json:"related_files"`
	Summary      string       `json:"summary"`
	Stats        ContextStats `json:"stats"`
}

// ContextBuilder assembles context bundles from the graph plus the
// source tree it was indexed from. The provider may be nil, in which
// case entry points come from lexical search alone.
type ContextBuilder struct {
	store    *store.Store
	engine   *Engine
	provider embed.Provider
	baseDir  string
}

func NewContextBuilder(st *store.Store, provider embed.Provider, baseDir string) *ContextBuilder {
	return &ContextBuilder{store: st, engine: NewEngine(st), provider: provider, baseDir: baseDir}
}

// Build finds entry points for the task with lexical search plus
// semantic search when a provider is configured, expands structure and
// calls around them, and attaches bounded code excerpts.
func (b *ContextBuilder) Build(ctx context.Context, task string, opts ContextOptions) (*Context, error) {
	opts.defaults()

	results, err := b.store.SearchText(task, "", opts.MaxNodes)
	if err != nil {
		return nil, fmt.Errorf("searching entry points: %w", err)
	}

	if b.provider != nil {
		vec, err := b.provider.Embed(ctx, task)
		if err != nil {
			return nil, fmt.Errorf("embedding task: %w", err)
		}
		semantic, err := b.store.SearchSimilar(vec, b.provider.Model(), opts.MaxNodes, 0)
		if err != nil {
			return nil, fmt.Errorf("semantic entry points: %w", err)
		}
		seen := make(map[string]bool, len(results))
		for _, r := range results {
			seen[r.Node.ID] = true
		}
		for _, r := range semantic {
			if seen[r.Node.ID] {
				continue
			}
			results = append(results, r)
		}
		if len(results) > opts.MaxNodes {
			results = results[:opts.MaxNodes]
		}
	}

	entryPoints := make([]graph.Node, len(results))
	roots := make([]string, len(results))
	for i, r := range results {
		entryPoints[i] = r.Node
		roots[i] = r.Node.ID
	}

	sub, err := b.engine.Subgraph(roots, TraversalOptions{
		MaxDepth:     opts.TraversalDepth,
		EdgeKinds:    []graph.EdgeKind{graph.EdgeContains, graph.EdgeCalls},
		Direction:    DirectionBoth,
		Limit:        opts.MaxNodes * 4,
		IncludeStart: true,
	})
	if err != nil {
		return nil, fmt.Errorf("expanding subgraph: %w", err)
	}

	var blocks []CodeBlock
	if !opts.OmitCode {
		blocks = b.codeBlocks(results, opts.MaxCodeBlocks, opts.MaxCodeBlockSize)
	}

	fileSet := make(map[string]bool)
	for _, node := range sub.Nodes {
		fileSet[node.FilePath] = true
	}
	relatedFiles := make([]string, 0, len(fileSet))
	for f := range fileSet {
		relatedFiles = append(relatedFiles, f)
	}
	sort.Strings(relatedFiles)

	totalCode := 0
	for _, blk := range blocks {
		totalCode += len(blk.Content)
	}

	return &Context{
		Query:        task,
		EntryPoints:  entryPoints,
		Subgraph:     sub,
		CodeBlocks:   blocks,
		RelatedFiles: relatedFiles,
		Summary:      fmt.Sprintf("Found %d relevant symbols across %d files.", len(entryPoints), len(relatedFiles)),
		Stats: ContextStats{
			NodeCount:      len(sub.Nodes),
			EdgeCount:      len(sub.Edges),
			FileCount:      len(relatedFiles),
			CodeBlockCount: len(blocks),
			TotalCodeSize:  totalCode,
		},
	}, nil
}

// codeBlocks reads the source behind the top entry points, sliced to
// each symbol's line range and truncated to the size cap.
func (b *ContextBuilder) codeBlocks(results []graph.SearchResult, maxBlocks, maxSize int) []CodeBlock {
	var blocks []CodeBlock
	for _, r := range results {
		if len(blocks) >= maxBlocks {
			break
		}
		node := r.Node

		content, err := os.ReadFile(filepath.Join(b.baseDir, filepath.FromSlash(node.FilePath)))
		if err != nil {
			continue
		}

		lines := strings.Split(string(content), "\n")
		start := node.StartLine - 1
		if start < 0 {
			start = 0
		}
		end := node.EndLine
		if end > len(lines) {
			end = len(lines)
		}
		if start >= end {
			continue
		}
		slice := strings.Join(lines[start:end], "\n")
		if len(slice) > maxSize {
			slice = slice[:maxSize] + "\n// ... truncated ..."
		}

		blocks = append(blocks, CodeBlock{
			Content:   slice,
			FilePath:  node.FilePath,
			StartLine: node.StartLine,
			EndLine:   node.EndLine,
			Language:  node.Language,
			Node:      &r.Node,
		})
	}
	return blocks
}

// Markdown renders the bundle for direct consumption by a model or a
// terminal.
func (c *Context) Markdown() string {
	var sb strings.Builder
	sb.WriteString("## Code Context\n\n")
	fmt.Fprintf(&sb, "**Query:** %s\n\n", c.Query)

	if len(c.EntryPoints) > 0 {
		sb.WriteString("### Entry Points\n\n")
		for _, node := range c.EntryPoints {
			fmt.Fprintf(&sb, "- **%s** (%s) - %s:%d\n", node.Name, node.Kind, node.FilePath, node.StartLine)
		}
		sb.WriteString("\n")
	}

	if len(c.CodeBlocks) > 0 {
		sb.WriteString("### Code\n\n")
		for _, blk := range c.CodeBlocks {
			header := blk.FilePath
			if blk.Node != nil {
				header = fmt.Sprintf("%s (%s)", blk.Node.Name, blk.FilePath)
			}
			fmt.Fprintf(&sb, "#### %s\n\n```%s\n%s\n```\n\n", header, blk.Language, blk.Content)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
