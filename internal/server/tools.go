package server

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abramin/codegraph/internal/graph"
	"github.com/abramin/codegraph/internal/query"
)

// Argument structs

type SearchArgs struct {
	Query string `json:"query" jsonschema:"required,description:Search query (symbol name or free text)"`
	Kind  string `json:"kind,omitempty" jsonschema:"description:Node kind filter (function, method, class, struct, interface, module)"`
	Mode  string `json:"mode,omitempty" jsonschema:"description:Search mode: lexical, semantic, or hybrid. Defaults to lexical"`
	Limit int    `json:"limit,omitempty" jsonschema:"description:Maximum number of results to return, default 10"`
}

type ContextArgs struct {
	Task           string `json:"task" jsonschema:"required,description:Task or issue description to build context for"`
	MaxNodes       int    `json:"max_nodes,omitempty" jsonschema:"description:Maximum number of relevant nodes to include, default 20"`
	MaxCodeBlocks  int    `json:"max_code_blocks,omitempty" jsonschema:"description:Maximum number of code blocks to include, default 5"`
	MaxBlockSize   int    `json:"max_code_block_size,omitempty" jsonschema:"description:Maximum size of each code block in characters, default 1500"`
	TraversalDepth int    `json:"traversal_depth,omitempty" jsonschema:"description:Depth for graph traversal from entry points, default 1"`
	IncludeCode    *bool  `json:"include_code,omitempty" jsonschema:"description:Whether to include code blocks, default true"`
	Format         string `json:"format,omitempty" jsonschema:"description:Output format: markdown or json, default markdown"`
}

type NeighborArgs struct {
	NodeID string `json:"node_id" jsonschema:"required,description:ID of the node to look up"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description:Maximum number of results to return, default 20"`
}

type ImpactArgs struct {
	NodeID   string `json:"node_id" jsonschema:"required,description:ID of the node to analyze impact for"`
	MaxDepth int    `json:"max_depth,omitempty" jsonschema:"description:Maximum traversal depth, default 2"`
	MaxNodes int    `json:"max_nodes,omitempty" jsonschema:"description:Maximum nodes to include in result, default 50"`
}

type NodeArgs struct {
	NodeID string `json:"node_id" jsonschema:"required,description:ID of the node to fetch"`
}

type IndexToolArgs struct {
	Force bool `json:"force,omitempty" jsonschema:"description:Clear the store and re-index everything"`
}

type EmptyArgs struct{}

type WriteMemoryArgs struct {
	Name    string `json:"name" jsonschema:"required,description:Memory name (without .md extension)"`
	Content string `json:"content" jsonschema:"required,description:Markdown content to store"`
}

type ReadMemoryArgs struct {
	Name string `json:"name" jsonschema:"required,description:Memory name (without .md extension)"`
}

type EditMemoryArgs struct {
	Name        string `json:"name" jsonschema:"required,description:Memory name to edit (without .md extension)"`
	Pattern     string `json:"pattern" jsonschema:"required,description:Pattern to search for (literal string or regex depending on mode)"`
	Replacement string `json:"replacement" jsonschema:"required,description:Replacement text"`
	Mode        string `json:"mode,omitempty" jsonschema:"description:Replacement mode: literal or regex, default literal"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_search",
		Description: "Search for code symbols by name or free text across the indexed codebase",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
		limit := args.Limit
		if limit <= 0 {
			limit = 10
		}
		kind := graph.NodeKind(args.Kind)

		var results []graph.SearchResult
		var err error
		switch args.Mode {
		case "", "lexical":
			results, err = s.searcher.Lexical(args.Query, kind, limit)
		case "semantic":
			results, err = s.searcher.Semantic(ctx, args.Query, limit, 0)
		case "hybrid":
			results, err = s.searcher.Hybrid(ctx, args.Query, kind, limit, 0)
		default:
			return errorResult(fmt.Sprintf("unknown search mode %q", args.Mode)), nil, nil
		}
		if err != nil {
			return errorResult(fmt.Sprintf("Search failed: %v", err)), nil, nil
		}

		return jsonResult(map[string]any{
			"results": results,
			"count":   len(results),
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_context",
		Description: "Build relevant code context for a task or issue description. Returns structured context with relevant symbols, code blocks, and file references.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ContextArgs) (*mcp.CallToolResult, any, error) {
		opts := query.ContextOptions{
			MaxNodes:         args.MaxNodes,
			MaxCodeBlocks:    args.MaxCodeBlocks,
			MaxCodeBlockSize: args.MaxBlockSize,
			TraversalDepth:   args.TraversalDepth,
		}
		if args.IncludeCode != nil && !*args.IncludeCode {
			opts.OmitCode = true
		}

		bundle, err := s.builder.Build(ctx, args.Task, opts)
		if err != nil {
			return errorResult(fmt.Sprintf("Context build failed: %v", err)), nil, nil
		}
		if args.Format == "json" {
			return jsonResult(bundle), nil, nil
		}
		return textResult(bundle.Markdown()), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_callers",
		Description: "Find all functions/methods that call a given symbol",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NeighborArgs) (*mcp.CallToolResult, any, error) {
		sites, err := s.engine.Callers(args.NodeID, neighborLimit(args.Limit))
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		return jsonResult(map[string]any{"callers": sites, "count": len(sites)}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_callees",
		Description: "Find all functions/methods that a given symbol calls",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NeighborArgs) (*mcp.CallToolResult, any, error) {
		sites, err := s.engine.Callees(args.NodeID, neighborLimit(args.Limit))
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		return jsonResult(map[string]any{"callees": sites, "count": len(sites)}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_impact",
		Description: "Analyze the impact radius of changing a symbol - what might be affected",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ImpactArgs) (*mcp.CallToolResult, any, error) {
		nodes, err := s.engine.Impact(args.NodeID, args.MaxDepth, args.MaxNodes)
		if err != nil {
			return errorResult(fmt.Sprintf("Impact analysis failed: %v", err)), nil, nil
		}
		return jsonResult(map[string]any{"impacted": nodes, "count": len(nodes)}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_node",
		Description: "Fetch full details for a single node by ID, including its immediate edges",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args NodeArgs) (*mcp.CallToolResult, any, error) {
		node, err := s.store.GetNode(args.NodeID)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if node == nil {
			return textResult("Node not found."), nil, nil
		}
		outgoing, err := s.store.EdgesFrom(args.NodeID, "", 50)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		incoming, err := s.store.EdgesTo(args.NodeID, "", 50)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		return jsonResult(map[string]any{
			"node":     node,
			"outgoing": outgoing,
			"incoming": incoming,
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_index",
		Description: "Scan the project and (re)index every supported source file",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IndexToolArgs) (*mcp.CallToolResult, any, error) {
		result, err := s.pipeline.IndexAll(ctx, args.Force)
		if err != nil {
			return errorResult(fmt.Sprintf("Indexing failed: %v", err)), nil, nil
		}
		return jsonResult(result), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_sync",
		Description: "Incrementally sync the graph with files changed since the last index",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		result, err := s.pipeline.Sync(ctx)
		if err != nil {
			return errorResult(fmt.Sprintf("Sync failed: %v", err)), nil, nil
		}
		return jsonResult(result), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_stats",
		Description: "Return index statistics: file, node, edge, unresolved, and vector counts",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		stats, err := s.store.GetStats()
		if err != nil {
			return errorResult(fmt.Sprintf("Stats failed: %v", err)), nil, nil
		}
		return jsonResult(stats), nil, nil
	})

	s.registerMemoryTools()
}

func (s *Server) registerMemoryTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_write_memory",
		Description: "Write or update a named project memory stored as markdown",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args WriteMemoryArgs) (*mcp.CallToolResult, any, error) {
		msg, err := s.memories.Write(args.Name, args.Content)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(msg), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_read_memory",
		Description: "Read a named project memory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ReadMemoryArgs) (*mcp.CallToolResult, any, error) {
		content, err := s.memories.Read(args.Name)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(content), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_list_memories",
		Description: "List the names of all stored project memories",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, any, error) {
		names, err := s.memories.List()
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return jsonResult(map[string]any{"memories": names, "count": len(names)}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_delete_memory",
		Description: "Delete a named project memory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ReadMemoryArgs) (*mcp.CallToolResult, any, error) {
		msg, err := s.memories.Delete(args.Name)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(msg), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "codegraph_edit_memory",
		Description: "Edit a memory using pattern replacement. Supports both literal and regex patterns.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args EditMemoryArgs) (*mcp.CallToolResult, any, error) {
		if !s.memories.Exists(args.Name) {
			return errorResult(fmt.Sprintf("Memory '%s' not found", args.Name)), nil, nil
		}
		content, err := s.memories.Read(args.Name)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}

		var updated string
		switch args.Mode {
		case "", "literal":
			updated = strings.ReplaceAll(content, args.Pattern, args.Replacement)
		case "regex":
			re, err := regexp.Compile(args.Pattern)
			if err != nil {
				return errorResult(fmt.Sprintf("Invalid regex pattern: %v", err)), nil, nil
			}
			updated = re.ReplaceAllString(content, args.Replacement)
		default:
			return errorResult("Mode must be 'literal' or 'regex'"), nil, nil
		}

		msg, err := s.memories.Write(args.Name, updated)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		return textResult(msg), nil, nil
	})
}

func neighborLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return textResult(string(data))
}
