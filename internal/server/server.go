// Package server exposes the code graph over the Model Context
// Protocol so agents can query it from a stdio session.
package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/abramin/codegraph/internal/config"
	"github.com/abramin/codegraph/internal/embed"
	"github.com/abramin/codegraph/internal/ingest"
	"github.com/abramin/codegraph/internal/memory"
	"github.com/abramin/codegraph/internal/query"
	"github.com/abramin/codegraph/internal/store"
)

const serverVersion = "0.3.0"

// Config holds server configuration.
type Config struct {
	ProjectDir string
	Settings   *config.Config
}

// Server is the codegraph MCP server.
type Server struct {
	root      string
	store     *store.Store
	pipeline  *ingest.Pipeline
	engine    *query.Engine
	searcher  *query.Searcher
	builder   *query.ContextBuilder
	memories  *memory.Manager
	mcpServer *mcp.Server
}

// New creates a new server instance over the project's store.
func New(cfg Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}

	st, err := store.Open(cfg.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	memories, err := memory.NewManager(cfg.ProjectDir)
	if err != nil {
		st.Close()
		return nil, err
	}

	var provider embed.Provider
	if settings.Embeddings.Enabled {
		provider, err = embed.NewProvider(settings.Embeddings)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	s := &Server{
		root:     cfg.ProjectDir,
		store:    st,
		pipeline: ingest.NewPipeline(cfg.ProjectDir, settings, st),
		engine:   query.NewEngine(st),
		searcher: query.NewSearcher(st, provider),
		builder:  query.NewContextBuilder(st, provider, cfg.ProjectDir),
		memories: memories,
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph",
		Version: serverVersion,
	}, nil)
	s.registerTools()

	return s, nil
}

// Run serves MCP over stdio until the client disconnects or the
// context is canceled.
func (s *Server) Run(ctx context.Context) error {
	defer s.store.Close()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Close releases the underlying store without serving.
func (s *Server) Close() error {
	return s.store.Close()
}
