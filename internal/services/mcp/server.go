// Package mcp exposes the catalog to machine agents over the Model
// Context Protocol: search and record retrieval tools plus a readable
// thesaurus resource.
package mcp

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mscwg/catalog/internal/catalog"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "RDA Metadata Standards Catalog"
	// serverVersion identifies the MCP server version.
	serverVersion = "2.1.0"
)

// Config configures the MCP server.
type Config struct {
	Catalog *catalog.Catalog
}

// Server hosts the catalog MCP surface.
type Server struct {
	mcpServer *mcp.Server
}

// New creates a configured MCP server backed by the catalog.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, stderrors.New("catalog is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{})
	registerCatalogTools(mcpServer, cfg.Catalog)
	registerThesaurusResources(mcpServer, cfg.Catalog)
	return &Server{mcpServer: mcpServer}, nil
}

// Handler returns a streamable HTTP handler for mounting alongside the
// web and API surfaces.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// ServeStdio runs the server over standard input and output until the
// context ends.
func (s *Server) ServeStdio(ctx context.Context) error {
	if s == nil || s.mcpServer == nil {
		return stderrors.New("MCP server is not configured")
	}
	err := s.mcpServer.Run(ctx, &mcp.StdioTransport{})
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
