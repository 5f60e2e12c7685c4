package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jedgentry/llm-rename/internal/tools"
	"github.com/jedgentry/llm-rename/pkg/project"
	"github.com/jedgentry/llm-rename/pkg/types"
)

// Server exposes rename suggestions and workspace renames over MCP
type Server struct {
	mcpServer *server.MCPServer
	config    *types.Config
	tools     []tools.Tool
}

// NewServer creates a server and registers its tools
func NewServer(config *types.Config, suggester tools.SymbolSuggester, renamer tools.WorkspaceRenamer, docs types.DocumentStore) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(project.Name, project.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		config: config,
		tools: []tools.Tool{
			tools.NewSuggestSymbolNamesTool(suggester, *config),
			tools.NewRenameSymbolByAnchorTool(renamer, docs, *config),
		},
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	for _, tool := range s.tools {
		definition := tool.GetTool()
		s.mcpServer.AddTool(definition, tool.Handle)
		slog.Debug("Registered MCP tool", "tool", definition.Name)
	}
}

// Tools returns the registered tools
func (s *Server) Tools() []tools.Tool {
	return s.tools
}

// Serve handles MCP messages from in and writes replies to out until ctx is
// done or in is closed
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	slog.Info("Starting MCP server",
		"name", project.Name,
		"version", project.Version,
		"workspace_root", s.config.WorkspaceRoot,
		"tools", len(s.tools))

	stdio := server.NewStdioServer(s.mcpServer)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve MCP server: %w", err)
	}
	return nil
}
