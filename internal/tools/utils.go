package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"go/token"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jedgentry/llm-rename/internal/document"
	"github.com/jedgentry/llm-rename/internal/results"
	"github.com/jedgentry/llm-rename/pkg/types"
)

// Tool is an MCP tool definition with its handler
type Tool interface {
	GetTool() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// IsValidIdentifier reports whether name can replace a Go symbol name
func IsValidIdentifier(name string) bool {
	return token.IsIdentifier(name)
}

// resolveAnchor converts an anchor into a document URI and LSP position
func resolveAnchor(anchorStr string, workspaceRoot string) (string, types.Position, error) {
	file, position, err := results.SymbolAnchor(anchorStr).ToFilePosition()
	if err != nil {
		return "", types.Position{}, err
	}
	return document.PathToUri(file, workspaceRoot), position, nil
}

// relativeFile converts a document URI into a workspace-relative path
func relativeFile(uri string, workspaceRoot string) string {
	return document.GetRelativePath(document.UriToPath(uri), workspaceRoot)
}

// jsonResult marshals result into an indented text result
func jsonResult(tool string, result any) *mcp.CallToolResult {
	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal tool result", "tool", tool, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal tool result into JSON: %v", err))
	}
	return mcp.NewToolResultText(string(jsonBytes))
}
