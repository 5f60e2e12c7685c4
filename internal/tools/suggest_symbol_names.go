package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jedgentry/llm-rename/internal/rename"
	"github.com/jedgentry/llm-rename/internal/results"
	"github.com/jedgentry/llm-rename/internal/suggest"
	"github.com/jedgentry/llm-rename/pkg/types"
)

const ToolSuggestSymbolNames = "suggest_symbol_names"

// SymbolSuggester collects context for a symbol and asks for new names
type SymbolSuggester interface {
	Suggest(ctx context.Context, req rename.Request) (*rename.Outcome, error)
}

var _ Tool = &SuggestSymbolNamesTool{}

// SuggestSymbolNamesTool handles rename suggestion requests
type SuggestSymbolNamesTool struct {
	suggester SymbolSuggester
	config    types.Config
}

// NewSuggestSymbolNamesTool creates a new suggest symbol names tool
func NewSuggestSymbolNamesTool(suggester SymbolSuggester, config types.Config) *SuggestSymbolNamesTool {
	return &SuggestSymbolNamesTool{
		suggester: suggester,
		config:    config,
	}
}

// GetTool returns the MCP tool definition
func (t *SuggestSymbolNamesTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolSuggestSymbolNames,
		mcp.WithDescription("Suggest better names for the symbol at an anchor, using every function or method that references it as context. Returns up to 5 names, best first."),
		mcp.WithString(
			"symbol_anchor",
			mcp.Required(),
			mcp.Description("Symbol anchor in the form go://FILE#LINE:CHAR, with 1-indexed line and character"),
		),
	)
}

// Handle processes the tool request
func (t *SuggestSymbolNamesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	anchorStr := mcp.ParseString(req, "symbol_anchor", "")
	if anchorStr == "" {
		slog.Debug("MCP tool called with missing symbol_anchor parameter", "tool", ToolSuggestSymbolNames)
		return mcp.NewToolResultError("symbol_anchor parameter is required"), nil
	}

	uri, position, err := resolveAnchor(anchorStr, t.config.WorkspaceRoot)
	if err != nil {
		slog.Debug("Invalid anchor format",
			"tool", ToolSuggestSymbolNames,
			"symbol_anchor", anchorStr,
			"error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Invalid anchor format: %v", err)), nil
	}

	slog.Debug("MCP tool called",
		"tool", ToolSuggestSymbolNames,
		"symbol_anchor", anchorStr,
		"uri", uri,
		"line", position.Line,
		"character", position.Character)

	outcome, err := t.suggester.Suggest(ctx, rename.Request{URI: uri, Position: position})
	if err != nil {
		switch {
		case errors.Is(err, suggest.ErrNotConfigured):
			return mcp.NewToolResultError("The suggestion service is not configured. Set endpoint and api_key."), nil
		case errors.Is(err, rename.ErrNoActiveContext):
			return mcp.NewToolResultError(fmt.Sprintf("No symbol at anchor %s: %v", anchorStr, err)), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("Failed to suggest names for anchor %s: %v", anchorStr, err)), nil
		}
	}

	toolResult := t.buildResult(anchorStr, outcome)

	slog.Debug("MCP tool completed successfully",
		"tool", ToolSuggestSymbolNames,
		"symbol_anchor", anchorStr,
		"suggestions", len(toolResult.Suggestions),
		"context_files", len(toolResult.ContextFiles))

	return jsonResult(ToolSuggestSymbolNames, toolResult), nil
}

func (t *SuggestSymbolNamesTool) buildResult(anchorStr string, outcome *rename.Outcome) results.SuggestSymbolNamesToolResult {
	root := t.config.WorkspaceRoot
	collected := outcome.Collected

	toolResult := results.SuggestSymbolNamesToolResult{
		Arguments:    results.SuggestSymbolNamesToolArgs{SymbolAnchor: anchorStr},
		Symbol:       collected.Symbol,
		Suggestions:  append([]string{}, outcome.Suggestions...),
		ContextFiles: make([]string, 0, len(collected.Locations)),
		TokenCount:   collected.TokenCount,
	}

	// One location per file; its line is highlighted in that file's scope
	highlight := make(map[string]int, len(collected.Locations))
	for _, loc := range collected.Locations {
		toolResult.ContextFiles = append(toolResult.ContextFiles, relativeFile(loc.URI, root))
		highlight[loc.URI] = loc.Range.Start.Line + 1
	}

	for i, scope := range collected.Scopes {
		if i >= len(collected.Bodies) {
			break
		}
		start := scope.Location.Range.Start
		toolResult.Scopes = append(toolResult.Scopes, results.EnclosingScope{
			Name:     scope.Symbol.Name,
			Kind:     scopeKind(scope.Symbol),
			Location: results.NewSymbolLocation(relativeFile(scope.Location.URI, root), start),
			Context:  results.NewSourceContext(collected.Bodies[i], start.Line+1, highlight[scope.Location.URI]),
		})
	}

	if len(toolResult.Suggestions) == 0 {
		toolResult.Message = fmt.Sprintf("No suggestions returned for '%s'.", collected.Symbol)
	} else {
		toolResult.Message = fmt.Sprintf("Found %d suggestions for '%s' using %d enclosing scopes.",
			len(toolResult.Suggestions), collected.Symbol, len(toolResult.Scopes))
	}
	return toolResult
}

func scopeKind(symbol types.DocumentSymbol) string {
	if symbol.Kind == types.SymbolKindMethod {
		return "method"
	}
	return "function"
}
