package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jedgentry/llm-rename/internal/results"
	"github.com/jedgentry/llm-rename/pkg/types"
)

const ToolRenameSymbolByAnchor = "rename_symbol_by_anchor"

// WorkspaceRenamer computes and applies workspace renames
type WorkspaceRenamer interface {
	Rename(ctx context.Context, uri string, position types.Position, newName string) (*types.WorkspaceEdit, error)
	Apply(ctx context.Context, edit *types.WorkspaceEdit) (int, error)
}

var _ Tool = &RenameSymbolByAnchorTool{}

// RenameSymbolByAnchorTool handles rename symbol by anchor requests
type RenameSymbolByAnchorTool struct {
	renamer WorkspaceRenamer
	docs    types.DocumentStore
	config  types.Config
}

// NewRenameSymbolByAnchorTool creates a new rename symbol by anchor tool
func NewRenameSymbolByAnchorTool(renamer WorkspaceRenamer, docs types.DocumentStore, config types.Config) *RenameSymbolByAnchorTool {
	return &RenameSymbolByAnchorTool{
		renamer: renamer,
		docs:    docs,
		config:  config,
	}
}

// GetTool returns the MCP tool definition
func (t *RenameSymbolByAnchorTool) GetTool() mcp.Tool {
	return mcp.NewTool(ToolRenameSymbolByAnchor,
		mcp.WithDescription("Rename a symbol by its anchor across the workspace, returning the file edits. Edits are written to disk only when apply is true."),
		mcp.WithString(
			"symbol_anchor",
			mcp.Required(),
			mcp.Description("Symbol anchor, as returned by suggest_symbol_names"),
		),
		mcp.WithString(
			"new_name",
			mcp.Required(),
			mcp.Description("New name for the symbol"),
		),
		mcp.WithBoolean(
			"apply",
			mcp.Description("Write the edits to disk (default false)"),
		),
	)
}

// Handle processes the tool request
func (t *RenameSymbolByAnchorTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	anchorStr := mcp.ParseString(req, "symbol_anchor", "")
	if anchorStr == "" {
		slog.Debug("MCP tool called with missing symbol_anchor parameter", "tool", ToolRenameSymbolByAnchor)
		return mcp.NewToolResultError("symbol_anchor parameter is required"), nil
	}

	newName := mcp.ParseString(req, "new_name", "")
	if newName == "" {
		slog.Debug("MCP tool called with missing new_name parameter", "tool", ToolRenameSymbolByAnchor)
		return mcp.NewToolResultError("new_name parameter is required"), nil
	}

	if !IsValidIdentifier(newName) {
		slog.Debug("Invalid identifier provided",
			"tool", ToolRenameSymbolByAnchor,
			"new_name", newName)
		return mcp.NewToolResultError(fmt.Sprintf("'%s' is not a valid identifier", newName)), nil
	}

	apply := mcp.ParseBoolean(req, "apply", false)

	uri, position, err := resolveAnchor(anchorStr, t.config.WorkspaceRoot)
	if err != nil {
		slog.Debug("Invalid anchor format",
			"tool", ToolRenameSymbolByAnchor,
			"symbol_anchor", anchorStr,
			"error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Invalid anchor format: %v", err)), nil
	}

	slog.Debug("MCP tool called",
		"tool", ToolRenameSymbolByAnchor,
		"symbol_anchor", anchorStr,
		"new_name", newName,
		"apply", apply)

	workspaceEdit, err := t.renamer.Rename(ctx, uri, position, newName)
	if err != nil {
		slog.Error("Failed to rename symbol",
			"tool", ToolRenameSymbolByAnchor,
			"symbol_anchor", anchorStr,
			"new_name", newName,
			"uri", uri,
			"error", err)
		return mcp.NewToolResultError(
			fmt.Sprintf("Failed to rename symbol at anchor %s: %v", anchorStr, err),
		), nil
	}

	toolResult := results.RenameSymbolByAnchorToolResult{
		Arguments: results.RenameSymbolByAnchorToolArgs{
			SymbolAnchor: anchorStr,
			NewName:      newName,
			Apply:        apply,
		},
		// Old text is read before the edits are applied
		FileEdits: t.fileEdits(ctx, workspaceEdit),
	}

	totalEdits := 0
	for _, fe := range toolResult.FileEdits {
		totalEdits += len(fe.Edits)
	}

	switch {
	case totalEdits == 0:
		toolResult.Message = "No changes needed to rename symbol. The symbol may already have this name."
	case apply:
		if _, err := t.renamer.Apply(ctx, workspaceEdit); err != nil {
			slog.Error("Failed to apply rename",
				"tool", ToolRenameSymbolByAnchor,
				"symbol_anchor", anchorStr,
				"error", err)
			return mcp.NewToolResultError(fmt.Sprintf("Failed to apply rename: %v", err)), nil
		}
		toolResult.Applied = true
		toolResult.Message = fmt.Sprintf("Renamed symbol with %d edits across %d files.",
			totalEdits, len(toolResult.FileEdits))
	default:
		toolResult.Message = fmt.Sprintf("Rename requires %d edits across %d files. Call again with apply=true to write them.",
			totalEdits, len(toolResult.FileEdits))
	}

	slog.Debug("MCP tool completed successfully",
		"tool", ToolRenameSymbolByAnchor,
		"symbol_anchor", anchorStr,
		"new_name", newName,
		"file_count", len(toolResult.FileEdits),
		"edit_count", totalEdits,
		"applied", toolResult.Applied)

	return jsonResult(ToolRenameSymbolByAnchor, toolResult), nil
}

func (t *RenameSymbolByAnchorTool) fileEdits(ctx context.Context, workspaceEdit *types.WorkspaceEdit) []results.FileEdit {
	fileEdits := make([]results.FileEdit, 0)
	if workspaceEdit == nil {
		return fileEdits
	}

	uris := make([]string, 0, len(workspaceEdit.Changes))
	for uri := range workspaceEdit.Changes {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	for _, uri := range uris {
		file := relativeFile(uri, t.config.WorkspaceRoot)

		var doc types.Document
		if t.docs != nil {
			if d, err := t.docs.Open(ctx, uri); err == nil {
				doc = d
			}
		}

		fileEdit := results.FileEdit{File: file, Edits: make([]results.Edit, 0, len(workspaceEdit.Changes[uri]))}
		for _, textEdit := range workspaceEdit.Changes[uri] {
			edit := results.Edit{
				Start:   results.NewSymbolLocation(file, textEdit.Range.Start),
				End:     results.NewSymbolLocation(file, textEdit.Range.End),
				NewText: textEdit.NewText,
			}
			if doc != nil {
				edit.OldText = doc.GetText(textEdit.Range)
			}
			fileEdit.Edits = append(fileEdit.Edits, edit)
		}
		fileEdits = append(fileEdits, fileEdit)
	}
	return fileEdits
}
