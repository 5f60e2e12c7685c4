package edit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jedgentry/llm-rename/pkg/types"
)

// RenameClient is the part of the LSP client used for workspace renames
type RenameClient interface {
	PrepareRename(ctx context.Context, uri string, position types.Position) (*types.PrepareRenameResult, error)
	RenameSymbol(ctx context.Context, uri string, position types.Position, newName string) (*types.WorkspaceEdit, error)
}

// WorkspaceEditor renames a symbol everywhere it is used by asking the
// language server for a workspace edit and writing it to the documents
type WorkspaceEditor struct {
	client RenameClient
	docs   types.DocumentStore
}

// NewWorkspaceEditor creates an editor
func NewWorkspaceEditor(client RenameClient, docs types.DocumentStore) *WorkspaceEditor {
	return &WorkspaceEditor{client: client, docs: docs}
}

// Replace renames the symbol starting at r to text across the workspace
func (e *WorkspaceEditor) Replace(ctx context.Context, uri string, r types.Range, text string) error {
	edit, err := e.Rename(ctx, uri, r.Start, text)
	if err != nil {
		return err
	}
	_, err = e.Apply(ctx, edit)
	return err
}

// Rename computes the workspace edit for renaming the symbol at position
func (e *WorkspaceEditor) Rename(ctx context.Context, uri string, position types.Position, newName string) (*types.WorkspaceEdit, error) {
	prepared, err := e.client.PrepareRename(ctx, uri, position)
	if err != nil {
		return nil, fmt.Errorf("cannot rename at %s:%d:%d: %w", uri, position.Line, position.Character, err)
	}
	slog.Debug("Rename prepared",
		"uri", uri,
		"range", prepared.Range,
		"placeholder", prepared.Placeholder)

	edit, err := e.client.RenameSymbol(ctx, uri, position, newName)
	if err != nil {
		return nil, fmt.Errorf("failed to rename symbol: %w", err)
	}
	return edit, nil
}

// Apply writes edit to the documents and returns the number of text edits
// applied. Edits within a file are applied last to first so earlier ranges
// stay valid.
func (e *WorkspaceEditor) Apply(ctx context.Context, edit *types.WorkspaceEdit) (int, error) {
	if edit == nil {
		return 0, nil
	}

	uris := make([]string, 0, len(edit.Changes))
	for uri := range edit.Changes {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	applied := 0
	for _, uri := range uris {
		edits := append([]types.TextEdit(nil), edit.Changes[uri]...)
		sort.SliceStable(edits, func(i, j int) bool {
			return edits[j].Range.Start.Before(edits[i].Range.Start)
		})

		for _, te := range edits {
			if err := e.docs.Replace(ctx, uri, te.Range, te.NewText); err != nil {
				return applied, fmt.Errorf("failed to apply edit to %s: %w", uri, err)
			}
			applied++
		}
		slog.Debug("Applied workspace edits", "uri", uri, "edits", len(edits))
	}
	return applied, nil
}
