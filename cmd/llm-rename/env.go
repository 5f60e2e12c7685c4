package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jedgentry/llm-rename/internal/client"
	"github.com/jedgentry/llm-rename/internal/document"
	"github.com/jedgentry/llm-rename/internal/edit"
	"github.com/jedgentry/llm-rename/internal/rename"
	"github.com/jedgentry/llm-rename/internal/suggest"
	"github.com/jedgentry/llm-rename/internal/tokens"
	"github.com/jedgentry/llm-rename/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// environment is a started language server with the pipeline around it
type environment struct {
	config    types.Config
	client    *client.LSPClient
	documents *document.Store
	editor    *edit.WorkspaceEditor
}

// newSuggester selects the suggestion service for cfg
func newSuggester(cfg types.Config) rename.Suggester {
	if !cfg.LLM.Configured() {
		slog.Debug("Suggestion service not configured")
		return suggest.Disabled{}
	}
	return suggest.NewClient(cfg.LLM, cfg.RequestTimeout)
}

// startEnvironment launches the language server around a fresh document store
func startEnvironment(ctx context.Context, cfg types.Config) (*environment, error) {
	docs := document.NewStore(nil)
	lsp := client.NewLSPClient(cfg.LSP.Command, cfg.LSP.Args, cfg.RequestTimeout)

	if err := lsp.Start(ctx, cfg.WorkspaceRoot); err != nil {
		return nil, fmt.Errorf("failed to start language server: %w", err)
	}

	return &environment{
		config:    cfg,
		client:    lsp,
		documents: docs,
		editor:    edit.NewWorkspaceEditor(lsp, docs),
	}, nil
}

// newRenamer wires the pipeline. presenter and editor may be nil when the
// command never applies a rename.
func (e *environment) newRenamer(presenter rename.Presenter, editor rename.Editor) (*rename.Renamer, error) {
	return rename.NewRenamer(rename.Dependencies{
		Oracle:    e.client,
		Documents: e.documents,
		Suggester: newSuggester(e.config),
		Presenter: presenter,
		Editor:    editor,
		Tokens:    tokens.NewCounter(e.config.LLM.Model),
		Logger:    slog.Default(),
	}, rename.WithMaxConcurrency(e.config.MaxConcurrency))
}

func (e *environment) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.client.Stop(ctx); err != nil {
		slog.Warn("Failed to stop language server", "error", err)
	}
}
