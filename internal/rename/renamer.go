package rename

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/jedgentry/llm-rename/pkg/types"
)

const (
	tracerName            = "github.com/jedgentry/llm-rename/internal/rename"
	defaultMaxConcurrency = 8
)

// Oracle answers symbol questions about documents. types.Client satisfies it.
type Oracle interface {
	FindReferences(ctx context.Context, uri string, position types.Position, includeDeclaration bool) ([]types.Location, error)
	GoToDefinition(ctx context.Context, uri string, position types.Position) ([]types.Location, error)
	GetDocumentSymbols(ctx context.Context, uri string) ([]types.DocumentSymbol, error)
}

// Suggester turns a prompt into rename suggestions, best first
type Suggester interface {
	RequestSuggestions(ctx context.Context, prompt string) ([]string, error)
}

// Presenter shows suggestions next to anchor and returns the user's choice.
// ok is false when the user dismissed the selection.
type Presenter interface {
	Present(ctx context.Context, suggestions []string, anchor types.Location) (choice string, ok bool, err error)
}

// Editor replaces the text of a range with a new name
type Editor interface {
	Replace(ctx context.Context, uri string, r types.Range, text string) error
}

// TokenCounter reports the size of a prompt in model tokens
type TokenCounter interface {
	CountTokens(text string) (int, error)
}

// Dependencies are the collaborators of a Renamer. Suggester, Presenter,
// Editor and Tokens may be nil when only the prompt is needed.
type Dependencies struct {
	Oracle    Oracle
	Documents types.DocumentStore
	Suggester Suggester
	Presenter Presenter
	Editor    Editor
	Tokens    TokenCounter
	Logger    *slog.Logger
}

type options struct {
	maxConcurrency int
	tracerProvider trace.TracerProvider
}

// Option configures a Renamer
type Option func(*options)

// WithMaxConcurrency bounds concurrent scope resolutions and extractions
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

// WithTracerProvider sets the provider used for stage spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// Request is the active editor context of a rename
type Request struct {
	URI      string         `json:"uri"`
	Position types.Position `json:"position"`
}

func (r Request) key() string {
	return fmt.Sprintf("%s#%d:%d", r.URI, r.Position.Line, r.Position.Character)
}

// Collected is the context gathered for a symbol
type Collected struct {
	Symbol     string           `json:"symbol"`
	Locations  []types.Location `json:"locations"`
	Scopes     []Scope          `json:"scopes"`
	Bodies     []string         `json:"bodies"`
	Prompt     string           `json:"prompt"`
	TokenCount int              `json:"token_count"`
}

// Outcome describes how far a rename invocation got
type Outcome struct {
	InvocationID string     `json:"invocation_id"`
	State        State      `json:"state"`
	States       []State    `json:"states"`
	Collected    *Collected `json:"collected,omitempty"`
	Suggestions  []string   `json:"suggestions,omitempty"`
	Selection    string     `json:"selection,omitempty"`
	Applied      bool       `json:"applied"`
}

func (o *Outcome) transition(logger *slog.Logger, s State) {
	logger.Debug("Rename state transition", "from", o.State.String(), "to", s.String())
	o.State = s
	o.States = append(o.States, s)
}

func (o *Outcome) clone() *Outcome {
	c := *o
	c.States = append([]State(nil), o.States...)
	c.Suggestions = append([]string(nil), o.Suggestions...)
	return &c
}

// Renamer collects symbol context, requests suggestions and applies the
// chosen name
type Renamer struct {
	deps      Dependencies
	logger    *slog.Logger
	tracer    trace.Tracer
	resolver  *ScopeResolver
	extractor *ContentExtractor
	inflight  singleflight.Group
}

// NewRenamer creates a Renamer. Oracle and Documents are required.
func NewRenamer(deps Dependencies, opts ...Option) (*Renamer, error) {
	if deps.Oracle == nil {
		return nil, errors.New("rename: oracle is required")
	}
	if deps.Documents == nil {
		return nil, errors.New("rename: document store is required")
	}

	o := options{maxConcurrency: defaultMaxConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Renamer{
		deps:      deps,
		logger:    logger,
		tracer:    o.tracerProvider.Tracer(tracerName),
		resolver:  NewScopeResolver(deps.Oracle, deps.Documents, logger, o.maxConcurrency),
		extractor: NewContentExtractor(deps.Documents, o.maxConcurrency),
	}, nil
}

func (r *Renamer) begin() (*Outcome, *slog.Logger) {
	out := &Outcome{
		InvocationID: uuid.NewString(),
		State:        StateIdle,
		States:       []State{StateIdle},
	}
	return out, r.logger.With("invocation_id", out.InvocationID)
}

// fail moves out to Failed and logs err once
func (r *Renamer) fail(logger *slog.Logger, out *Outcome, err error) error {
	logger.Error("Rename failed", "state", out.State.String(), "error", err)
	out.transition(logger, StateFailed)
	return err
}

// BuildPrompt gathers the context of the symbol at req and assembles the prompt
func (r *Renamer) BuildPrompt(ctx context.Context, req Request) (*Outcome, error) {
	out, logger := r.begin()
	if err := r.buildPrompt(ctx, req, out, logger); err != nil {
		return out, r.fail(logger, out, err)
	}
	return out, nil
}

// Suggest builds the prompt and asks the suggestion service for names.
// Concurrent calls for the same URI and position share one invocation. The
// shared work is not cancelled with any single caller; each caller stops
// waiting when its own ctx is done.
func (r *Renamer) Suggest(ctx context.Context, req Request) (*Outcome, error) {
	type shared struct {
		out *Outcome
		err error
	}

	shareCtx := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(req.key(), func() (any, error) {
		out, logger := r.begin()
		err := r.suggest(shareCtx, req, out, logger)
		if err != nil {
			err = r.fail(logger, out, err)
		}
		return shared{out: out, err: err}, nil
	})

	select {
	case res := <-ch:
		s := res.Val.(shared)
		return s.out.clone(), s.err
	case <-ctx.Done():
		out, logger := r.begin()
		return out, r.fail(logger, out, ctx.Err())
	}
}

// Run performs a full rename: suggestions, selection and edit
func (r *Renamer) Run(ctx context.Context, req Request) (*Outcome, error) {
	out, err := r.Suggest(ctx, req)
	if err != nil {
		return out, err
	}

	logger := r.logger.With("invocation_id", out.InvocationID)
	if err := r.presentAndApply(ctx, req, out, logger); err != nil {
		return out, r.fail(logger, out, err)
	}
	return out, nil
}

func (r *Renamer) buildPrompt(ctx context.Context, req Request, out *Outcome, logger *slog.Logger) (err error) {
	ctx, span := r.tracer.Start(ctx, "rename.BuildPrompt",
		trace.WithAttributes(
			attribute.String("uri", req.URI),
			attribute.Int("line", req.Position.Line),
			attribute.Int("character", req.Position.Character),
		),
	)
	defer func() { endSpan(span, err) }()

	startTime := time.Now()

	active, err := r.openActive(ctx, req)
	if err != nil {
		return err
	}

	refs, err := r.deps.Oracle.FindReferences(ctx, req.URI, req.Position, true)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Failed to find references, continuing without them", "uri", req.URI, "error", err)
		refs = nil
	}
	defs, err := r.deps.Oracle.GoToDefinition(ctx, req.URI, req.Position)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("Failed to find definitions, continuing without them", "uri", req.URI, "error", err)
		defs = nil
	}
	out.transition(logger, StateLocationsFetched)

	all := make([]types.Location, 0, len(refs)+len(defs))
	all = append(all, refs...)
	all = append(all, defs...)
	locs := Dedupe(all)
	out.transition(logger, StateDeduplicated)

	logger.Debug("Collected symbol locations",
		"references", len(refs),
		"definitions", len(defs),
		"deduplicated", len(locs))

	collected := &Collected{
		Symbol:    r.symbolText(ctx, active, req.Position, locs, logger),
		Locations: locs,
	}
	out.Collected = collected

	out.transition(logger, StateScopesResolving)
	scopes, err := r.resolveScopes(ctx, locs)
	if err != nil {
		return err
	}
	collected.Scopes = scopes
	out.transition(logger, StateScopesResolved)

	bodies, err := r.extractContents(ctx, scopes)
	if err != nil {
		return err
	}
	collected.Bodies = bodies
	out.transition(logger, StateContentsExtracted)

	collected.Prompt = Assemble(collected.Symbol, bodies)
	if r.deps.Tokens != nil {
		if n, err := r.deps.Tokens.CountTokens(collected.Prompt); err != nil {
			logger.Warn("Failed to count prompt tokens", "error", err)
		} else {
			collected.TokenCount = n
		}
	}
	out.transition(logger, StatePromptBuilt)

	span.SetAttributes(
		attribute.Int("locations", len(locs)),
		attribute.Int("scopes", len(scopes)),
		attribute.Int("prompt_bytes", len(collected.Prompt)),
		attribute.Int("prompt_tokens", collected.TokenCount),
	)
	logger.Info("Built rename prompt",
		"uri", req.URI,
		"symbol", collected.Symbol,
		"locations", len(locs),
		"scopes", len(scopes),
		"prompt_tokens", collected.TokenCount,
		"duration_ms", time.Since(startTime).Milliseconds())
	return nil
}

// openActive validates the active editor context
func (r *Renamer) openActive(ctx context.Context, req Request) (types.Document, error) {
	if req.URI == "" {
		return nil, ErrNoActiveContext
	}
	doc, err := r.deps.Documents.Open(ctx, req.URI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoActiveContext, err)
	}
	if req.Position.Line < 0 || req.Position.Line >= doc.LineCount() || req.Position.Character < 0 {
		return nil, fmt.Errorf("%w: position %d:%d is outside %s",
			ErrNoActiveContext, req.Position.Line, req.Position.Character, req.URI)
	}
	return doc, nil
}

// symbolText reads the first location in its own document, falling back to
// the word at the cursor
func (r *Renamer) symbolText(ctx context.Context, active types.Document, pos types.Position, locs []types.Location, logger *slog.Logger) string {
	if len(locs) > 0 {
		doc, err := r.deps.Documents.Open(ctx, locs[0].URI)
		if err == nil {
			return doc.GetText(locs[0].Range)
		}
		logger.Warn("Failed to read symbol text, using word at cursor", "uri", locs[0].URI, "error", err)
	}
	if word, ok := active.GetWordRangeAt(pos); ok {
		return active.GetText(word)
	}
	return ""
}

func (r *Renamer) resolveScopes(ctx context.Context, locs []types.Location) (scopes []Scope, err error) {
	ctx, span := r.tracer.Start(ctx, "rename.ResolveScopes",
		trace.WithAttributes(attribute.Int("locations", len(locs))))
	defer func() { endSpan(span, err) }()

	scopes, err = r.resolver.ResolveAll(ctx, locs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve enclosing scopes: %w", err)
	}
	span.SetAttributes(attribute.Int("scopes", len(scopes)))
	return scopes, nil
}

func (r *Renamer) extractContents(ctx context.Context, scopes []Scope) (bodies []string, err error) {
	ctx, span := r.tracer.Start(ctx, "rename.ExtractContents",
		trace.WithAttributes(attribute.Int("scopes", len(scopes))))
	defer func() { endSpan(span, err) }()

	locs := make([]types.Location, len(scopes))
	for i, scope := range scopes {
		locs[i] = scope.Location
	}

	bodies, err = r.extractor.ExtractContents(ctx, locs)
	if err != nil {
		return nil, fmt.Errorf("failed to extract scope contents: %w", err)
	}
	return bodies, nil
}

func (r *Renamer) suggest(ctx context.Context, req Request, out *Outcome, logger *slog.Logger) error {
	if err := r.buildPrompt(ctx, req, out, logger); err != nil {
		return err
	}

	suggestions, err := r.requestSuggestions(ctx, out.Collected.Prompt)
	if err != nil {
		return err
	}
	out.Suggestions = suggestions
	out.transition(logger, StateSuggestionsReceived)

	logger.Info("Received rename suggestions", "symbol", out.Collected.Symbol, "suggestions", suggestions)
	return nil
}

func (r *Renamer) requestSuggestions(ctx context.Context, prompt string) (suggestions []string, err error) {
	ctx, span := r.tracer.Start(ctx, "rename.RequestSuggestions")
	defer func() { endSpan(span, err) }()

	if r.deps.Suggester == nil {
		return nil, fmt.Errorf("%w: no suggestion service configured", ErrSuggestionService)
	}

	suggestions, err = r.deps.Suggester.RequestSuggestions(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSuggestionService, err)
	}
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	span.SetAttributes(attribute.Int("suggestions", len(suggestions)))
	return suggestions, nil
}

func (r *Renamer) presentAndApply(ctx context.Context, req Request, out *Outcome, logger *slog.Logger) error {
	if r.deps.Presenter == nil {
		return errors.New("no presenter configured")
	}

	anchor := r.anchor(ctx, req)

	choice, ok, err := r.present(ctx, out.Suggestions, anchor)
	if err != nil {
		return err
	}
	out.transition(logger, StatePresented)

	if !ok {
		logger.Info("No rename selected", "symbol", out.Collected.Symbol)
		return nil
	}
	out.Selection = choice

	if err := r.apply(ctx, anchor, choice); err != nil {
		return err
	}
	out.Applied = true

	logger.Info("Applied rename",
		"uri", anchor.URI,
		"line", anchor.Range.Start.Line,
		"character", anchor.Range.Start.Character,
		"old_name", out.Collected.Symbol,
		"new_name", choice)
	return nil
}

// anchor is the word range at the cursor, or an empty range at the cursor
func (r *Renamer) anchor(ctx context.Context, req Request) types.Location {
	anchor := types.Location{
		URI:   req.URI,
		Range: types.Range{Start: req.Position, End: req.Position},
	}
	doc, err := r.deps.Documents.Open(ctx, req.URI)
	if err != nil {
		return anchor
	}
	if word, ok := doc.GetWordRangeAt(req.Position); ok {
		anchor.Range = word
	}
	return anchor
}

func (r *Renamer) present(ctx context.Context, suggestions []string, anchor types.Location) (choice string, ok bool, err error) {
	ctx, span := r.tracer.Start(ctx, "rename.Present",
		trace.WithAttributes(attribute.Int("suggestions", len(suggestions))))
	defer func() { endSpan(span, err) }()

	choice, ok, err = r.deps.Presenter.Present(ctx, suggestions, anchor)
	if err != nil {
		return "", false, fmt.Errorf("failed to present suggestions: %w", err)
	}
	span.SetAttributes(attribute.Bool("selected", ok))
	return choice, ok, nil
}

func (r *Renamer) apply(ctx context.Context, anchor types.Location, choice string) (err error) {
	ctx, span := r.tracer.Start(ctx, "rename.Apply",
		trace.WithAttributes(
			attribute.String("uri", anchor.URI),
			attribute.String("new_name", choice),
		),
	)
	defer func() { endSpan(span, err) }()

	if r.deps.Editor == nil {
		return fmt.Errorf("%w: no editor configured", ErrApply)
	}
	if err := r.deps.Editor.Replace(ctx, anchor.URI, anchor.Range, choice); err != nil {
		return fmt.Errorf("%w: %w", ErrApply, err)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
