package rename

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/jedgentry/llm-rename/internal/document"
	"github.com/jedgentry/llm-rename/pkg/types"
)

type fakeOracle struct {
	mu          sync.Mutex
	references  []types.Location
	definitions []types.Location
	symbols     map[string][]types.DocumentSymbol
	refErr      error
	defErr      error
	symbolErr   map[string]error

	includeDeclaration bool
	symbolCalls        []string
}

func (o *fakeOracle) FindReferences(ctx context.Context, uri string, position types.Position, includeDeclaration bool) ([]types.Location, error) {
	o.mu.Lock()
	o.includeDeclaration = includeDeclaration
	o.mu.Unlock()
	return o.references, o.refErr
}

func (o *fakeOracle) GoToDefinition(ctx context.Context, uri string, position types.Position) ([]types.Location, error) {
	return o.definitions, o.defErr
}

func (o *fakeOracle) GetDocumentSymbols(ctx context.Context, uri string) ([]types.DocumentSymbol, error) {
	o.mu.Lock()
	o.symbolCalls = append(o.symbolCalls, uri)
	o.mu.Unlock()
	if err := o.symbolErr[uri]; err != nil {
		return nil, err
	}
	return o.symbols[uri], nil
}

type fakeSuggester struct {
	suggestions []string
	err         error
	prompts     []string
}

func (s *fakeSuggester) RequestSuggestions(ctx context.Context, prompt string) ([]string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.suggestions, s.err
}

// gatedSuggester blocks every request until release is closed
type gatedSuggester struct {
	suggestions []string
	started     chan struct{}
	release     chan struct{}
	calls       atomic.Int32
	once        sync.Once
}

func newGatedSuggester(suggestions ...string) *gatedSuggester {
	return &gatedSuggester{
		suggestions: suggestions,
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (s *gatedSuggester) RequestSuggestions(ctx context.Context, prompt string) ([]string, error) {
	s.calls.Add(1)
	s.once.Do(func() { close(s.started) })
	select {
	case <-s.release:
		return s.suggestions, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakePresenter struct {
	choose    int
	err       error
	presented []string
	anchor    types.Location
}

func (p *fakePresenter) Present(ctx context.Context, suggestions []string, anchor types.Location) (string, bool, error) {
	p.presented = suggestions
	p.anchor = anchor
	if p.err != nil {
		return "", false, p.err
	}
	if p.choose <= 0 || p.choose > len(suggestions) {
		return "", false, nil
	}
	return suggestions[p.choose-1], true, nil
}

type wordCounter struct{}

func (wordCounter) CountTokens(text string) (int, error) {
	return len(strings.Fields(text)), nil
}

func newMemStore(t *testing.T, files map[string]string) *document.Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return document.NewStore(fs)
}

func pos(line, character int) types.Position {
	return types.Position{Line: line, Character: character}
}

func rangeOf(startLine, startChar, endLine, endChar int) types.Range {
	return types.Range{Start: pos(startLine, startChar), End: pos(endLine, endChar)}
}

func fn(name string, r types.Range, children ...types.DocumentSymbol) types.DocumentSymbol {
	return types.DocumentSymbol{
		Name:           name,
		Kind:           types.SymbolKindFunction,
		Range:          r,
		SelectionRange: r,
		Children:       children,
	}
}
