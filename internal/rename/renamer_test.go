package rename

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/jedgentry/llm-rename/pkg/types"
)

const (
	mainURI   = "file:///work/main.go"
	innerBody = "inner := func() int {\n\t\treturn target\n\t}"
)

type fixture struct {
	oracle    *fakeOracle
	suggester *fakeSuggester
	presenter *fakePresenter
	deps      Dependencies
}

// newFixture is the outer/inner/target scenario: the cursor sits on target
// inside inner, and both the reference and the definition lie in inner.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore(t, map[string]string{"/work/main.go": scopeSource})
	oracle := &fakeOracle{
		references:  []types.Location{loc(mainURI, 6, 9, 15)},
		definitions: []types.Location{loc(mainURI, 6, 9, 15)},
		symbols:     map[string][]types.DocumentSymbol{mainURI: scopeSymbols()},
	}
	suggester := &fakeSuggester{suggestions: []string{"result", "value"}}
	presenter := &fakePresenter{}

	return &fixture{
		oracle:    oracle,
		suggester: suggester,
		presenter: presenter,
		deps: Dependencies{
			Oracle:    oracle,
			Documents: store,
			Suggester: suggester,
			Presenter: presenter,
			Editor:    store,
			Tokens:    wordCounter{},
		},
	}
}

func (f *fixture) renamer(t *testing.T, opts ...Option) *Renamer {
	t.Helper()
	r, err := NewRenamer(f.deps, opts...)
	require.NoError(t, err)
	return r
}

func cursor() Request {
	return Request{URI: mainURI, Position: pos(6, 11)}
}

func TestNewRenamer_RequiresOracleAndDocuments(t *testing.T) {
	_, err := NewRenamer(Dependencies{Documents: newMemStore(t, nil)})
	assert.Error(t, err)

	_, err = NewRenamer(Dependencies{Oracle: &fakeOracle{}})
	assert.Error(t, err)
}

func TestBuildPrompt_EndToEnd(t *testing.T) {
	f := newFixture(t)
	r := f.renamer(t)

	out, err := r.BuildPrompt(context.Background(), cursor())
	require.NoError(t, err)

	assert.True(t, f.oracle.includeDeclaration)
	assert.Equal(t, StatePromptBuilt, out.State)
	assert.Equal(t, []State{
		StateIdle,
		StateLocationsFetched,
		StateDeduplicated,
		StateScopesResolving,
		StateScopesResolved,
		StateContentsExtracted,
		StatePromptBuilt,
	}, out.States)
	assert.NotEmpty(t, out.InvocationID)

	c := out.Collected
	require.NotNil(t, c)
	assert.Len(t, c.Locations, 1, "reference and definition share one document")
	assert.Equal(t, "target", c.Symbol)
	require.Len(t, c.Scopes, 1)
	assert.Equal(t, "inner", c.Scopes[0].Symbol.Name)
	assert.Equal(t, []string{innerBody}, c.Bodies)

	assert.Equal(t, Assemble("target", []string{innerBody}), c.Prompt)
	assert.Equal(t, 1, strings.Count(c.Prompt, innerBody))
	assert.Equal(t, 2, strings.Count(c.Prompt, "```"))
	assert.Equal(t, len(strings.Fields(c.Prompt)), c.TokenCount)
}

func TestBuildPrompt_TopLevelReferenceIsExcluded(t *testing.T) {
	f := newFixture(t)
	store := newMemStore(t, map[string]string{
		"/work/main.go": scopeSource,
		"/work/top.go":  "package main\n\nvar alias = target\n",
	})
	f.deps.Documents = store
	f.oracle.references = []types.Location{
		loc("file:///work/top.go", 2, 12, 18),
		loc(mainURI, 6, 9, 15),
	}
	f.oracle.symbols["file:///work/top.go"] = []types.DocumentSymbol{
		{Name: "alias", Kind: 13, Range: rangeOf(2, 0, 2, 18)},
	}
	r := f.renamer(t)

	out, err := r.BuildPrompt(context.Background(), cursor())
	require.NoError(t, err)

	c := out.Collected
	assert.Len(t, c.Locations, 2)
	assert.Equal(t, "target", c.Symbol, "symbol text comes from the first location's own document")
	require.Len(t, c.Scopes, 1)
	assert.Equal(t, mainURI, c.Scopes[0].Location.URI)
	assert.Equal(t, []string{innerBody}, c.Bodies)
	assert.NotContains(t, c.Prompt, "var alias")
}

func TestBuildPrompt_OracleFailuresAreEmpty(t *testing.T) {
	f := newFixture(t)
	f.oracle.refErr = errors.New("references unavailable")
	f.oracle.defErr = errors.New("definitions unavailable")
	r := f.renamer(t)

	out, err := r.BuildPrompt(context.Background(), cursor())
	require.NoError(t, err)

	c := out.Collected
	assert.Empty(t, c.Locations)
	assert.Empty(t, c.Scopes)
	assert.Equal(t, "target", c.Symbol, "falls back to the word at the cursor")
	assert.Equal(t, Assemble("target", nil), c.Prompt)
}

func TestBuildPrompt_NoActiveContext(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "empty uri", req: Request{}},
		{name: "missing document", req: Request{URI: "file:///work/missing.go"}},
		{name: "line beyond document", req: Request{URI: mainURI, Position: pos(100, 0)}},
		{name: "negative line", req: Request{URI: mainURI, Position: pos(-1, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := f.renamer(t)

			out, err := r.BuildPrompt(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoActiveContext)
			assert.Equal(t, StateFailed, out.State)
			assert.Equal(t, []State{StateIdle, StateFailed}, out.States)
			assert.Empty(t, f.oracle.symbolCalls, "pipeline must not start")
		})
	}
}

func TestSuggest_BoundsAndOrder(t *testing.T) {
	f := newFixture(t)
	f.suggester.suggestions = []string{"a", "b", "c", "d", "e", "f", "g"}
	r := f.renamer(t)

	out, err := r.Suggest(context.Background(), cursor())
	require.NoError(t, err)

	assert.Equal(t, StateSuggestionsReceived, out.State)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, out.Suggestions)
	require.Len(t, f.suggester.prompts, 1)
	assert.Equal(t, out.Collected.Prompt, f.suggester.prompts[0])
}

func TestSuggest_ServiceError(t *testing.T) {
	f := newFixture(t)
	serviceErr := errors.New("HTTP 503")
	f.suggester.err = serviceErr
	r := f.renamer(t)

	out, err := r.Suggest(context.Background(), cursor())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuggestionService)
	assert.ErrorIs(t, err, serviceErr)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, StatePromptBuilt, out.States[len(out.States)-2])
}

func TestSuggest_CollapsesConcurrentCalls(t *testing.T) {
	f := newFixture(t)
	suggester := newGatedSuggester("result", "value")
	f.deps.Suggester = suggester
	r := f.renamer(t)

	const callers = 3
	outcomes := make([]*Outcome, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i], errs[i] = r.Suggest(context.Background(), cursor())
		}()
	}

	<-suggester.started
	time.Sleep(50 * time.Millisecond)
	close(suggester.release)
	wg.Wait()

	assert.Equal(t, int32(1), suggester.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, []string{"result", "value"}, outcomes[i].Suggestions)
		assert.Equal(t, outcomes[0].InvocationID, outcomes[i].InvocationID)
	}
}

func TestSuggest_CancelledCallerDoesNotFailOthers(t *testing.T) {
	f := newFixture(t)
	suggester := newGatedSuggester("result")
	f.deps.Suggester = suggester
	r := f.renamer(t)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()

	type result struct {
		out *Outcome
		err error
	}
	doneA := make(chan result, 1)
	doneB := make(chan result, 1)

	go func() {
		out, err := r.Suggest(ctxA, cursor())
		doneA <- result{out, err}
	}()
	<-suggester.started

	go func() {
		out, err := r.Suggest(context.Background(), cursor())
		doneB <- result{out, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	a := <-doneA
	require.Error(t, a.err)
	assert.ErrorIs(t, a.err, context.Canceled)
	assert.NotErrorIs(t, a.err, ErrSuggestionService)
	assert.Equal(t, StateFailed, a.out.State)

	close(suggester.release)
	b := <-doneB
	require.NoError(t, b.err)
	assert.Equal(t, StateSuggestionsReceived, b.out.State)
	assert.Equal(t, []string{"result"}, b.out.Suggestions)
	assert.Equal(t, int32(1), suggester.calls.Load())
}

func TestSuggest_NoSuggester(t *testing.T) {
	f := newFixture(t)
	f.deps.Suggester = nil
	r := f.renamer(t)

	out, err := r.Suggest(context.Background(), cursor())
	assert.ErrorIs(t, err, ErrSuggestionService)
	assert.Equal(t, StateFailed, out.State)
}

func TestRun_AppliesSelection(t *testing.T) {
	f := newFixture(t)
	f.suggester.suggestions = []string{"a", "b", "c", "d", "e", "f"}
	f.presenter.choose = 2
	r := f.renamer(t)

	out, err := r.Run(context.Background(), cursor())
	require.NoError(t, err)

	assert.Equal(t, StatePresented, out.State)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, f.presenter.presented)
	assert.Equal(t, types.Location{URI: mainURI, Range: rangeOf(6, 9, 6, 15)}, f.presenter.anchor)
	assert.Equal(t, "b", out.Selection)
	assert.True(t, out.Applied)

	doc, err := f.deps.Documents.Open(context.Background(), mainURI)
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "\t\treturn b\n")
}

func TestRun_NoSelection(t *testing.T) {
	f := newFixture(t)
	r := f.renamer(t)

	out, err := r.Run(context.Background(), cursor())
	require.NoError(t, err)

	assert.Equal(t, StatePresented, out.State)
	assert.False(t, out.Applied)
	assert.Empty(t, out.Selection)

	doc, err := f.deps.Documents.Open(context.Background(), mainURI)
	require.NoError(t, err)
	assert.Equal(t, scopeSource, doc.Text())
}

func TestRun_CursorOffWordUsesEmptyAnchor(t *testing.T) {
	f := newFixture(t)
	f.presenter.choose = 1
	r := f.renamer(t)

	// Column 0 of a blank line has no word.
	out, err := r.Run(context.Background(), Request{URI: mainURI, Position: pos(3, 0)})
	require.NoError(t, err)

	assert.Equal(t, types.Location{URI: mainURI, Range: rangeOf(3, 0, 3, 0)}, f.presenter.anchor)
	assert.True(t, out.Applied)

	doc, err := f.deps.Documents.Open(context.Background(), mainURI)
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "var target = 1\nresult\n")
}

type failingEditor struct{}

func (failingEditor) Replace(ctx context.Context, uri string, r types.Range, text string) error {
	return errors.New("read-only file system")
}

func TestRun_ApplyError(t *testing.T) {
	f := newFixture(t)
	f.presenter.choose = 1
	f.deps.Editor = failingEditor{}
	r := f.renamer(t)

	out, err := r.Run(context.Background(), cursor())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrApply)
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, "result", out.Selection)
	assert.False(t, out.Applied)
}

func TestRun_FailureSkipsPresentation(t *testing.T) {
	f := newFixture(t)
	f.suggester.err = errors.New("unauthorized")
	r := f.renamer(t)

	out, err := r.Run(context.Background(), cursor())
	require.Error(t, err)
	assert.Equal(t, StateFailed, out.State)
	assert.Nil(t, f.presenter.presented)
	assert.NotContains(t, out.States, StatePresented)
}

func TestRun_PresenterError(t *testing.T) {
	f := newFixture(t)
	f.presenter.err = errors.New("terminal closed")
	r := f.renamer(t)

	out, err := r.Run(context.Background(), cursor())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal closed")
	assert.Equal(t, StateFailed, out.State)
}

func TestRun_RecordsStageSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	f := newFixture(t)
	f.presenter.choose = 1
	r := f.renamer(t, WithTracerProvider(tp), WithMaxConcurrency(1))

	_, err := r.Run(context.Background(), cursor())
	require.NoError(t, err)

	var names []string
	for _, s := range exporter.GetSpans() {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{
		"rename.ResolveScopes",
		"rename.ExtractContents",
		"rename.BuildPrompt",
		"rename.RequestSuggestions",
		"rename.Present",
		"rename.Apply",
	}, names)
}

func TestSuggest_FailedSpanRecordsError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	f := newFixture(t)
	f.suggester.err = errors.New("boom")
	r := f.renamer(t, WithTracerProvider(tp))

	_, err := r.Suggest(context.Background(), cursor())
	require.Error(t, err)

	var found bool
	for _, s := range exporter.GetSpans() {
		if s.Name == "rename.RequestSuggestions" {
			found = true
			assert.Equal(t, "Error", s.Status.Code.String())
		}
	}
	assert.True(t, found)
}
