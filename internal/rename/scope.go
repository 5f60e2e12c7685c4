package rename

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/jedgentry/llm-rename/pkg/types"
)

// Scope is the function or method enclosing a symbol location
type Scope struct {
	Symbol types.DocumentSymbol `json:"symbol"`
	// Location spans the whole scope in the document it was resolved from
	Location types.Location `json:"location"`
}

// FindEnclosing returns the innermost function or method whose range
// contains pos. Descendants are searched before their parent.
func FindEnclosing(symbols []types.DocumentSymbol, pos types.Position) (types.DocumentSymbol, bool) {
	for _, symbol := range symbols {
		if !symbol.Range.Contains(pos) {
			continue
		}
		if inner, ok := FindEnclosing(symbol.Children, pos); ok {
			return inner, true
		}
		if symbol.IsCallable() {
			return symbol, true
		}
	}
	return types.DocumentSymbol{}, false
}

// ScopeResolver finds enclosing scopes using the oracle's symbol tree
type ScopeResolver struct {
	oracle         Oracle
	docs           types.DocumentStore
	logger         *slog.Logger
	maxConcurrency int
}

// NewScopeResolver creates a resolver. maxConcurrency <= 0 means unbounded.
func NewScopeResolver(oracle Oracle, docs types.DocumentStore, logger *slog.Logger, maxConcurrency int) *ScopeResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeResolver{
		oracle:         oracle,
		docs:           docs,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// ResolveEnclosing returns the innermost function or method containing the
// start of loc. A missing scope is reported with ok=false, not an error.
func (r *ScopeResolver) ResolveEnclosing(ctx context.Context, loc types.Location) (Scope, bool, error) {
	if _, err := r.docs.Open(ctx, loc.URI); err != nil {
		return Scope{}, false, fmt.Errorf("failed to open document: %w", err)
	}

	symbols, err := r.oracle.GetDocumentSymbols(ctx, loc.URI)
	if err != nil {
		return Scope{}, false, fmt.Errorf("failed to get document symbols: %w", err)
	}
	if len(symbols) == 0 {
		return Scope{}, false, nil
	}

	symbol, ok := FindEnclosing(symbols, loc.Range.Start)
	if !ok {
		return Scope{}, false, nil
	}

	return Scope{
		Symbol:   symbol,
		Location: types.Location{URI: loc.URI, Range: symbol.Range},
	}, true, nil
}

// ResolveAll resolves every location concurrently. The result keeps input
// order with absent scopes dropped. Resolution failures are logged and
// treated as absent; only cancellation of ctx is returned as an error.
func (r *ScopeResolver) ResolveAll(ctx context.Context, locs []types.Location) ([]Scope, error) {
	slots := make([]*Scope, len(locs))

	var g errgroup.Group
	if r.maxConcurrency > 0 {
		g.SetLimit(r.maxConcurrency)
	}

	for i, loc := range locs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			scope, ok, err := r.ResolveEnclosing(ctx, loc)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Warn("Failed to resolve enclosing scope",
					"uri", loc.URI,
					"line", loc.Range.Start.Line,
					"character", loc.Range.Start.Character,
					"error", err)
				return nil
			}
			if !ok {
				r.logger.Debug("No enclosing function or method",
					"uri", loc.URI,
					"line", loc.Range.Start.Line,
					"character", loc.Range.Start.Character)
				return nil
			}
			slots[i] = &scope
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	scopes := make([]Scope, 0, len(locs))
	for _, scope := range slots {
		if scope != nil {
			scopes = append(scopes, *scope)
		}
	}
	return scopes, nil
}
