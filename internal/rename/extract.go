package rename

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jedgentry/llm-rename/pkg/types"
)

// ContentExtractor reads the source text spanned by locations
type ContentExtractor struct {
	docs           types.DocumentStore
	maxConcurrency int
}

// NewContentExtractor creates an extractor. maxConcurrency <= 0 means unbounded.
func NewContentExtractor(docs types.DocumentStore, maxConcurrency int) *ContentExtractor {
	return &ContentExtractor{docs: docs, maxConcurrency: maxConcurrency}
}

// ExtractContents returns the text of each location, in input order.
// Documents are read at call time.
func (e *ContentExtractor) ExtractContents(ctx context.Context, locs []types.Location) ([]string, error) {
	contents := make([]string, len(locs))

	g, ctx := errgroup.WithContext(ctx)
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}

	for i, loc := range locs {
		g.Go(func() error {
			doc, err := e.docs.Open(ctx, loc.URI)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", loc.URI, err)
			}
			contents[i] = doc.GetText(loc.Range)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}
