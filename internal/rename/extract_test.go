package rename

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedgentry/llm-rename/internal/document"
	"github.com/jedgentry/llm-rename/pkg/types"
)

func TestContentExtractor_PreservesOrder(t *testing.T) {
	store := newMemStore(t, map[string]string{
		"/work/a.go": "package a\n\nfunc A() {}\n",
		"/work/b.go": "package b\n\nfunc B() {\n\treturn\n}\n",
		"/work/c.go": "package c\n\nfunc C() {}\n",
	})
	extractor := NewContentExtractor(store, 2)

	locs := []types.Location{
		{URI: "file:///work/c.go", Range: rangeOf(2, 0, 2, 11)},
		{URI: "file:///work/a.go", Range: rangeOf(2, 0, 2, 11)},
		{URI: "file:///work/b.go", Range: rangeOf(2, 0, 4, 1)},
		{URI: "file:///work/a.go", Range: rangeOf(0, 0, 0, 9)},
	}

	contents, err := extractor.ExtractContents(context.Background(), locs)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"func C() {}",
		"func A() {}",
		"func B() {\n\treturn\n}",
		"package a",
	}, contents)
}

func TestContentExtractor_Empty(t *testing.T) {
	extractor := NewContentExtractor(newMemStore(t, nil), 0)

	contents, err := extractor.ExtractContents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestContentExtractor_MissingDocument(t *testing.T) {
	extractor := NewContentExtractor(newMemStore(t, nil), 0)

	_, err := extractor.ExtractContents(context.Background(), []types.Location{
		{URI: "file:///work/missing.go", Range: rangeOf(0, 0, 0, 1)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrNotFound)
}
