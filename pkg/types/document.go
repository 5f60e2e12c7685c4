package types

import "context"

// Document is a read-only snapshot of a text document
type Document interface {
	URI() string
	Text() string
	LineCount() int
	GetText(r Range) string
	GetWordRangeAt(pos Position) (Range, bool)
}

// DocumentStore opens documents by URI. Every call to Open reads the
// current contents; documents are owned by the editor, not cached here.
type DocumentStore interface {
	Open(ctx context.Context, uri string) (Document, error)
	Replace(ctx context.Context, uri string, r Range, text string) error
}
