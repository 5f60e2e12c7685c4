package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/jedgentry/llm-rename/pkg/types"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

var _ types.DocumentStore = &Store{}

// Store opens documents from a filesystem. Nothing is cached: each Open
// returns the contents as they are at call time.
type Store struct {
	fs afero.Fs
}

// NewStore creates a store over fs. A nil fs selects the OS filesystem.
func NewStore(fs afero.Fs) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs}
}

// Open reads the document identified by uri
func (s *Store) Open(ctx context.Context, uri string) (types.Document, error) {
	return s.open(ctx, uri)
}

func (s *Store) open(ctx context.Context, uri string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := UriToPath(uri)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return nil, fmt.Errorf("failed to read document %s: %w", uri, err)
	}

	slog.Debug("Opened document", "uri", uri, "bytes", len(data))
	return New(uri, string(data)), nil
}

// Replace rewrites the text spanned by r in the document at uri
func (s *Store) Replace(ctx context.Context, uri string, r types.Range, text string) error {
	doc, err := s.open(ctx, uri)
	if err != nil {
		return err
	}

	start, end := doc.Offset(r.Start), doc.Offset(r.End)
	if end < start {
		start, end = end, start
	}
	updated := doc.Text()[:start] + text + doc.Text()[end:]

	path := UriToPath(uri)
	perm := os.FileMode(0o644)
	if info, err := s.fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if err := afero.WriteFile(s.fs, path, []byte(updated), perm); err != nil {
		return fmt.Errorf("failed to write document %s: %w", uri, err)
	}

	slog.Debug("Replaced document range",
		"uri", uri,
		"start_line", r.Start.Line,
		"start_character", r.Start.Character,
		"end_line", r.End.Line,
		"end_character", r.End.Character,
		"new_text", text)
	return nil
}
