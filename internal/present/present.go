package present

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/huh"

	"github.com/jedgentry/llm-rename/pkg/types"
)

// anchorLine returns the source line of anchor, or "" when it cannot be read
func anchorLine(ctx context.Context, docs types.DocumentStore, anchor types.Location) string {
	if docs == nil {
		return ""
	}
	doc, err := docs.Open(ctx, anchor.URI)
	if err != nil {
		slog.Debug("Failed to open anchor document", "uri", anchor.URI, "error", err)
		return ""
	}
	line := anchor.Range.Start.Line
	return doc.GetText(types.Range{
		Start: types.Position{Line: line, Character: 0},
		End:   types.Position{Line: line, Character: 1 << 30},
	})
}

// Interactive shows suggestions inline and asks the user to pick one
type Interactive struct {
	docs       types.DocumentStore
	out        io.Writer
	accessible bool
}

// NewInteractive creates a terminal presenter writing to out.
// Accessible mode replaces the TUI with plain prompts.
func NewInteractive(docs types.DocumentStore, out io.Writer, accessible bool) *Interactive {
	return &Interactive{docs: docs, out: out, accessible: accessible}
}

func (p *Interactive) Present(ctx context.Context, suggestions []string, anchor types.Location) (string, bool, error) {
	if len(suggestions) == 0 {
		fmt.Fprintln(p.out, "No suggestions returned")
		return "", false, nil
	}

	fmt.Fprintln(p.out, Decorate(anchorLine(ctx, p.docs, anchor), suggestions))

	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title(selectTitle).
			Options(huh.NewOptions(suggestions...)...).
			Value(&choice),
	)).WithAccessible(p.accessible).WithOutput(p.out)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to run selection: %w", err)
	}
	return choice, choice != "", nil
}

// Fixed picks a predetermined suggestion without user interaction
type Fixed struct {
	// Pick is the 1-based suggestion to choose; 0 chooses nothing
	Pick int
	docs types.DocumentStore
	out  io.Writer
}

// NewFixed creates a presenter that picks the pick-th suggestion. When out is
// not nil the decorated line is written to it.
func NewFixed(pick int, docs types.DocumentStore, out io.Writer) *Fixed {
	return &Fixed{Pick: pick, docs: docs, out: out}
}

func (p *Fixed) Present(ctx context.Context, suggestions []string, anchor types.Location) (string, bool, error) {
	if p.out != nil && len(suggestions) > 0 {
		fmt.Fprintln(p.out, Decorate(anchorLine(ctx, p.docs, anchor), suggestions))
	}
	if p.Pick <= 0 {
		return "", false, nil
	}
	if p.Pick > len(suggestions) {
		slog.Warn("Requested suggestion does not exist", "pick", p.Pick, "suggestions", len(suggestions))
		return "", false, nil
	}
	return suggestions[p.Pick-1], true, nil
}
