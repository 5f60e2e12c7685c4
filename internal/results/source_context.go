package results

import "strings"

// SourceContext is a numbered excerpt of source code
type SourceContext struct {
	Lines []SourceLine `json:"lines"`
}

// SourceLine is one line of an excerpt
type SourceLine struct {
	Number    int    `json:"number"`
	Content   string `json:"content"`
	Highlight bool   `json:"highlight"`
}

// NewSourceContext numbers the lines of text starting at display line first,
// highlighting display line highlight
func NewSourceContext(text string, first int, highlight int) *SourceContext {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	ctx := &SourceContext{Lines: make([]SourceLine, 0, len(lines))}
	for i, content := range lines {
		number := first + i
		ctx.Lines = append(ctx.Lines, SourceLine{
			Number:    number,
			Content:   content,
			Highlight: number == highlight,
		})
	}
	return ctx
}
