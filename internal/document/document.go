package document

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jedgentry/llm-rename/pkg/types"
)

var _ types.Document = &Document{}

// Document is an immutable snapshot of a file's text.
// Positions use LSP coordinates: 0-indexed lines, UTF-16 columns.
type Document struct {
	uri        string
	text       string
	lineStarts []int
}

// New creates a document snapshot from text
func New(uri, text string) *Document {
	lineStarts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return &Document{
		uri:        uri,
		text:       text,
		lineStarts: lineStarts,
	}
}

func (d *Document) URI() string {
	return d.uri
}

func (d *Document) Text() string {
	return d.text
}

func (d *Document) LineCount() int {
	return len(d.lineStarts)
}

// line returns the content of a line without its line terminator
func (d *Document) line(n int) string {
	start := d.lineStarts[n]
	end := len(d.text)
	if n+1 < len(d.lineStarts) {
		end = d.lineStarts[n+1]
	}
	return strings.TrimRight(d.text[start:end], "\r\n")
}

// Offset converts a position to a byte offset, clamping out-of-range
// positions to the nearest valid one
func (d *Document) Offset(pos types.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lineStarts) {
		return len(d.text)
	}

	line := d.line(pos.Line)
	units := 0
	for i, r := range line {
		if units >= pos.Character {
			return d.lineStarts[pos.Line] + i
		}
		units += runeUnits(r)
	}
	return d.lineStarts[pos.Line] + len(line)
}

// PositionAt converts a byte offset back into a position
func (d *Document) PositionAt(offset int) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.text) {
		offset = len(d.text)
	}

	line := 0
	for line+1 < len(d.lineStarts) && d.lineStarts[line+1] <= offset {
		line++
	}

	prefix := d.text[d.lineStarts[line]:offset]
	prefix = strings.TrimRight(prefix, "\r\n")
	return types.Position{Line: line, Character: utf16Len(prefix)}
}

// GetText returns the exact text spanned by r
func (d *Document) GetText(r types.Range) string {
	start, end := d.Offset(r.Start), d.Offset(r.End)
	if end < start {
		start, end = end, start
	}
	return d.text[start:end]
}

// GetWordRangeAt returns the range of the identifier-like word touching pos.
// A position just after the last character of a word still selects it.
func (d *Document) GetWordRangeAt(pos types.Position) (types.Range, bool) {
	if pos.Line < 0 || pos.Line >= len(d.lineStarts) {
		return types.Range{}, false
	}

	line := d.line(pos.Line)
	lineStart := d.lineStarts[pos.Line]
	offset := d.Offset(pos) - lineStart

	start := offset
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if !isWordRune(r) {
			break
		}
		start -= size
	}

	end := offset
	for end < len(line) {
		r, size := utf8.DecodeRuneInString(line[end:])
		if !isWordRune(r) {
			break
		}
		end += size
	}

	if start == end {
		return types.Range{}, false
	}

	return types.Range{
		Start: types.Position{Line: pos.Line, Character: utf16Len(line[:start])},
		End:   types.Position{Line: pos.Line, Character: utf16Len(line[:end])},
	}, true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// runeUnits is the number of UTF-16 code units r occupies
func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}
