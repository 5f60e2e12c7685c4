package results

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedgentry/llm-rename/pkg/types"
)

const anchorPrefix = "go://"

// SymbolAnchor encodes the position of a symbol as go://FILE#LINE:CHAR,
// where LINE and CHAR are 1-indexed display coordinates
type SymbolAnchor string

// NewSymbolAnchor creates an anchor from a file and display coordinates
func NewSymbolAnchor(file string, displayLine int, displayChar int) SymbolAnchor {
	return SymbolAnchor(fmt.Sprintf("%s%s#%d:%d", anchorPrefix, file, displayLine, displayChar))
}

func (a SymbolAnchor) String() string {
	return string(a)
}

// IsValid reports whether the anchor can be parsed
func (a SymbolAnchor) IsValid() bool {
	_, err := a.ToSymbolLocation()
	return err == nil
}

// ToSymbolLocation parses the anchor into display coordinates
func (a SymbolAnchor) ToSymbolLocation() (SymbolLocation, error) {
	rest, ok := strings.CutPrefix(string(a), anchorPrefix)
	if !ok {
		return SymbolLocation{}, fmt.Errorf("invalid anchor scheme, expected '%s', got: %s", anchorPrefix, a)
	}

	// File names may contain '#', coordinates never do
	sep := strings.LastIndex(rest, "#")
	if sep < 0 {
		return SymbolLocation{}, fmt.Errorf("invalid anchor format, expected 'go://FILE#LINE:CHAR', got: %s", a)
	}
	file, coords := rest[:sep], rest[sep+1:]
	if file == "" {
		return SymbolLocation{}, fmt.Errorf("empty file in anchor: %s", a)
	}

	lineStr, charStr, ok := strings.Cut(coords, ":")
	if !ok {
		return SymbolLocation{}, fmt.Errorf("invalid coordinate format, expected 'LINE:CHAR', got: %s", coords)
	}

	line, err := parseDisplayCoordinate("line", lineStr)
	if err != nil {
		return SymbolLocation{}, err
	}
	char, err := parseDisplayCoordinate("character", charStr)
	if err != nil {
		return SymbolLocation{}, err
	}

	return SymbolLocation{File: file, Line: line, Character: char}, nil
}

func parseDisplayCoordinate(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number '%s': %w", name, value, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("display %s must be positive (starts at 1): %d", name, n)
	}
	return n, nil
}

// ToFilePosition parses the anchor into a file and a 0-indexed LSP position
func (a SymbolAnchor) ToFilePosition() (string, types.Position, error) {
	loc, err := a.ToSymbolLocation()
	if err != nil {
		return "", types.Position{}, err
	}
	return loc.File, loc.Position(), nil
}
