package results

import "github.com/jedgentry/llm-rename/pkg/types"

// SymbolLocation is a position in a workspace file.
// Unlike types.Location, it holds a relative file path (not a URI) and is
// 1-indexed (not 0-indexed).
type SymbolLocation struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Character int    `json:"character"`
}

// NewSymbolLocation converts an LSP position in file to display coordinates
func NewSymbolLocation(file string, pos types.Position) SymbolLocation {
	return SymbolLocation{
		File:      file,
		Line:      pos.Line + 1,
		Character: pos.Character + 1,
	}
}

// Position converts the location back to a 0-indexed LSP position
func (sl SymbolLocation) Position() types.Position {
	return types.Position{Line: sl.Line - 1, Character: sl.Character - 1}
}

// ToAnchor creates a SymbolAnchor for this location
func (sl SymbolLocation) ToAnchor() SymbolAnchor {
	return NewSymbolAnchor(sl.File, sl.Line, sl.Character)
}
