package types

// LSP symbol kinds that denote callable bodies.
// See: https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#symbolKind
const (
	SymbolKindMethod   = 6
	SymbolKindFunction = 12
)

// Before reports whether p comes strictly before other
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// Contains reports whether pos lies within the range, inclusive of both ends
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && !r.End.Before(pos)
}

// ContainsRange reports whether other lies entirely within the range
func (r Range) ContainsRange(other Range) bool {
	return r.Contains(other.Start) && r.Contains(other.End)
}

// IsEmpty reports whether the range spans no characters
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsCallable reports whether the symbol is a function or a method
func (s DocumentSymbol) IsCallable() bool {
	return s.Kind == SymbolKindFunction || s.Kind == SymbolKindMethod
}
