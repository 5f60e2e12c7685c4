package results

// SuggestSymbolNamesToolResult is the result of asking for rename suggestions
type SuggestSymbolNamesToolResult struct {
	Message      string                     `json:"message"`
	Arguments    SuggestSymbolNamesToolArgs `json:"arguments"`
	Symbol       string                     `json:"symbol"`
	Suggestions  []string                   `json:"suggestions"`
	ContextFiles []string                   `json:"context_files"`
	Scopes       []EnclosingScope           `json:"scopes,omitempty"`
	TokenCount   int                        `json:"token_count"`
}

// SuggestSymbolNamesToolArgs are the input arguments of the suggest tool
type SuggestSymbolNamesToolArgs struct {
	SymbolAnchor string `json:"symbol_anchor"`
}

// EnclosingScope is a function or method body sent as context
type EnclosingScope struct {
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Location SymbolLocation `json:"location"`
	Context  *SourceContext `json:"context"`
}
