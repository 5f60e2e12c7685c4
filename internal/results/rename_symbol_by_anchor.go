package results

// RenameSymbolByAnchorToolResult represents the result of renaming a symbol
type RenameSymbolByAnchorToolResult struct {
	Message   string                       `json:"message"`
	Arguments RenameSymbolByAnchorToolArgs `json:"arguments"`
	FileEdits []FileEdit                   `json:"file_edits,omitempty"`
	Applied   bool                         `json:"applied"`
}

// RenameSymbolByAnchorToolArgs represents the input arguments for the rename symbol tool
type RenameSymbolByAnchorToolArgs struct {
	SymbolAnchor string `json:"symbol_anchor"`
	NewName      string `json:"new_name"`
	Apply        bool   `json:"apply"`
}

// FileEdit represents edits to a single file
type FileEdit struct {
	File  string `json:"file"`
	Edits []Edit `json:"edits"`
}

// Edit is a single text edit in display coordinates
type Edit struct {
	Start   SymbolLocation `json:"start"`
	End     SymbolLocation `json:"end"`
	OldText string         `json:"old_text"`
	NewText string         `json:"new_text"`
}
