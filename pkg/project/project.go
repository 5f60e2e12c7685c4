package project

// Name and Version identify this program to LSP servers and MCP clients
const (
	Name    = "llm-rename"
	Version = "0.1.0"
)
