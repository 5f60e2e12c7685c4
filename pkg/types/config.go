package types

import "time"

// Config represents the configuration for llm-rename
type Config struct {
	WorkspaceRoot  string        `mapstructure:"workspace_root" json:"workspace_root"`
	LogLevel       string        `mapstructure:"log_level" json:"log_level,omitempty"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout,omitempty"`
	MaxConcurrency int           `mapstructure:"max_concurrency" json:"max_concurrency,omitempty"`

	LSP LSPConfig `mapstructure:"lsp" json:"lsp"`
	LLM LLMConfig `mapstructure:",squash" json:"llm"`
}

// LSPConfig describes how to launch the language server
type LSPConfig struct {
	Command string   `mapstructure:"command" json:"command,omitempty"`
	Args    []string `mapstructure:"args" json:"args,omitempty"`
}

// LLMConfig describes the suggestion service. Endpoint and APIKey are
// optional; when either is missing the suggestion step is disabled.
type LLMConfig struct {
	Endpoint  string  `mapstructure:"endpoint" json:"endpoint,omitempty"`
	APIKey    string  `mapstructure:"api_key" json:"-"`
	Model     string  `mapstructure:"model" json:"model,omitempty"`
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit,omitempty"`
}

// Configured reports whether the suggestion service can be contacted
func (c LLMConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != ""
}
