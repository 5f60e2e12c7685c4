package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jedgentry/llm-rename/pkg/project"
	"github.com/jedgentry/llm-rename/pkg/types"
)

const envPrefix = "LLM_RENAME"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   project.Name,
	Short: "Rename symbols with suggestions from a language model",
	Long: `llm-rename collects every reference and definition of a symbol through a
language server, gathers the bodies of the functions that use it, and asks a
language model for better names.

Examples:
  llm-rename prompt main.go:12:6        Print the prompt that would be sent
  llm-rename rename main.go:12:6        Pick a suggestion and rename the symbol
  llm-rename rename --pick 1 main.go:12:6
  llm-rename mcp                        Serve the tools over MCP on stdio

Configuration is read from flags, LLM_RENAME_* environment variables and
$HOME/.llm-rename.yaml, in that order of precedence.`,
	Version:       project.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		setupLogger(cfg.LogLevel)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.llm-rename.yaml)")
	registerFlags(flags)

	if err := bindFlags(viper.GetViper(), flags); err != nil {
		panic(err)
	}
}

// registerFlags declares the configuration flags
func registerFlags(flags *pflag.FlagSet) {
	flags.String("endpoint", "", "suggestion service URL (OpenAI-compatible)")
	flags.String("api-key", "", "suggestion service API key")
	flags.String("model", "gpt-4o-mini", "model used for suggestions")
	flags.String("workspace-root", ".", "root directory of the workspace")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Duration("request-timeout", 10*time.Second, "timeout for language server and suggestion requests")
	flags.Int("max-concurrency", 8, "maximum concurrent scope lookups")
	flags.Float64("rate-limit", 1, "maximum suggestion requests per second")
	flags.String("lsp-command", "gopls", "language server command")
	flags.StringSlice("lsp-args", []string{"serve"}, "language server arguments")
}

// bindFlags maps flags onto configuration keys
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"endpoint":        "endpoint",
		"api_key":         "api-key",
		"model":           "model",
		"workspace_root":  "workspace-root",
		"log_level":       "log-level",
		"request_timeout": "request-timeout",
		"max_concurrency": "max-concurrency",
		"rate_limit":      "rate-limit",
		"lsp.command":     "lsp-command",
		"lsp.args":        "lsp-args",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return nil
}

// initConfig reads in the config file if one exists
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".llm-rename")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("Using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Failed to read config file:", err)
		os.Exit(1)
	}
}

// loadConfig decodes and validates the configuration
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = "."
	}
	abs, err := filepath.Abs(cfg.WorkspaceRoot)
	if err != nil {
		return types.Config{}, fmt.Errorf("invalid workspace root %s: %w", cfg.WorkspaceRoot, err)
	}
	cfg.WorkspaceRoot = abs

	if cfg.MaxConcurrency < 0 {
		return types.Config{}, fmt.Errorf("max_concurrency must not be negative: %d", cfg.MaxConcurrency)
	}
	if cfg.RequestTimeout < 0 {
		return types.Config{}, fmt.Errorf("request_timeout must not be negative: %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

func parseLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger installs the default logger. Logs go to stderr so that
// stdout stays free for MCP messages and command output.
func setupLogger(levelStr string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(levelStr),
	})
	slog.SetDefault(slog.New(handler))
}
