package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jedgentry/llm-rename/internal/server"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve rename suggestions over MCP on stdio",
	Long: `Starts the language server for the workspace and serves the
suggest_symbol_names and rename_symbol_by_anchor tools over MCP on stdin and
stdout. Logs are written to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		env, err := startEnvironment(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer env.close()

		renamer, err := env.newRenamer(nil, nil)
		if err != nil {
			return err
		}

		srv := server.NewServer(&cfg, renamer, env.editor, env.documents)
		return srv.Serve(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
