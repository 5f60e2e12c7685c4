package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var promptCmd = &cobra.Command{
	Use:   "prompt FILE:LINE:COL",
	Short: "Print the prompt that would be sent for a symbol",
	Long: `Collects the references, definitions and enclosing functions of the symbol
at FILE:LINE:COL and prints the assembled prompt with its token count. No
request is sent to the suggestion service.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		req, err := parseTarget(args[0], cfg.WorkspaceRoot)
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

		out, err := renamer.BuildPrompt(cmd.Context(), req)
		if err != nil {
			return err
		}

		c := out.Collected
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, c.Prompt)
		fmt.Fprintln(cmd.ErrOrStderr())
		fmt.Fprintf(cmd.ErrOrStderr(), "symbol: %s, files: %d, scopes: %d, tokens: %d\n",
			c.Symbol, len(c.Locations), len(c.Scopes), c.TokenCount)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
}
