package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jedgentry/llm-rename/internal/present"
	"github.com/jedgentry/llm-rename/internal/rename"
)

var (
	pickFlag       int
	workspaceFlag  bool
	accessibleFlag bool
)

var renameCmd = &cobra.Command{
	Use:   "rename FILE:LINE:COL",
	Short: "Suggest names for a symbol and apply the chosen one",
	Long: `Collects context for the symbol at FILE:LINE:COL, asks the suggestion service
for up to 5 names and lets you pick one. The chosen name replaces the word at
the cursor, or every use of the symbol with --workspace.`,
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

		var presenter rename.Presenter
		if cmd.Flags().Changed("pick") {
			presenter = present.NewFixed(pickFlag, env.documents, cmd.ErrOrStderr())
		} else {
			presenter = present.NewInteractive(env.documents, cmd.ErrOrStderr(), accessibleFlag)
		}

		var editor rename.Editor = env.documents
		if workspaceFlag {
			editor = env.editor
		}

		renamer, err := env.newRenamer(presenter, editor)
		if err != nil {
			return err
		}

		out, err := renamer.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		if out.Applied {
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", out.Collected.Symbol, out.Selection)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Kept %s\n", out.Collected.Symbol)
		}
		return nil
	},
}

func init() {
	renameCmd.Flags().IntVar(&pickFlag, "pick", 0, "choose the N-th suggestion without prompting (0 chooses none)")
	renameCmd.Flags().BoolVar(&workspaceFlag, "workspace", false, "rename every use through the language server")
	renameCmd.Flags().BoolVar(&accessibleFlag, "accessible", false, "use plain prompts instead of the interactive menu")
	rootCmd.AddCommand(renameCmd)
}
