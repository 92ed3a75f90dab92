package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/cvmap/cmd/cvmap/cmd/build"
	"github.com/agentstation/cvmap/cmd/cvmap/cmd/inspect"
	"github.com/agentstation/cvmap/cmd/cvmap/cmd/list"
	"github.com/agentstation/cvmap/cmd/cvmap/cmd/man"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(build.NewCommand(a))
	rootCmd.AddCommand(inspect.NewCommand(a))
	rootCmd.AddCommand(list.NewCommand(a))
	rootCmd.AddCommand(man.NewCommand())

	rootCmd.AddCommand(a.NewVersionCommand())
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cvmap %s\n  commit:   %s\n  built:    %s\n  built by: %s\n",
				a.version, a.commit, a.date, a.builtBy)
			return err
		},
	}
}
