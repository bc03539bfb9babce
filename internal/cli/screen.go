package cli

import (
	"github.com/spf13/cobra"
)

// NewScreenCommand creates the screen command.
func NewScreenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "screen",
		Short: "Show the last 10 screen entries",
		Long: `Show the 10 most recent screen entries of the current user, newest first.

Example:
  spork screen
  spork --format text screen`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			return env.out.Print(env.kernel.Screen(commandContext(cmd), env.session))
		},
	}
}
