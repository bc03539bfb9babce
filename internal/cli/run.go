package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <program> [args...]",
		Short: "Run a program",
		Long: `Run a stored program.

All arguments after the program name are joined with single spaces into one
argument string, which is bound to every placeholder of the program's
statement. Flag parsing stops at the program name, so arguments may start
with a dash.

The result is printed as JSON. A failing program is reported in the result
and still exits 0.

Example:
  spork run echo hello world
  spork run write notes.txt buy milk
  spork run set PATH /bin`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return NewExitError(ExitFailure, "usage: spork run <program> [args...]")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(rootOpts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}

	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runProgram(opts *RootOptions, name, args string, cmd *cobra.Command) error {
	env, err := openEnvironment(cmd, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	result := env.kernel.Execute(commandContext(cmd), env.session, name, args)
	return env.out.Print(result)
}
