package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/spork/internal/program"
	"github.com/roach88/spork/internal/store"
)

// programList renders installed programs as a table in text format.
type programList []store.Program

func (l programList) Text() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tARGS\tDESCRIPTION")
	for _, p := range l {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, program.Resolve(p.Name), program.Placeholders(p.SQL), p.Description)
	}
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// NewProgramsCommand creates the programs command.
func NewProgramsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "programs",
		Short: "List installed programs",
		Long: `List every installed program with its stored statement.

In text format the ARGS column is the number of placeholders, each of which
receives the same argument string.

Example:
  spork programs
  spork --format text programs`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()

			programs, err := env.kernel.Programs(commandContext(cmd))
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list programs", err)
			}
			return env.out.Print(programList(programs))
		},
	}
}
