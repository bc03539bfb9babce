package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/spork/internal/store"
)

// PsOptions holds flags for the ps command.
type PsOptions struct {
	*RootOptions
	Limit int
}

// processList renders processes as a table in text format.
type processList []store.Process

func (l processList) Text() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PID\tPROGRAM\tSTATUS\tSTARTED\tARGS")
	for _, p := range l {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.ProgramName, p.Status, p.StartedAt.Format(store.TimeLayout), p.Args)
	}
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// NewPsCommand creates the ps command.
func NewPsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ps",
		Short: "List recent processes",
		Long: `List the current user's most recent processes, newest first.

Only completed processes are ever visible: a failed run leaves no process row.

Example:
  spork ps
  spork ps --limit 0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listProcesses(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "maximum processes to show (0 for all)")

	return cmd
}

func listProcesses(opts *PsOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("invalid --limit %d: must not be negative", opts.Limit))
	}

	env, err := openEnvironment(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer env.Close()

	procs, err := env.kernel.Processes(commandContext(cmd), env.session, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list processes", err)
	}
	return env.out.Print(processList(procs))
}
