package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/spork/internal/kernel"
	"github.com/roach88/spork/internal/manifest"
)

// installReport renders kernel.InstallReport in text format.
type installReport kernel.InstallReport

func (r installReport) Text() string {
	var lines []string
	if len(r.Installed) > 0 {
		lines = append(lines, "installed: "+strings.Join(r.Installed, ", "))
	}
	if len(r.Skipped) > 0 {
		lines = append(lines, "skipped (already installed): "+strings.Join(r.Skipped, ", "))
	}
	return strings.Join(lines, "\n")
}

// NewInstallCommand creates the install command.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install <manifest-dir>",
		Short: "Install programs from CUE manifests",
		Long: `Install the programs declared in every .cue file of a directory.

Manifests declare programs under the "program" field:

  program: greet: {
      sql:         "SELECT 'hello, ' || ? AS output"
      description: "greet someone"
  }

All programs are installed in one transaction. Programs that already exist
are skipped, never replaced.

Example:
  spork install ./programs`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return installPrograms(rootOpts, args[0], cmd)
		},
	}
}

func installPrograms(opts *RootOptions, dir string, cmd *cobra.Command) error {
	programs, err := manifest.Load(dir)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load manifests", err)
	}

	env, err := openEnvironment(cmd, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	report, err := env.kernel.Install(commandContext(cmd), programs)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to install %d programs", len(programs)), err)
	}
	return env.out.Print(installReport(report))
}
