package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/spork/internal/kernel"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "yaml" | "text"
	Database   string
	Schema     string
	ConfigPath string
	User       int64

	// KernelOptions are passed to kernel.New (for testing).
	KernelOptions []kernel.Option
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"json", "yaml", "text"}

// NewRootCommand creates the root command for the SPORK CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spork",
		Short: "SPORK - an operating system in a database",
		Long: `SPORK keeps every piece of machine state in one SQLite database:
programs, processes, files, variables and the screen.

A program is a stored SQL statement. Running it inserts a process, executes
the statement with the argument string bound to every placeholder, and
appends its output to the screen, all in one transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitFailure, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return NewExitError(ExitFailure, "no command given")
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config, then spork.db)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "schema file for a new database (default: built-in schema)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: ./spork.yaml if present)")
	cmd.PersistentFlags().Int64Var(&opts.User, "user", 0, "user id to run as (default from config, then 1)")

	// Add subcommands
	cmd.AddCommand(NewBootCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewScreenCommand(opts))
	cmd.AddCommand(NewPsCommand(opts))
	cmd.AddCommand(NewProgramsCommand(opts))
	cmd.AddCommand(NewInstallCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
