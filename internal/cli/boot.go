package cli

import (
	"github.com/spf13/cobra"
)

// BootMessage is printed when the store is ready.
const BootMessage = "SPORK booted successfully"

// bootReport is the output of the boot command.
type bootReport struct {
	Success  bool   `json:"success" yaml:"success"`
	Message  string `json:"message" yaml:"message"`
	Database string `json:"database" yaml:"database"`
	Created  bool   `json:"created" yaml:"created"`
}

func (r bootReport) Text() string {
	return r.Message
}

// NewBootCommand creates the boot command.
func NewBootCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Create or open the SPORK database",
		Long: `Open the SPORK database, creating it from the schema if it does not exist.

An existing database is opened without modification.

Example:
  spork boot
  spork --db /tmp/spork.db --schema ./schema.sql boot`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return boot(rootOpts, cmd)
		},
	}
}

func boot(opts *RootOptions, cmd *cobra.Command) error {
	env, err := openEnvironment(cmd, opts)
	if err != nil {
		return err
	}
	defer env.Close()

	env.logger.Info("booted", "database", env.cfg.Database, "created", env.store.Created())
	return env.out.Print(bootReport{
		Success:  true,
		Message:  BootMessage,
		Database: env.cfg.Database,
		Created:  env.store.Created(),
	})
}
