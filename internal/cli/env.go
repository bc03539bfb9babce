package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/spork/internal/config"
	"github.com/roach88/spork/internal/kernel"
	"github.com/roach88/spork/internal/logging"
	"github.com/roach88/spork/internal/store"
)

// environment is everything a command needs once the store is open.
type environment struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *store.Store
	kernel  *kernel.Kernel
	session kernel.Session
	out     *OutputFormatter
	logFile io.Closer
}

// resolveConfig loads the config file and applies command-line overrides.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	path, optional := opts.ConfigPath, false
	if path == "" {
		path, optional = config.DefaultPath, true
	}

	cfg, err := config.Load(path, optional)
	if err != nil {
		return config.Config{}, err
	}

	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Schema != "" {
		cfg.Schema = opts.Schema
	}
	if opts.User != 0 {
		cfg.User = opts.User
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openEnvironment resolves configuration, builds the logger and opens the
// store, seeding it if needed. Every failure here is a startup failure.
func openEnvironment(cmd *cobra.Command, opts *RootOptions) (*environment, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "invalid configuration", err)
	}

	logger, logFile, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:   cfg.LogLevel,
		Verbose: opts.Verbose,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to configure logging", err)
	}

	schema := store.DefaultSchema()
	if cfg.Schema != "" {
		schema = store.SchemaFile(cfg.Schema)
	}

	logger.Debug("opening database", "path", cfg.Database, "schema", schema.Name())
	st, err := store.Open(commandContext(cmd), cfg.Database, schema)
	if err != nil {
		logFile.Close()
		return nil, WrapExitError(ExitFailure, "failed to open database", err)
	}
	if st.Created() {
		logger.Info("created database", "path", cfg.Database, "schema", schema.Name())
	} else {
		logger.Debug("using existing database", "path", cfg.Database)
	}

	kopts := append([]kernel.Option{kernel.WithLogger(logger)}, opts.KernelOptions...)
	return &environment{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		kernel:  kernel.New(st, kopts...),
		session: kernel.Session{UserID: cfg.User},
		out:     &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
		logFile: logFile,
	}, nil
}

// Close releases the store and the log file.
func (e *environment) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing database", "error", err)
	}
	_ = e.logFile.Close()
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
