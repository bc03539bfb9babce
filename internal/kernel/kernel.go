package kernel

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/spork/internal/program"
	"github.com/roach88/spork/internal/store"
)

// ScreenSize is the number of entries Screen returns.
const ScreenSize = 10

// Kernel runs programs and reads the screen.
type Kernel struct {
	store  *store.Store
	clock  Clock
	tokens TokenGenerator
	logger *slog.Logger
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithClock overrides the wall clock (for testing).
func WithClock(c Clock) Option {
	return func(k *Kernel) { k.clock = c }
}

// WithTokens overrides the process token generator (for testing).
func WithTokens(g TokenGenerator) Option {
	return func(k *Kernel) { k.tokens = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(k *Kernel) { k.logger = l }
}

// New creates a kernel on an open store.
func New(st *store.Store, opts ...Option) *Kernel {
	k := &Kernel{
		store:  st,
		clock:  SystemClock{},
		tokens: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Execute runs program name with the raw argument string args.
//
// All mutations of one invocation share a transaction: on failure no
// process, file, variable or screen row survives and the returned Result
// carries the error message. Database failures report SQLite's own text.
func (k *Kernel) Execute(ctx context.Context, sess Session, name, args string) Result {
	log := k.logger.With("program", name, "user", sess.UserID)
	log.Debug("running program", "args", args)

	var output *string
	err := k.store.WithTx(ctx, func(tx *store.Tx) error {
		token := k.tokens.Generate()
		pid, err := tx.InsertProcess(ctx, store.NewProcess{
			Token:       token,
			ProgramName: name,
			UserID:      sess.UserID,
			Args:        args,
			StartedAt:   k.clock.Now(),
		})
		if err != nil {
			return err
		}
		log = log.With("pid", pid, "token", token)

		prog, err := tx.Program(ctx, name)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{Name: name}
		}
		if err != nil {
			return fmt.Errorf("lookup program: %w", err)
		}
		kind := program.Resolve(prog.Name)

		output, err = runStatement(ctx, tx, prog.SQL, args)
		if err != nil {
			return err
		}

		if err := k.applyEffect(ctx, tx, sess, kind, args); err != nil {
			return err
		}

		now := k.clock.Now()
		if err := tx.CompleteProcess(ctx, pid, output, now); err != nil {
			return err
		}
		if _, err := tx.AppendScreen(ctx, sess.UserID, output, now); err != nil {
			return err
		}

		log.Debug("committing transaction", "kind", kind)
		return nil
	})
	if err != nil {
		log.Warn("program failed", "error", err)
		return FailureResult(store.DriverError(err))
	}

	log.Info("program completed")
	if output == nil {
		return ExecutedResult()
	}
	return OutputResult(*output)
}

// applyEffect performs the built-in side effect of kind, if any.
func (k *Kernel) applyEffect(ctx context.Context, tx *store.Tx, sess Session, kind program.Kind, args string) error {
	effect, ok := program.Plan(kind, args)
	if !ok {
		return nil
	}

	switch effect.Kind {
	case program.MakeDirectory:
		return tx.MakeDirectory(ctx, effect.Name, store.RootDirectoryID, sess.UserID)
	case program.WriteFile:
		return tx.WriteFile(ctx, effect.Name, effect.Value, store.RootDirectoryID, sess.UserID)
	case program.SetVariable:
		return tx.SetVariable(ctx, sess.UserID, effect.Name, effect.Value, k.clock.Now())
	case program.Generic:
		return nil
	default:
		return fmt.Errorf("unhandled program kind %v", effect.Kind)
	}
}

// runStatement executes a stored statement and returns its "output"
// column from the first row. No row, no such column, or NULL all mean
// no output.
func runStatement(ctx context.Context, tx *store.Tx, statement, args string) (*string, error) {
	if err := program.SingleStatement(statement); err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, program.Bind(statement, args)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, rows.Err()
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	for i, col := range columns {
		if strings.EqualFold(col, "output") {
			return stringify(values[i]), nil
		}
	}
	return nil, nil
}

// stringify renders a SQLite column value as text. NULL is nil.
func stringify(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = val
	case []byte:
		s = string(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		s = strconv.FormatBool(val)
	case time.Time:
		s = val.UTC().Format(store.TimeLayout)
	default:
		s = fmt.Sprint(val)
	}
	return &s
}

// Screen returns the newest ScreenSize entries of the session's screen,
// newest first, each payload decoded from JSON.
func (k *Kernel) Screen(ctx context.Context, sess Session) Result {
	entries, err := k.store.Screen(ctx, sess.UserID, ScreenSize)
	if err != nil {
		k.logger.Error("read screen failed", "user", sess.UserID, "error", err)
		return FailureResult(err)
	}

	decoded := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		var payload map[string]any
		if err := json.Unmarshal([]byte(e.Content), &payload); err != nil {
			return FailureResult(fmt.Errorf("decode screen entry %d: %w", e.ID, err))
		}
		decoded = append(decoded, payload)
	}
	return ScreenResult(decoded)
}

// Processes returns the session's most recent processes, newest first.
func (k *Kernel) Processes(ctx context.Context, sess Session, limit int) ([]store.Process, error) {
	return k.store.Processes(ctx, sess.UserID, limit)
}

// Programs returns every installed program.
func (k *Kernel) Programs(ctx context.Context) ([]store.Program, error) {
	return k.store.Programs(ctx)
}

// InstallReport lists the outcome of Install.
type InstallReport struct {
	Installed []string `json:"installed" yaml:"installed"`
	Skipped   []string `json:"skipped" yaml:"skipped"`
}

// Install adds programs in one transaction. Programs whose name already
// exists are skipped, never replaced.
func (k *Kernel) Install(ctx context.Context, programs []store.Program) (InstallReport, error) {
	var report InstallReport
	err := k.store.WithTx(ctx, func(tx *store.Tx) error {
		installed, skipped, err := tx.InstallPrograms(ctx, programs)
		if err != nil {
			return err
		}
		report.Installed = installed
		report.Skipped = skipped
		return nil
	})
	if err != nil {
		return InstallReport{}, err
	}
	if report.Installed == nil {
		report.Installed = []string{}
	}
	if report.Skipped == nil {
		report.Skipped = []string{}
	}
	k.logger.Info("programs installed", "installed", len(report.Installed), "skipped", len(report.Skipped))
	return report, nil
}
