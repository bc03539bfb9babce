package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/spork/internal/kernel"
	"github.com/roach88/spork/internal/manifest"
	"github.com/roach88/spork/internal/store"
	"github.com/roach88/spork/internal/testutil"
)

// DefaultTokenPrefix prefixes process tokens when a scenario sets none.
const DefaultTokenPrefix = "test"

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and process tokens.
type Harness struct {
	kernel *kernel.Kernel
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create a fresh in-memory database from the built-in schema
// 2. Install programs from the scenario's manifests
// 3. Execute setup runs, each of which must succeed
// 4. Execute flow runs and check their expect clauses
// 5. Evaluate assertions against the trace and the database
//
// An error is returned only when the scenario cannot be executed; failed
// expectations and assertions are reported in the Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(ctx, ":memory:", store.DefaultSchema())
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	prefix := scenario.TokenPrefix
	if prefix == "" {
		prefix = DefaultTokenPrefix
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	h := &Harness{
		kernel: kernel.New(st,
			kernel.WithClock(testutil.NewClock()),
			kernel.WithTokens(testutil.NewSequenceTokens(prefix)),
			kernel.WithLogger(logger),
		),
		logger: logger,
	}

	if err := h.installManifests(ctx, scenario.Manifests); err != nil {
		return nil, err
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	h.executeFlow(ctx, scenario.Flow, result)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) installManifests(ctx context.Context, dirs []string) error {
	for _, dir := range dirs {
		programs, err := manifest.Load(dir)
		if err != nil {
			return fmt.Errorf("failed to load manifests from %s: %w", dir, err)
		}
		report, err := h.kernel.Install(ctx, programs)
		if err != nil {
			return fmt.Errorf("failed to install programs from %s: %w", dir, err)
		}
		h.logger.Info("manifests installed", "dir", dir, "installed", report.Installed, "skipped", report.Skipped)
	}
	return nil
}

// run executes one step and records it in the trace.
func (h *Harness) run(ctx context.Context, phase string, step RunStep, result *Result) kernel.Result {
	sess := kernel.DefaultSession()
	if step.User != 0 {
		sess.UserID = step.User
	}

	res := h.kernel.Execute(ctx, sess, step.Run, step.Args)
	result.AddTrace(TraceEvent{
		Phase:   phase,
		Program: step.Run,
		Args:    step.Args,
		User:    sess.UserID,
		Result:  res.Fields(),
	})
	return res
}

// executeSetup runs all setup steps. A failing setup run aborts the
// scenario.
func (h *Harness) executeSetup(ctx context.Context, setup []RunStep, result *Result) error {
	for i, step := range setup {
		res := h.run(ctx, PhaseSetup, step, result)
		if !res.Success() {
			return fmt.Errorf("setup[%d] %s: %s", i, step.Run, res.Err())
		}
		h.logger.Info("setup step completed", "step", i, "program", step.Run)
	}
	return nil
}

// executeFlow runs all flow steps and checks their expect clauses.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) {
	for i, step := range flow {
		res := h.run(ctx, PhaseFlow, step.RunStep, result)
		if step.Expect != nil {
			for _, msg := range checkExpect(step.Expect, res) {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Run, msg))
			}
		}
		h.logger.Info("flow step completed", "step", i, "program", step.Run, "success", res.Success())
	}
}

// checkExpect compares a run result against an expect clause and returns
// one message per mismatch.
func checkExpect(e *ExpectClause, res kernel.Result) []string {
	var msgs []string

	wantSuccess := e.Success
	if wantSuccess == nil {
		switch {
		case e.Output != nil:
			t := true
			wantSuccess = &t
		case e.Error != "":
			f := false
			wantSuccess = &f
		}
	}
	if wantSuccess != nil && *wantSuccess != res.Success() {
		msgs = append(msgs, fmt.Sprintf("expected success=%v, got success=%v (error: %q)", *wantSuccess, res.Success(), res.Err()))
		return msgs
	}

	if e.Output != nil {
		out, ok := res.Output()
		if !ok {
			msgs = append(msgs, fmt.Sprintf("expected output %q, got no output", *e.Output))
		} else if out != *e.Output {
			msgs = append(msgs, fmt.Sprintf("expected output %q, got %q", *e.Output, out))
		}
	}

	if e.Error != "" && !strings.Contains(res.Err(), e.Error) {
		msgs = append(msgs, fmt.Sprintf("expected error containing %q, got %q", e.Error, res.Err()))
	}

	return msgs
}
