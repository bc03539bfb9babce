package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/spork/internal/kernel"
	"github.com/roach88/spork/internal/testutil"
)

// execute runs the root command with a deterministic kernel and returns
// what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	opts := &RootOptions{
		KernelOptions: []kernel.Option{
			kernel.WithClock(testutil.NewClock()),
			kernel.WithTokens(testutil.NewSequenceTokens("cli")),
		},
	}
	cmd := newRootCommand(opts)

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// mustExecute is execute that fails the test on error.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := execute(t, args...)
	if err != nil {
		t.Fatalf("spork %v failed: %v\nstderr:\n%s", args, err, errOut)
	}
	return out
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "spork.db")
}

func assertGolden(t *testing.T, name, actual string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(actual))
}
