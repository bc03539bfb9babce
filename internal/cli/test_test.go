package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: echo_works
description: echo prints its arguments
flow:
  - run: echo
    args: hi
    expect:
      output: hi
`

const failingScenario = `name: echo_lies
description: an expectation that does not hold
flow:
  - run: echo
    args: hi
    expect:
      output: bye
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func decodeTestResult(t *testing.T, out string) TestResult {
	t.Helper()
	var result TestResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), "output: %s", out)
	return result
}

func TestTestCommand_Passing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "echo.yaml"), passingScenario)

	out := mustExecute(t, "test", dir)
	result := decodeTestResult(t, out)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "echo_works", result.Scenarios[0].Name)
	assert.True(t, result.Scenarios[0].Pass)
}

func TestTestCommand_FailingExitsOne(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pass.yaml"), passingScenario)
	writeFile(t, filepath.Join(dir, "fail.yaml"), failingScenario)

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 scenarios failed")

	result := decodeTestResult(t, out)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
}

func TestTestCommand_Text(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "fail.yaml"), failingScenario)

	out, _, err := execute(t, "--format", "text", "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ echo_lies")
	assert.Contains(t, out, `expected output "bye", got "hi"`)
	assert.Contains(t, out, "0 passed, 1 failed, 1 total")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "echo-ok.yaml"), passingScenario)
	writeFile(t, filepath.Join(dir, "other.yaml"), failingScenario)

	out := mustExecute(t, "test", dir, "--filter", "echo-*")
	result := decodeTestResult(t, out)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
}

func TestTestCommand_Empty(t *testing.T) {
	out := mustExecute(t, "--format", "text", "test", t.TempDir())
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), "name: bad\n")

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)

	result := decodeTestResult(t, out)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "bad.yaml", result.Scenarios[0].Name)
	assert.Contains(t, result.Scenarios[0].Errors[0], "failed to load scenario")
}

func TestTestCommand_GoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "echo.yaml")
	writeFile(t, scenarioPath, passingScenario)

	mustExecute(t, "test", dir, "--update")

	goldenPath := filepath.Join(dir, "golden", "echo.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name": "echo_works"`)

	// Unchanged scenario matches its golden file.
	mustExecute(t, "test", dir)

	// A different trace no longer matches.
	writeFile(t, scenarioPath, `name: echo_works
description: echo prints its arguments
flow:
  - run: echo
    args: changed
`)
	_, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
