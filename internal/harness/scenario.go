package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a test scenario: programs to install, runs to perform,
// and assertions over the resulting trace and database.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Manifests lists CUE manifest directories to install before setup.
	// Relative paths are resolved against the scenario file's directory.
	Manifests []string `yaml:"manifests,omitempty"`

	// Setup contains runs that establish initial state.
	// Every setup run must succeed.
	Setup []RunStep `yaml:"setup,omitempty"`

	// Flow contains the runs under test, each with an optional expectation.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// TokenPrefix prefixes the sequential process tokens.
	// Defaults to "test".
	TokenPrefix string `yaml:"token_prefix,omitempty"`
}

// RunStep is a single program run.
type RunStep struct {
	// Run is the program name.
	Run string `yaml:"run"`

	// Args is the raw argument string.
	Args string `yaml:"args,omitempty"`

	// User is the user id to run as. Zero means the default user.
	User int64 `yaml:"user,omitempty"`
}

// FlowStep is a run whose result is checked against Expect.
type FlowStep struct {
	RunStep `yaml:",inline"`

	// Expect specifies the expected result. Nil means any result.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected run result.
// Only the fields that are set are checked.
type ExpectClause struct {
	// Success is the expected success flag.
	Success *bool `yaml:"success,omitempty"`

	// Output is the expected output. Setting it implies success.
	Output *string `yaml:"output,omitempty"`

	// Error is a substring of the expected failure message.
	// Setting it implies failure.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Program is the program name (trace_contains, trace_count).
	Program string `yaml:"program,omitempty"`

	// Args, when set, must equal the run's argument string (trace_contains).
	Args *string `yaml:"args,omitempty"`

	// Success, when set, must equal the run's outcome (trace_contains).
	Success *bool `yaml:"success,omitempty"`

	// Programs is the expected run order (trace_order).
	Programs []string `yaml:"programs,omitempty"`

	// Table is the table to query (final_state, row_count).
	Table string `yaml:"table,omitempty"`

	// Where filters rows by column equality (final_state, row_count).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state).
	// Subset match: only the listed columns are checked.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of runs or rows (trace_count, row_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRowCount      = "row_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative manifest paths are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, dir := range scenario.Manifests {
		if !filepath.IsAbs(dir) {
			scenario.Manifests[i] = filepath.Join(base, dir)
		}
	}

	for _, dir := range scenario.Manifests {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("invalid scenario: manifest directory not found: %s", dir)
		}
	}

	return scenario, nil
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Run == "" {
			return fmt.Errorf("setup[%d]: run is required", i)
		}
	}

	for i, step := range s.Flow {
		if step.Run == "" {
			return fmt.Errorf("flow[%d]: run is required", i)
		}
		if err := validateExpect(i, step.Expect); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateExpect(index int, e *ExpectClause) error {
	if e == nil {
		return nil
	}
	if e.Success == nil && e.Output == nil && e.Error == "" {
		return fmt.Errorf("flow[%d].expect: at least one of success, output, error is required", index)
	}
	if e.Output != nil && e.Error != "" {
		return fmt.Errorf("flow[%d].expect: output and error are mutually exclusive", index)
	}
	if e.Success != nil {
		if e.Output != nil && !*e.Success {
			return fmt.Errorf("flow[%d].expect: output requires success", index)
		}
		if e.Error != "" && *e.Success {
			return fmt.Errorf("flow[%d].expect: error requires failure", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Program == "" {
			return fmt.Errorf("assertions[%d]: program is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Programs) == 0 {
			return fmt.Errorf("assertions[%d]: programs list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Program == "" {
			return fmt.Errorf("assertions[%d]: program is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRowCount:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for row_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
