// Package harness runs SPORK scenarios: YAML files that install programs,
// run them through the kernel and assert on the outcome.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	manifests:
//	  - programs          # CUE manifest dirs, relative to the scenario file
//	setup:
//	  - run: mkdir
//	    args: docs
//	flow:
//	  - run: mkdir
//	    args: docs
//	    expect:
//	      success: false
//	      error: "UNIQUE constraint failed"
//	assertions:
//	  - type: trace_count
//	    program: mkdir
//	    count: 2
//	  - type: final_state
//	    table: files
//	    where: { name: docs }
//	    expect: { is_directory: 1 }
//
// # Assertion Types
//
//   - trace_contains: a run of program, optionally with the given args and outcome
//   - trace_order: programs were run in the given order
//   - trace_count: program was run exactly N times
//   - final_state: exactly one row of table matches where and has the expected values
//   - row_count: exactly N rows of table match where
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory database seeded with the
// built-in schema, a stepping clock and sequential process tokens, so the
// trace is identical across runs and can be compared to a golden file.
package harness
