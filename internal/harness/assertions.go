package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/spork/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %q success=%v\n", event.Seq, event.Program, event.Args, event.Success())
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains a run of the program
// matching the optional args and outcome.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Program != assertion.Program {
			continue
		}
		if assertion.Args != nil && event.Args != *assertion.Args {
			continue
		}
		if assertion.Success != nil && event.Success() != *assertion.Success {
			continue
		}
		return nil
	}

	expected := "run of " + assertion.Program
	if assertion.Args != nil {
		expected += fmt.Sprintf(" with args %q", *assertion.Args)
	}
	if assertion.Success != nil {
		expected += fmt.Sprintf(" with success=%v", *assertion.Success)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if programs were first run in the specified order.
// Runs don't need to be consecutive (intervening runs are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Program]; !seen {
			positions[event.Program] = i + 1 // 1-indexed for readability
		}
	}

	for _, program := range assertion.Programs {
		if positions[program] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all programs present: %v", assertion.Programs),
				Actual:   fmt.Sprintf("missing program: %s", program),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Programs); i++ {
		prev := assertion.Programs[i-1]
		curr := assertion.Programs[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("programs in order: %v", assertion.Programs),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the program was run exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Program == assertion.Program {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d runs of %s", assertion.Count, assertion.Program),
			Actual:   fmt.Sprintf("%d runs", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks that exactly one row of the table matches the
// where clause and that it holds the expected values (subset semantics).
//
// Table and column names are validated against a whitelist pattern;
// values are always bound as parameters.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	query, args, err := buildSelect("*", assertion.Table, assertion.Where)
	if err != nil {
		return err
	}

	rows, err := st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	whereDesc := formatWhereClause(assertion.Where)
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("query %s: %w", assertion.Table, err)
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, whereDesc),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// assertRowCount checks that exactly Count rows of the table match the
// where clause.
func assertRowCount(ctx context.Context, st *store.Store, assertion Assertion) error {
	query, args, err := buildSelect("count(*)", assertion.Table, assertion.Where)
	if err != nil {
		return err
	}

	var count int
	if err := st.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d rows in %s where %s", assertion.Count, assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   fmt.Sprintf("%d rows", count),
		}
	}
	return nil
}

// buildSelect builds a parameterized SELECT over table.
func buildSelect(columns, table string, where map[string]any) (string, []any, error) {
	if !validIdentifier.MatchString(table) {
		return "", nil, fmt.Errorf("invalid table name %q: must match pattern %s", table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(where)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", columns, table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}
	return query, whereArgs, nil
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
//
// A nil value matches NULL.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		if where[key] == nil {
			clauses = append(clauses, key+" IS NULL")
			continue
		}
		clauses = append(clauses, key+" = ?")
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded value to a SQL-compatible value.
func toSQLValue(v any) any {
	switch val := v.(type) {
	case string, int, int64, bool, float64:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateValuesEqual compares a YAML-decoded expected value with a value
// scanned from SQLite, which reports integers as int64 and booleans as 0/1.
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		actualStr, ok := actual.(string)
		return ok && exp == actualStr
	case int:
		actualInt, ok := actual.(int64)
		return ok && int64(exp) == actualInt
	case int64:
		actualInt, ok := actual.(int64)
		return ok && exp == actualInt
	case float64:
		switch a := actual.(type) {
		case float64:
			return exp == a
		case int64:
			return exp == float64(a)
		}
		return false
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		if actualInt, ok := actual.(int64); ok {
			return exp == (actualInt != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state and
// row_count assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState, AssertRowCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, assertion.Type)
			} else if assertion.Type == AssertFinalState {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			} else {
				err = assertRowCount(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
