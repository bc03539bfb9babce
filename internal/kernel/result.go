package kernel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ExecutedMessage is reported when a program succeeds without output.
const ExecutedMessage = "command executed"

type resultKind int

const (
	kindOutput resultKind = iota
	kindExecuted
	kindFailure
	kindScreen
)

// Result is the outcome of a kernel operation as shown to the user.
//
// Its JSON form is one of:
//
//	{"output": "..."}
//	{"success": true, "message": "command executed"}
//	{"success": false, "error": "..."}
//	{"success": true, "results": [...]}
type Result struct {
	kind    resultKind
	output  string
	err     string
	results []map[string]any
}

// OutputResult reports a successful run that produced output.
// An empty output yields ExecutedResult instead.
func OutputResult(output string) Result {
	if output == "" {
		return ExecutedResult()
	}
	return Result{kind: kindOutput, output: output}
}

// ExecutedResult reports a successful run without output.
func ExecutedResult() Result {
	return Result{kind: kindExecuted}
}

// FailureResult reports a failed operation.
func FailureResult(err error) Result {
	return Result{kind: kindFailure, err: err.Error()}
}

// ScreenResult reports decoded screen entries, newest first.
func ScreenResult(entries []map[string]any) Result {
	if entries == nil {
		entries = []map[string]any{}
	}
	return Result{kind: kindScreen, results: entries}
}

// Success reports whether the operation succeeded.
func (r Result) Success() bool {
	return r.kind != kindFailure
}

// Output returns the program output, if any.
func (r Result) Output() (string, bool) {
	return r.output, r.kind == kindOutput
}

// Err returns the failure message, or "" on success.
func (r Result) Err() string {
	return r.err
}

// Entries returns the screen entries of a ScreenResult.
func (r Result) Entries() []map[string]any {
	return r.results
}

// Fields returns the result as a generic map, the shape used by every
// output format.
func (r Result) Fields() map[string]any {
	switch r.kind {
	case kindOutput:
		return map[string]any{"output": r.output}
	case kindExecuted:
		return map[string]any{"success": true, "message": ExecutedMessage}
	case kindFailure:
		return map[string]any{"success": false, "error": r.err}
	case kindScreen:
		results := make([]any, len(r.results))
		for i, e := range r.results {
			results[i] = e
		}
		return map[string]any{"success": true, "results": results}
	default:
		return map[string]any{}
	}
}

// MarshalJSON implements json.Marshaler. Program output is not
// HTML-escaped.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Fields()); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalYAML implements yaml.Marshaler.
func (r Result) MarshalYAML() (any, error) {
	return r.Fields(), nil
}

// String renders the result as plain text.
func (r Result) String() string {
	switch r.kind {
	case kindOutput:
		return r.output
	case kindExecuted:
		return ExecutedMessage
	case kindFailure:
		return "error: " + r.err
	case kindScreen:
		lines := make([]string, len(r.results))
		for i, e := range r.results {
			out, ok := e["output"]
			if !ok || out == nil {
				lines[i] = "(no output)"
				continue
			}
			lines[i] = fmt.Sprint(out)
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}
