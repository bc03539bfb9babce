package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Exit codes for CLI commands.
const (
	ExitSuccess = 0 // Successful execution, including programs that report a failure result
	ExitFailure = 1 // Usage errors, unknown commands, startup failures
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Texter is implemented by values with a custom text rendering.
type Texter interface {
	Text() string
}

// OutputFormatter writes command results in the configured format.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Print writes v as indented JSON, YAML, or text.
//
// Text uses Texter when v implements it, then fmt.Stringer, then fmt's
// default formatting.
func (f *OutputFormatter) Print(v any) error {
	switch f.Format {
	case "json", "":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		var s string
		switch val := v.(type) {
		case Texter:
			s = val.Text()
		case fmt.Stringer:
			s = val.String()
		default:
			s = fmt.Sprint(v)
		}
		if s == "" {
			return nil
		}
		_, err := fmt.Fprintln(f.Writer, s)
		return err
	default:
		return fmt.Errorf("invalid format %q: must be one of %v", f.Format, ValidFormats)
	}
}
