package kernel

import "errors"

// ErrProgramNotFound is matched (errors.Is) by lookup failures.
var ErrProgramNotFound = errors.New("program not found")

// NotFoundError reports a program name with no programs row.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "program not found: " + e.Name
}

// Is makes errors.Is(err, ErrProgramNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrProgramNotFound
}
