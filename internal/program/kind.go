package program

import "fmt"

// Kind selects the built-in behavior of a program.
type Kind int

const (
	// Generic programs only run their stored statement.
	Generic Kind = iota
	// MakeDirectory creates a directory named by the arguments.
	MakeDirectory
	// WriteFile writes "<name> <content>".
	WriteFile
	// SetVariable sets "<name> <value>".
	SetVariable
)

// builtins maps reserved program names to their Kind.
var builtins = map[string]Kind{
	"mkdir": MakeDirectory,
	"write": WriteFile,
	"set":   SetVariable,
}

// Resolve returns the Kind for an exact program name.
func Resolve(name string) Kind {
	if k, ok := builtins[name]; ok {
		return k
	}
	return Generic
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Generic:
		return "generic"
	case MakeDirectory:
		return "mkdir"
	case WriteFile:
		return "write"
	case SetVariable:
		return "set"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
