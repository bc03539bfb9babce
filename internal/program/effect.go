package program

// Effect is the built-in side effect of one invocation, derived from the
// program's Kind and its argument string.
type Effect struct {
	Kind Kind
	// Name is the directory, file or variable name.
	Name string
	// Value is the file content or variable value.
	Value string
}

// Plan derives the side effect for kind and args. ok is false when the
// invocation has no side effect: Generic programs, mkdir without arguments,
// and write/set without a space in args. Names are taken byte for byte.
func Plan(kind Kind, args string) (effect Effect, ok bool) {
	switch kind {
	case MakeDirectory:
		if args == "" {
			return Effect{}, false
		}
		return Effect{Kind: kind, Name: args}, true
	case WriteFile, SetVariable:
		name, value, found := SplitFirst(args)
		if !found {
			return Effect{}, false
		}
		return Effect{Kind: kind, Name: name, Value: value}, true
	case Generic:
		return Effect{}, false
	default:
		return Effect{}, false
	}
}
