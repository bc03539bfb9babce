package program

import "strings"

// Placeholders counts '?' characters in the statement text.
//
// The count is textual: a '?' inside a string literal or comment counts
// too. When it differs from the parameters SQLite actually sees, the
// prepared statement rejects the bound arguments and the run fails.
func Placeholders(sql string) int {
	return strings.Count(sql, "?")
}

// Bind returns the arguments for sql: args repeated once per placeholder.
// Every placeholder receives the same string. A statement with no
// placeholders gets no arguments.
func Bind(sql, args string) []any {
	n := Placeholders(sql)
	if n == 0 {
		return nil
	}
	bound := make([]any, n)
	for i := range bound {
		bound[i] = args
	}
	return bound
}

// SplitFirst splits args on the first space. ok is false when args has no
// space, in which case head and rest are empty.
func SplitFirst(args string) (head, rest string, ok bool) {
	head, rest, ok = strings.Cut(args, " ")
	if !ok {
		return "", "", false
	}
	return head, rest, true
}
