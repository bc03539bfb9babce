package program

import (
	"errors"
	"strings"
)

// ErrMultipleStatements is returned for stored SQL holding more than one
// statement. The driver prepares only the first statement of a batch, so
// the rest would be dropped without a word.
var ErrMultipleStatements = errors.New("you can only execute one statement at a time")

// SingleStatement reports ErrMultipleStatements when sql has anything but
// whitespace, comments or further semicolons after a terminating ';'.
//
// Semicolons inside string literals, quoted identifiers and comments do not
// terminate. Unterminated literals and comments are left for SQLite to
// reject when the statement is prepared.
func SingleStatement(sql string) error {
	terminated := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			if terminated {
				return ErrMultipleStatements
			}
			closer := c
			if c == '[' {
				closer = ']'
			}
			j := strings.IndexByte(sql[i+1:], closer)
			if j < 0 {
				return nil
			}
			i += j + 1
		case c == '-' && strings.HasPrefix(sql[i:], "--"):
			j := strings.IndexByte(sql[i:], '\n')
			if j < 0 {
				return nil
			}
			i += j
		case c == '/' && strings.HasPrefix(sql[i:], "/*"):
			j := strings.Index(sql[i+2:], "*/")
			if j < 0 {
				return nil
			}
			i += j + 3
		case c == ';':
			terminated = true
		case isSpace(c):
		default:
			if terminated {
				return ErrMultipleStatements
			}
		}
	}
	return nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
