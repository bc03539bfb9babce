// Package kernel executes SPORK programs against the store.
//
// Execute runs one program invocation as a single transaction:
//
//  1. insert a running process row
//  2. look up the program (missing → ErrProgramNotFound)
//  3. run its statement with program.Bind, keep the "output" column
//  4. apply the built-in effect of the program's Kind
//  5. complete the process row
//  6. append {"output": ...} to the user's screen
//  7. commit
//
// Any failure rolls the whole invocation back and is reported in the
// returned Result rather than as a Go error.
package kernel
