// Package program models SPORK programs.
//
// A program is a stored SQL statement plus a Kind. The Kind is resolved once
// from the program name and selects the built-in side effect layered on top
// of the statement:
//
//	mkdir → MakeDirectory
//	write → WriteFile
//	set   → SetVariable
//	*     → Generic
//
// Matching is exact and case-sensitive.
//
// Bind implements SPORK's argument convention: the single argument string is
// bound to every '?' in the statement text.
package program
