// Package manifest loads program definitions from CUE files.
//
// A manifest declares programs under the top-level "program" field:
//
//	program: echo: {
//		sql:         "SELECT ? AS output"
//		description: "print the arguments"
//	}
//
// Every .cue file in a directory is compiled on its own; a program name may
// appear in only one file.
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/spork/internal/program"
	"github.com/roach88/spork/internal/store"
)

// Error codes.
const (
	ErrCodeNotFound    = "M001" // Path not found
	ErrCodeNoFiles     = "M002" // No CUE files found
	ErrCodeBuildFailed = "M003" // CUE compile failed
	ErrCodeInvalid     = "M004" // Program entry invalid
	ErrCodeDuplicate   = "M005" // Program declared twice
	ErrCodeEmpty       = "M006" // No programs declared
)

// LoadError is a manifest error with an optional CUE position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads every .cue file under dir and returns the declared programs in
// file order, then declaration order.
func Load(dir string) ([]store.Program, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing manifest directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	seen := make(map[string]string)
	var programs []store.Program
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("read %s: %v", path, err)}
		}

		value := ctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("compiling %s: %v", path, err)}
		}

		parsed, err := parsePrograms(value)
		if err != nil {
			return nil, err
		}
		for _, p := range parsed {
			if prev, dup := seen[p.Name]; dup {
				return nil, &LoadError{
					Code:    ErrCodeDuplicate,
					Message: fmt.Sprintf("program %q declared in both %s and %s", p.Name, prev, path),
				}
			}
			seen[p.Name] = path
			programs = append(programs, p)
		}
	}

	if len(programs) == 0 {
		return nil, &LoadError{Code: ErrCodeEmpty, Message: fmt.Sprintf("no programs declared in %s", dir)}
	}
	return programs, nil
}

// parsePrograms extracts the entries of the "program" struct.
func parsePrograms(v cue.Value) ([]store.Program, error) {
	programsVal := v.LookupPath(cue.ParsePath("program"))
	if !programsVal.Exists() {
		return nil, nil
	}

	iter, err := programsVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("program must be a struct: %v", err), Pos: programsVal.Pos()}
	}

	var programs []store.Program
	for iter.Next() {
		p, err := parseProgram(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, nil
}

func parseProgram(name string, v cue.Value) (store.Program, error) {
	// Lookups compare names byte for byte, so a decomposed name could never
	// be typed back at a terminal.
	if !norm.NFC.IsNormalString(name) {
		return store.Program{}, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("program %q: name must be NFC-normalized", name), Pos: v.Pos()}
	}
	p := store.Program{Name: name}

	sqlVal := v.LookupPath(cue.ParsePath("sql"))
	if !sqlVal.Exists() {
		return store.Program{}, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("program %q: sql is required", name), Pos: v.Pos()}
	}
	sql, err := sqlVal.String()
	if err != nil {
		return store.Program{}, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("program %q: sql must be a string", name), Pos: sqlVal.Pos()}
	}
	if sql == "" {
		return store.Program{}, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("program %q: sql must not be empty", name), Pos: sqlVal.Pos()}
	}
	if err := program.SingleStatement(sql); err != nil {
		return store.Program{}, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("program %q: %v", name, err), Pos: sqlVal.Pos()}
	}
	p.SQL = sql

	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return store.Program{}, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("program %q: description must be a string", name), Pos: descVal.Pos()}
		}
		p.Description = desc
	}

	return p, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths in
// lexical order.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
