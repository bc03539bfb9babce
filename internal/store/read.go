package store

import (
	"context"
	"database/sql"
	"fmt"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Program retrieves a program by exact name.
// Returns sql.ErrNoRows if not found.
func (s *Store) Program(ctx context.Context, name string) (Program, error) {
	return readProgram(ctx, s.db, name)
}

// Program retrieves a program by exact name inside the transaction.
// Returns sql.ErrNoRows if not found.
func (t *Tx) Program(ctx context.Context, name string) (Program, error) {
	return readProgram(ctx, t.tx, name)
}

func readProgram(ctx context.Context, q querier, name string) (Program, error) {
	var p Program
	err := q.QueryRowContext(ctx, `
		SELECT name, sql_code, description
		FROM programs
		WHERE name = ?
	`, name).Scan(&p.Name, &p.SQL, &p.Description)
	if err != nil {
		return Program{}, err
	}
	return p, nil
}

// Programs returns every installed program ordered by name.
// Returns an empty slice (not nil) if none are installed.
func (s *Store) Programs(ctx context.Context) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sql_code, description
		FROM programs
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	programs := []Program{}
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.Name, &p.SQL, &p.Description); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

// Process retrieves a single process by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) Process(ctx context.Context, id int64) (Process, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, program_name, user_id, args, status, output, started_at, ended_at
		FROM processes
		WHERE id = ?
	`, id)
	return scanProcess(row)
}

// Processes returns the most recent processes of a user, newest first.
// A non-positive limit returns every process.
func (s *Store) Processes(ctx context.Context, userID int64, limit int) ([]Process, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token, program_name, user_id, args, status, output, started_at, ended_at
		FROM processes
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query processes: %w", err)
	}
	defer rows.Close()

	processes := []Process{}
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, err
		}
		processes = append(processes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processes: %w", err)
	}
	return processes, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProcess(row scanner) (Process, error) {
	var (
		p         Process
		output    sql.NullString
		startedAt string
		endedAt   sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Token, &p.ProgramName, &p.UserID, &p.Args, &p.Status, &output, &startedAt, &endedAt); err != nil {
		return Process{}, err
	}
	p.Output = stringPtr(output)

	t, err := parseTime(startedAt)
	if err != nil {
		return Process{}, fmt.Errorf("process %d started_at: %w", p.ID, err)
	}
	p.StartedAt = t

	if endedAt.Valid {
		t, err := parseTime(endedAt.String)
		if err != nil {
			return Process{}, fmt.Errorf("process %d ended_at: %w", p.ID, err)
		}
		p.EndedAt = &t
	}
	return p, nil
}

// File retrieves a file or directory by parent and name.
// Returns sql.ErrNoRows if not found.
func (s *Store) File(ctx context.Context, parentID int64, name string) (File, error) {
	var (
		f       File
		parent  sql.NullInt64
		content sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, parent_id, owner_id, content, is_directory
		FROM files
		WHERE parent_id = ? AND name = ?
	`, parentID, name).Scan(&f.ID, &f.Name, &parent, &f.OwnerID, &content, &f.IsDirectory)
	if err != nil {
		return File{}, err
	}
	if parent.Valid {
		v := parent.Int64
		f.ParentID = &v
	}
	f.Content = stringPtr(content)
	return f, nil
}

// CountFiles returns the number of rows named name under parentID.
func (s *Store) CountFiles(ctx context.Context, parentID int64, name string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM files WHERE parent_id = ? AND name = ?
	`, parentID, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// Variable retrieves a variable by (user, name).
// Returns sql.ErrNoRows if not found.
func (s *Store) Variable(ctx context.Context, userID int64, name string) (Variable, error) {
	var (
		v         Variable
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, value, updated_at
		FROM variables
		WHERE user_id = ? AND name = ?
	`, userID, name).Scan(&v.UserID, &v.Name, &v.Value, &updatedAt)
	if err != nil {
		return Variable{}, err
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return Variable{}, fmt.Errorf("variable %q updated_at: %w", name, err)
	}
	v.UpdatedAt = t
	return v, nil
}

// CountVariables returns the number of variables held by a user.
func (s *Store) CountVariables(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM variables WHERE user_id = ?
	`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count variables: %w", err)
	}
	return n, nil
}

// Screen returns the newest screen entries of a user, newest first
// (descending id).
func (s *Store) Screen(ctx context.Context, userID int64, limit int) ([]ScreenEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content, created_at
		FROM screen
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query screen: %w", err)
	}
	defer rows.Close()

	entries := []ScreenEntry{}
	for rows.Next() {
		var (
			e         ScreenEntry
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan screen entry: %w", err)
		}
		t, err := parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("screen entry %d created_at: %w", e.ID, err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screen: %w", err)
	}
	return entries, nil
}

// CountProcesses returns the total number of process rows.
func (s *Store) CountProcesses(ctx context.Context) (int, error) {
	return s.count(ctx, "processes")
}

// CountScreen returns the total number of screen entries.
func (s *Store) CountScreen(ctx context.Context) (int, error) {
	return s.count(ctx, "screen")
}

func (s *Store) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
