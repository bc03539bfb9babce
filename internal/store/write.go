package store

import (
	"context"
	"fmt"
	"time"
)

// InsertProcess inserts a process row in the running state and returns its id.
func (t *Tx) InsertProcess(ctx context.Context, p NewProcess) (int64, error) {
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO processes (token, program_name, user_id, args, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		p.Token,
		p.ProgramName,
		p.UserID,
		p.Args,
		StatusRunning,
		formatTime(p.StartedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert process: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert process: last insert id: %w", err)
	}
	return id, nil
}

// CompleteProcess moves a running process to completed.
// A process that is not running is left untouched and reported as an error.
func (t *Tx) CompleteProcess(ctx context.Context, id int64, output *string, endedAt time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE processes
		SET status = ?, output = ?, ended_at = ?
		WHERE id = ? AND status = ?
	`,
		StatusCompleted,
		nullString(output),
		formatTime(endedAt),
		id,
		StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("complete process: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete process: rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("complete process %d: not running", id)
	}
	return nil
}

// AppendScreen appends an {"output": ...} entry to a user's screen and
// returns the entry id.
func (t *Tx) AppendScreen(ctx context.Context, userID int64, output *string, at time.Time) (int64, error) {
	content, err := marshalScreenContent(output)
	if err != nil {
		return 0, fmt.Errorf("append screen: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO screen (user_id, content, created_at)
		VALUES (?, ?, ?)
	`, userID, content, formatTime(at))
	if err != nil {
		return 0, fmt.Errorf("append screen: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append screen: last insert id: %w", err)
	}
	return id, nil
}

// MakeDirectory inserts a directory row. A second directory with the same
// name under the same parent violates UNIQUE(parent_id, name).
func (t *Tx) MakeDirectory(ctx context.Context, name string, parentID, ownerID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO files (name, parent_id, owner_id, is_directory)
		VALUES (?, ?, ?, 1)
	`, name, parentID, ownerID)
	if err != nil {
		return fmt.Errorf("make directory %q: %w", name, err)
	}
	return nil
}

// WriteFile creates a regular file or replaces any row with the same
// (parent_id, name).
func (t *Tx) WriteFile(ctx context.Context, name, content string, parentID, ownerID int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO files (name, parent_id, owner_id, content, is_directory)
		VALUES (?, ?, ?, ?, 0)
	`, name, parentID, ownerID, content)
	if err != nil {
		return fmt.Errorf("write file %q: %w", name, err)
	}
	return nil
}

// SetVariable upserts a variable keyed by (user_id, name).
func (t *Tx) SetVariable(ctx context.Context, userID int64, name, value string, at time.Time) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO variables (user_id, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, userID, name, value, formatTime(at))
	if err != nil {
		return fmt.Errorf("set variable %q: %w", name, err)
	}
	return nil
}

// InstallPrograms inserts programs that do not exist yet.
// Existing rows are never modified; their names are returned in skipped.
func (t *Tx) InstallPrograms(ctx context.Context, programs []Program) (installed, skipped []string, err error) {
	for _, p := range programs {
		result, err := t.tx.ExecContext(ctx, `
			INSERT INTO programs (name, sql_code, description)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO NOTHING
		`, p.Name, p.SQL, p.Description)
		if err != nil {
			return nil, nil, fmt.Errorf("install program %q: %w", p.Name, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return nil, nil, fmt.Errorf("install program %q: rows affected: %w", p.Name, err)
		}
		if n == 0 {
			skipped = append(skipped, p.Name)
			continue
		}
		installed = append(installed, p.Name)
	}
	return installed, skipped, nil
}
