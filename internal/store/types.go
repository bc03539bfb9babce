package store

import "time"

// RootDirectoryID is the id of the "/" row seeded by the schema.
const RootDirectoryID int64 = 1

// Process status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

// Program is a named SQL statement.
type Program struct {
	Name        string `json:"name" yaml:"name"`
	SQL         string `json:"sql_code" yaml:"sql_code"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewProcess carries the fields of a process row at creation time.
type NewProcess struct {
	Token       string
	ProgramName string
	UserID      int64
	Args        string
	StartedAt   time.Time
}

// Process is a process row.
type Process struct {
	ID          int64      `json:"id" yaml:"id"`
	Token       string     `json:"token" yaml:"token"`
	ProgramName string     `json:"program" yaml:"program"`
	UserID      int64      `json:"user_id" yaml:"user_id"`
	Args        string     `json:"args" yaml:"args"`
	Status      string     `json:"status" yaml:"status"`
	Output      *string    `json:"output" yaml:"output"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
}

// File is a files row. Directories have IsDirectory set and no content.
type File struct {
	ID          int64
	Name        string
	ParentID    *int64
	OwnerID     int64
	Content     *string
	IsDirectory bool
}

// Variable is a per-user variable.
type Variable struct {
	UserID    int64
	Name      string
	Value     string
	UpdatedAt time.Time
}

// ScreenEntry is one line of the screen log. Content is the raw JSON payload.
type ScreenEntry struct {
	ID        int64
	UserID    int64
	Content   string
	CreatedAt time.Time
}
