package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var defaultSchema string

// TimeLayout is the text layout of every timestamp column.
// It matches SQLite's CURRENT_TIMESTAMP.
const TimeLayout = "2006-01-02 15:04:05"

// Source supplies the schema script for a new database.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Load returns the schema script.
	Load() (string, error)
}

// DefaultSchema returns the schema embedded in the binary.
func DefaultSchema() Source {
	return embeddedSource{}
}

// SchemaFile returns a Source that reads the schema from path.
func SchemaFile(path string) Source {
	return fileSource(path)
}

type embeddedSource struct{}

func (embeddedSource) Name() string { return "embedded:schema.sql" }

func (embeddedSource) Load() (string, error) { return defaultSchema, nil }

type fileSource string

func (f fileSource) Name() string { return string(f) }

func (f fileSource) Load() (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("read schema %s: %w", string(f), err)
	}
	return string(data), nil
}

// Store provides durable storage for SPORK state.
type Store struct {
	db      *sql.DB
	created bool
}

// Open opens the SQLite database at path, creating and seeding it from
// schema when it does not exist yet.
//
// The schema is loaded before anything touches the filesystem, so a missing
// schema resource fails without leaving an empty database behind. Seeding
// runs in one transaction; if it fails the new file is removed.
func Open(ctx context.Context, path string, schema Source) (*Store, error) {
	exists, err := databaseExists(path)
	if err != nil {
		return nil, err
	}

	var script string
	if !exists {
		if schema == nil {
			return nil, errors.New("no schema source for new database")
		}
		script, err = schema.Load()
		if err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s := &Store{db: db, created: !exists}
	if exists {
		return s, nil
	}

	if err := s.seed(ctx, script); err != nil {
		db.Close()
		if !isMemory(path) {
			_ = os.Remove(path)
		}
		return nil, fmt.Errorf("failed to apply schema %s: %w", schema.Name(), err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Created reports whether Open created and seeded the database.
func (s *Store) Created() bool {
	return s.created
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) seed(ctx context.Context, script string) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(ctx, script); err != nil {
			return err
		}
		return nil
	})
}

// dsn enables foreign keys at the driver level so every pooled connection
// gets them, not only the one applyPragmas runs on.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1&_busy_timeout=5000"
}

// applyPragmas sets and verifies required SQLite configuration.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		return fmt.Errorf("query foreign_keys: %w", err)
	}
	if fk != 1 {
		return fmt.Errorf("foreign_keys = %d, expected 1", fk)
	}

	return nil
}

func databaseExists(path string) (bool, error) {
	if isMemory(path) {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat database %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("database path %s is a directory", path)
	}
	return true, nil
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
