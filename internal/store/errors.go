package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// DriverError returns the SQLite error wrapped in err, if any, so callers
// can report the database's own message without the context added on the
// way up. Any other error is returned unchanged.
func DriverError(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr
	}
	return err
}
