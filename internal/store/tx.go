package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx is a transaction scope handed to WithTx callbacks.
// It must not be retained after the callback returns.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a single transaction.
//
// The transaction commits when fn returns nil. It rolls back when fn returns
// an error, and also when fn panics, in which case the panic is re-raised
// after the rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// No-op error if the driver already aborted the transaction
		_ = sqlTx.Rollback()
		if p := recover(); p != nil {
			panic(p)
		}
	}()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Prepare compiles query inside the transaction. Executing the returned
// statement fails when the number of arguments differs from the number of
// parameters SQLite found in query.
// Callers are responsible for closing the statement.
func (t *Tx) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	return t.tx.PrepareContext(ctx, query)
}
