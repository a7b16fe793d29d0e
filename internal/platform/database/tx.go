package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type txKey struct{}

type txState struct {
	tx    *sql.Tx
	depth int
}

// TxManager runs units of work in a transaction carried by the context.
// A unit started while another is active becomes a savepoint, so the inner
// unit can fail and roll back alone.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) (*TxManager, error) {
	if db == nil {
		return nil, errors.New("database: nil db")
	}
	return &TxManager{db: db}, nil
}

// WithinTx commits when fn returns nil and rolls back otherwise.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return withinSavepoint(ctx, st, fn)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, &txState{tx: tx})); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

func withinSavepoint(ctx context.Context, st *txState, fn func(ctx context.Context) error) error {
	st.depth++
	defer func() { st.depth-- }()
	name := fmt.Sprintf("sp_%d", st.depth)

	if _, err := st.tx.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("database: savepoint: %w", err)
	}
	if err := fn(ctx); err != nil {
		if _, rbErr := st.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	if _, err := st.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("database: release savepoint: %w", err)
	}
	return nil
}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db DBTX) DBTX {
	if st, ok := ctx.Value(txKey{}).(*txState); ok {
		return st.tx
	}
	return db
}

// Direct runs units of work without a transaction. In-memory stores use it.
type Direct struct{}

func (Direct) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
