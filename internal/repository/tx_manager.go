package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// TxManager runs a function inside a single Postgres transaction. The
// transaction travels in the context so repositories join it transparently.
type TxManager struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxManager returns a TxManager. A non-zero lockTimeout bounds how long a
// transaction waits for a row lock before failing with a transient error.
func NewTxManager(pool *pgxpool.Pool, lockTimeout time.Duration) *TxManager {
	return &TxManager{pool: pool, lockTimeout: lockTimeout}
}

func (tm *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := tm.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return storeError("begin transaction", err)
	}

	// Commit and rollback outlive the caller's context: once started, the
	// transaction has to end in the store one way or the other.
	endCtx := context.WithoutCancel(ctx)
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(endCtx)
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(endCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if tm.lockTimeout > 0 {
		// SET does not take bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = %d", tm.lockTimeout.Milliseconds())
		if _, err = tx.Exec(ctx, stmt); err != nil {
			return storeError("set lock timeout", err)
		}
	}

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(endCtx); err != nil {
		return storeError("commit transaction", err)
	}
	return nil
}

// TxFromContext returns the transaction opened by WithinTransaction, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

type executor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func conn(ctx context.Context, pool *pgxpool.Pool) executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

var errNoTransaction = errors.New("row lock requested outside of a transaction")

func requireTx(ctx context.Context) (pgx.Tx, error) {
	tx := TxFromContext(ctx)
	if tx == nil {
		return nil, errNoTransaction
	}
	return tx, nil
}

var _ Transactor = (*TxManager)(nil)
