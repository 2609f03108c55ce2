package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

const foreignKeyViolation = "23503"

// storeError classifies a store failure. Domain errors pass through, a
// dangling foreign key means the referenced row is gone, and every other
// fault (lock timeout, deadlock, lost connection, cancelled query) is
// transient for the caller.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNoCapacity) || errors.Is(err, domain.ErrTransient) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	return fmt.Errorf("%s: %w: %w", op, domain.ErrTransient, err)
}
