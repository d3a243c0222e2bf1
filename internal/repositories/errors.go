package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist, or that an
	// ownership-gated mutation matched no row the caller owns. The two
	// cases are deliberately indistinguishable.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness
	// constraint.
	ErrConflict = errors.New("record conflict")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translateConstraint maps constraint violations onto the package
// sentinels: duplicates become ErrConflict, broken references and check
// failures become ErrNotFound. Other errors pass through unchanged.
func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation, pgCheckViolation:
			return ErrNotFound
		}
	}
	return err
}
