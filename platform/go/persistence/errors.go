package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const checkViolationCode = "23514"

// ErrConstraintViolation indicates a row was rejected by a CHECK constraint.
var ErrConstraintViolation = errors.New("constraint violation")

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == checkViolationCode
}
