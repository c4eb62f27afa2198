package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateKey is returned when an insert or update hits a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

// isUniqueViolation reports whether err is a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
