package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	// sqlite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// wrapUnique turns a uniqueness violation into ErrDuplicate and leaves
// other errors untouched.
func wrapUnique(err error) error {
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// IsDuplicate reports whether err is ErrDuplicate or a raw uniqueness
// violation from the driver.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate) || isUniqueConstraintError(err)
}
