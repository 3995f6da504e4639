package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrInUse     = errors.New("record is referenced by another record")
)

// PostgreSQL error codes handled by the repositories
const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// classify maps driver errors onto the package sentinels, keeping the cause
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w: %w", op, ErrDuplicate, err)
		case foreignKeyViolation:
			return fmt.Errorf("%s: %w: %w", op, ErrInUse, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsConnectionError reports whether err came from the database link rather than a query
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, class 57: operator intervention
		switch pqErr.Code.Class() {
		case "08", "57":
			return true
		}
		return false
	}

	var opErr *net.OpError
	return errors.As(err, &opErr) && !errors.Is(err, context.Canceled)
}

// IsDatabaseError reports whether err was raised by PostgreSQL or the SQL layer
func IsDatabaseError(err error) bool {
	if IsConnectionError(err) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr)
}
