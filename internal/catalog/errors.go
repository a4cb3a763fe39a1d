package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecordNotFound is returned when no row matches the requested path.
	ErrRecordNotFound = errors.New("catalog record not found")
	// ErrUnavailable marks a catalog that can no longer be reached. Runs abort
	// on it rather than continuing with statuses that cannot be stored.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

const (
	sqliteIOErrCode       = 10
	sqliteCantOpenCode    = 14
	sqliteNotADBCode      = 26
	sqlitePrimaryCodeMask = 0xff
)

func isUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		switch coder.Code() & sqlitePrimaryCodeMask {
		case sqliteIOErrCode, sqliteCantOpenCode, sqliteNotADBCode:
			return true
		}
	}
	return strings.Contains(err.Error(), "database is closed")
}

// classify tags connectivity failures with ErrUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
