// Package resilience classifies ingestion failures for operators.
//
// Nothing is retried within a run. A file that fails stays out of the manifest
// and is picked up again by the next run; the classification tells whether that
// retry can succeed on its own.
package resilience

import (
	"context"
	"errors"
	"os"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/oasis-ingest/internal/store"
)

// Error classes reported in the error_type log field.
const (
	Conflict  = "conflict"  // duplicate rows; recurs until removed from the store
	Transient = "transient" // resource contention; the next run will likely pass
	Permanent = "permanent"
)

// IsConflict reports whether err is a key violation.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var ce *store.ConflictError
	return errors.As(err, &ce) || store.IsConstraint(err)
}

// IsTransient reports whether err (or any error in its chain) is a
// busy/locked/full/IO SQLite result or a timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	if code, ok := store.Code(err); ok {
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY,
			sqlite3.SQLITE_LOCKED,
			sqlite3.SQLITE_FULL,
			sqlite3.SQLITE_IOERR:
			return true
		}
	}
	return false
}

// ClassifyError returns Conflict, Transient or Permanent.
func ClassifyError(err error) string {
	switch {
	case IsConflict(err):
		return Conflict
	case IsTransient(err):
		return Transient
	default:
		return Permanent
	}
}
