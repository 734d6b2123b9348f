// Package store persists extracted OASIS records.
package store

import (
	"context"
	"fmt"

	"github.com/sells-group/oasis-ingest/internal/model"
)

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	EnsureSchema(ctx context.Context) error
	InsertBatch(ctx context.Context, filename string, records []model.Record) (int64, error)
	CountRows(ctx context.Context) (int64, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)

// ConflictError reports a document whose rows violate the composite key.
// None of the document's rows were committed.
type ConflictError struct {
	Filename  string
	Attempted int
	Err       error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: %s: key conflict inserting %d rows: %v", e.Filename, e.Attempted, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
