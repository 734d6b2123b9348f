package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/oasis-ingest/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the SQLite database at path, creating its directory if
// needed. The store holds a single connection so transactions are serialized.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create dir %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS oasis (
	timedate         STRING,
	timedate_posix   INTEGER,
	source           STRING,
	version          STRING,
	name             STRING,
	system           STRING,
	tz               STRING,
	report           STRING,
	apnode_name      STRING,
	apnode_type      STRING,
	start_date       STRING,
	end_date         STRING,
	start_date_gmt   STRING,
	start_date_posix INTEGER,
	end_date_gmt     STRING,
	end_date_posix   INTEGER,
	cb_node_flag     STRING,
	max_cb_mw        NUMBER,
	PRIMARY KEY (%s)
);
`

var insertSQL = fmt.Sprintf(
	"INSERT INTO oasis (%s) VALUES (%s)",
	strings.Join(model.RecordColumns, ", "),
	strings.TrimSuffix(strings.Repeat("?, ", len(model.RecordColumns)), ", "),
)

var schemaSQL = fmt.Sprintf(sqliteSchema, strings.Join(model.RecordKey, ", "))

// EnsureSchema creates the oasis table if it does not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return eris.Wrap(err, "sqlite: ensure schema")
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertBatch inserts all records of one document in a single transaction.
// Either every record commits or none does. A key violation is returned as
// a *ConflictError.
func (s *SQLiteStore) InsertBatch(ctx context.Context, filename string, records []model.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: begin tx for %s", filename)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert for %s", filename)
	}
	defer stmt.Close() //nolint:errcheck

	for i := range records {
		if _, err := stmt.ExecContext(ctx, records[i].Values()...); err != nil {
			if IsConstraint(err) {
				return 0, &ConflictError{Filename: filename, Attempted: len(records), Err: err}
			}
			return 0, eris.Wrapf(err, "sqlite: insert record %d of %s", i, filename)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: commit %s", filename)
	}
	return int64(len(records)), nil
}

// CountRows returns the number of rows in the oasis table.
func (s *SQLiteStore) CountRows(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM oasis`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count rows")
	}
	return n, nil
}

// Records returns every stored row ordered by node name and start time.
func (s *SQLiteStore) Records(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(model.RecordColumns, ", ")+` FROM oasis
		 ORDER BY apnode_name, start_date_posix, timedate_posix`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Record
	for rows.Next() {
		var r model.Record
		var maxCB sql.NullFloat64
		if err := rows.Scan(
			&r.TimeDate, &r.TimeDatePosix, &r.Source, &r.Version, &r.Name,
			&r.System, &r.TZ, &r.Report, &r.APNodeName, &r.APNodeType,
			&r.StartDate, &r.EndDate, &r.StartDateGMT, &r.StartDatePosix,
			&r.EndDateGMT, &r.EndDatePosix, &r.CBNodeFlag, &maxCB,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if maxCB.Valid {
			v := maxCB.Float64
			r.MaxCBMW = &v
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

// IsConstraint reports whether err is a SQLite constraint violation.
func IsConstraint(err error) bool {
	code, ok := Code(err)
	return ok && code&0xff == sqlite3.SQLITE_CONSTRAINT
}

// Code returns the SQLite result code carried by err, if any.
func Code(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}
