package driver

import (
	"context"
	"database/sql"

	"github.com/keystone-gg/keystone/internal/kerr"
)

// Row is one result row: column name mapped to a normalized dynamic value.
// Values are always one of nil, int64, float64, string, or bool after
// normalization, since SQL column values are dynamically typed at the wire
// level.
type Row map[string]any

// Statement pairs a query with its bound parameters, for transactions.
type Statement struct {
	Query string
	Args  []any
}

// Backend executes parameterized statements against a concrete database.
// The production implementation wraps database/sql; tests substitute fakes
// to simulate slow or silent backends.
type Backend interface {
	// Exec runs a statement and returns the affected-row count and, for
	// inserts, the last insert id. Backends that cannot report one of the
	// two return 0 for it.
	Exec(ctx context.Context, query string, args []any) (affected, insertID int64, err error)

	// Query runs a statement and returns all rows with normalized values.
	Query(ctx context.Context, query string, args []any) ([]Row, error)

	// Batch runs all statements inside a single transaction.
	Batch(ctx context.Context, stmts []Statement) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// sqlBackend is the database/sql implementation of Backend.
type sqlBackend struct {
	db *sql.DB
}

// NewSQLBackend wraps an open *sql.DB as a Backend.
func NewSQLBackend(db *sql.DB) Backend {
	return &sqlBackend{db: db}
}

func (b *sqlBackend) Exec(ctx context.Context, query string, args []any) (int64, int64, error) {
	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, 0, kerr.Wrap(kerr.ErrSQLExecution, err, "exec failed").WithQuery(query)
	}

	// Affected-row and insert-id shapes vary per driver; unrecognized
	// shapes normalize to 0.
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	insertID, err := res.LastInsertId()
	if err != nil {
		insertID = 0
	}
	return affected, insertID, nil
}

func (b *sqlBackend) Query(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, kerr.Wrap(kerr.ErrSQLExecution, err, "query failed").WithQuery(query)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, kerr.Wrap(kerr.ErrSQLExecution, err, "read columns failed").WithQuery(query)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, kerr.Wrap(kerr.ErrSQLExecution, err, "scan failed").WithQuery(query)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = NormalizeValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (b *sqlBackend) Batch(ctx context.Context, stmts []Statement) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return kerr.Wrap(kerr.ErrSQLExecution, err, "begin transaction failed")
	}

	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s.Query, s.Args...); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = kerr.Wrap(kerr.ErrSQLExecution, err, "rollback also failed").With("rollback", rbErr)
			}
			return kerr.Wrap(kerr.ErrSQLExecution, err, "transaction statement failed").WithQuery(s.Query)
		}
	}
	return tx.Commit()
}

func (b *sqlBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}

// NormalizeValue collapses driver-specific value shapes into the five
// wire-level kinds: nil, int64, float64, string, bool.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return val
	case int64:
		return val
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case float64:
		return val
	case float32:
		return float64(val)
	case string:
		return val
	case []byte:
		// MySQL text protocol reports most values as byte slices.
		return string(val)
	default:
		return val
	}
}
