// Package introspect reads live table metadata through the driver adapter.
// It queries each backend's catalog (information_schema for MySQL and
// PostgreSQL, pragma/sqlite_schema for SQLite) and normalizes the result
// into the column shape the synchronizer diffs against registered schemas.
package introspect

import (
	"github.com/keystone-gg/keystone/internal/driver"
	"github.com/keystone-gg/keystone/internal/kerr"
)

// Querier is the slice of the driver adapter introspection needs.
// The synchronous calls are guard-bounded, so introspection cannot stall.
type Querier interface {
	FetchSync(query string, args []any) []driver.Row
	FetchScalarSync(query string, args []any) (any, bool)
}

// Column is live column metadata as reported by the backend catalog.
type Column struct {
	Name       string
	Type       string // raw display type, e.g. "int(11)", "varchar(60)"
	Nullable   bool
	Default    string
	HasDefault bool
	Extra      string // backend flags, e.g. "auto_increment"
}

// Introspector reads live schema state for one dialect.
type Introspector interface {
	// TableExists checks the backend catalog for a base table.
	TableExists(table string) bool

	// Columns returns live column metadata in ordinal order. A failed
	// catalog query yields an empty set, which the synchronizer will
	// read as "every schema column is an add", a documented edge case,
	// not specially guarded.
	Columns(table string) []Column

	// ListTables returns all live base tables. Unlike Columns, a failure
	// here is an error: the orphan scanner must not mistake a catalog
	// failure for an empty database.
	ListTables() ([]string, error)
}

// New creates an Introspector for the given dialect name.
// Returns nil if the dialect is not supported.
func New(q Querier, dialectName string) Introspector {
	switch dialectName {
	case "mysql":
		return &mysqlIntrospector{q: q}
	case "postgres":
		return &postgresIntrospector{q: q}
	case "sqlite":
		return &sqliteIntrospector{q: q}
	default:
		return nil
	}
}

// scalarBool interprets a COUNT(*)-style scalar as existence.
func scalarBool(value any, ok bool) bool {
	if !ok {
		return false
	}
	switch v := value.(type) {
	case int64:
		return v > 0
	case float64:
		return v > 0
	case string:
		return v != "" && v != "0"
	default:
		return false
	}
}

// rowString reads a string field from a catalog row, tolerating nil.
func rowString(row driver.Row, key string) string {
	if v, ok := row[key]; ok && v != nil {
		if s, isString := v.(string); isString {
			return s
		}
	}
	return ""
}

// listTablesError builds the error for a failed catalog listing.
func listTablesError(dialect string) error {
	return kerr.New(kerr.ErrOrphanScan, "listing live tables failed").
		With("dialect", dialect)
}
