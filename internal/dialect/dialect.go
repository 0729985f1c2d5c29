// Package dialect provides database-specific SQL generation for the data
// layer. Each dialect implements identifier quoting, parameter placeholders,
// and the DDL statements the table synchronizer needs: CREATE TABLE,
// ADD COLUMN, MODIFY COLUMN, ADD UNIQUE KEY, and DROP TABLE.
//
// The generated SQL is MySQL-flavoured in the primary dialect (backtick
// quoting, AUTO_INCREMENT, ON UPDATE CURRENT_TIMESTAMP). The PostgreSQL and
// SQLite dialects adapt quoting and keywords but preserve the column-clause
// generation algorithm so the synchronizer behaves identically everywhere.
package dialect

import (
	"github.com/keystone-gg/keystone/internal/schema"
)

// Dialect defines the interface for database-specific SQL generation.
// Implementations exist for MySQL, PostgreSQL, and SQLite.
type Dialect interface {
	// Name returns the dialect name (mysql, postgres, sqlite).
	Name() string

	// DriverName returns the database/sql driver name to open connections with.
	DriverName() string

	// QuoteIdent quotes a table or column identifier.
	// MySQL: `name`; PostgreSQL/SQLite: "name"
	QuoteIdent(name string) string

	// Placeholder returns a parameter placeholder for the given index (1-based).
	// MySQL/SQLite: ?; PostgreSQL: $1, $2, ...
	Placeholder(index int) string

	// ColumnClause generates the column definition clause used inside
	// CREATE TABLE and ALTER TABLE statements:
	// name, type, optional length, auto-increment, NOT NULL, DEFAULT, ON UPDATE.
	ColumnClause(col schema.Column) string

	// CreateTableSQL generates a CREATE TABLE IF NOT EXISTS statement with
	// one clause per column, a composite PRIMARY KEY clause for all primary
	// columns, and one UNIQUE KEY clause per unique-but-not-primary column.
	CreateTableSQL(t *schema.Table) (string, error)

	// AddColumnSQL generates ALTER TABLE ... ADD COLUMN for one column.
	AddColumnSQL(table string, col schema.Column) (string, error)

	// ModifyColumnSQL generates the statement altering an existing column to
	// match the schema definition.
	// SQLite has no ALTER COLUMN and returns an error (table recreation
	// pattern is out of scope for the synchronizer).
	ModifyColumnSQL(table string, col schema.Column) (string, error)

	// AddUniqueKeySQL generates the statement adding a unique constraint for
	// a column that was added after table creation.
	AddUniqueKeySQL(table, column string) (string, error)

	// DropTableSQL generates DROP TABLE IF EXISTS. Only the orphan scanner
	// ever executes this; the synchronizer never drops.
	DropTableSQL(table string) string
}

// Get returns the dialect implementation for the given name.
// Valid names: "mysql", "mariadb", "postgres", "postgresql", "sqlite", "sqlite3".
// Returns nil if the dialect is not supported.
func Get(name string) Dialect {
	switch name {
	case "mysql", "mariadb":
		return MySQL()
	case "postgres", "postgresql":
		return Postgres()
	case "sqlite", "sqlite3":
		return SQLite()
	default:
		return nil
	}
}

// Names returns the list of supported dialect names in probe priority order.
func Names() []string {
	return []string{"mysql", "postgres", "sqlite"}
}
