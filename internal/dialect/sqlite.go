package dialect

import (
	"strconv"
	"strings"

	"github.com/keystone-gg/keystone/internal/kerr"
	"github.com/keystone-gg/keystone/internal/schema"
)

// sqlite implements the Dialect interface for SQLite.
// SQLite backs the integration tests and small single-host deployments.
type sqlite struct{}

// SQLite returns the SQLite dialect implementation.
func SQLite() Dialect {
	return &sqlite{}
}

func (d *sqlite) Name() string {
	return "sqlite"
}

func (d *sqlite) DriverName() string {
	// modernc.org/sqlite registers as "sqlite".
	return "sqlite"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *sqlite) QuoteIdent(name string) string {
	return quoteIdentDoubleQuote(name)
}

func (d *sqlite) Placeholder(index int) string {
	return "?"
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *sqlite) ColumnClause(col schema.Column) string {
	clause := buildColumnClause(col, ColumnClauseConfig{
		QuoteIdent: d.QuoteIdent,
		TypeSQL:    d.typeSQL,
		// AUTOINCREMENT is only legal as INTEGER PRIMARY KEY AUTOINCREMENT,
		// appended below rather than via the shared keyword slot.
		AutoIncrement:    "",
		SupportsOnUpdate: false,
	})

	if d.inlinePK(col) {
		clause += " PRIMARY KEY AUTOINCREMENT"
	}
	return clause
}

func (d *sqlite) CreateTableSQL(t *schema.Table) (string, error) {
	return buildCreateTableSQL(t, d.QuoteIdent, d.ColumnClause, d.uniqueClause, d.inlinePK), nil
}

func (d *sqlite) AddColumnSQL(table string, col schema.Column) (string, error) {
	// SQLite rejects adding a UNIQUE or PRIMARY KEY column via ALTER TABLE;
	// the separate CREATE UNIQUE INDEX path covers uniqueness.
	stripped := col
	stripped.Unique = false
	stripped.Primary = false
	return buildAddColumnSQL(table, stripped, d.QuoteIdent, d.ColumnClause), nil
}

func (d *sqlite) ModifyColumnSQL(table string, col schema.Column) (string, error) {
	// SQLite has no ALTER COLUMN. Modifying a column requires the table
	// recreation pattern (create, copy, drop, rename), which the
	// synchronizer does not perform.
	return "", kerr.New(kerr.ErrSQLExecution, "sqlite does not support ALTER COLUMN; use table recreation").
		WithTable(table).
		With("column", col.Name)
}

func (d *sqlite) AddUniqueKeySQL(table, column string) (string, error) {
	return "CREATE UNIQUE INDEX IF NOT EXISTS " + d.QuoteIdent(uniqueKeyName(table, column)) +
		" ON " + d.QuoteIdent(table) + " (" + d.QuoteIdent(column) + ")", nil
}

func (d *sqlite) DropTableSQL(table string) string {
	return buildDropTableSQL(table, d.QuoteIdent)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// inlinePK reports whether the column's primary-key marker is rendered
// inline (AUTOINCREMENT requires INTEGER PRIMARY KEY on the column itself).
func (d *sqlite) inlinePK(col schema.Column) bool {
	return col.AutoIncrement && col.Primary
}

// typeSQL maps MySQL-flavoured schema types onto SQLite storage classes.
// Length qualifiers are kept for display-width fidelity; SQLite ignores them.
func (d *sqlite) typeSQL(col schema.Column) string {
	t := strings.ToUpper(col.Type)

	if col.AutoIncrement {
		return "INTEGER"
	}

	switch t {
	case "INT", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT":
		return "INTEGER"
	case "DOUBLE", "FLOAT", "DECIMAL":
		return "REAL"
	case "DATETIME", "TIMESTAMP":
		return "DATETIME"
	case "LONGTEXT", "MEDIUMTEXT", "TINYTEXT":
		return "TEXT"
	}

	if col.Length > 0 {
		return t + "(" + strconv.Itoa(col.Length) + ")"
	}
	return t
}

// uniqueClause renders the inline named UNIQUE constraint for CREATE TABLE.
func (d *sqlite) uniqueClause(table, column string) string {
	return "CONSTRAINT " + d.QuoteIdent(uniqueKeyName(table, column)) +
		" UNIQUE (" + d.QuoteIdent(column) + ")"
}
