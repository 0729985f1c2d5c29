package dialect

import (
	"strconv"
	"strings"

	"github.com/keystone-gg/keystone/internal/schema"
)

// mysql implements the Dialect interface for MySQL/MariaDB.
// This is the primary dialect: backtick quoting, AUTO_INCREMENT, and
// ON UPDATE CURRENT_TIMESTAMP all render natively.
type mysql struct{}

// MySQL returns the MySQL dialect implementation.
func MySQL() Dialect {
	return &mysql{}
}

func (d *mysql) Name() string {
	return "mysql"
}

func (d *mysql) DriverName() string {
	return "mysql"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *mysql) QuoteIdent(name string) string {
	// Backticks inside identifiers are doubled per MySQL quoting rules.
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *mysql) Placeholder(index int) string {
	return "?"
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *mysql) ColumnClause(col schema.Column) string {
	return buildColumnClause(col, ColumnClauseConfig{
		QuoteIdent:       d.QuoteIdent,
		TypeSQL:          d.typeSQL,
		AutoIncrement:    "AUTO_INCREMENT",
		SupportsOnUpdate: true,
	})
}

func (d *mysql) CreateTableSQL(t *schema.Table) (string, error) {
	return buildCreateTableSQL(t, d.QuoteIdent, d.ColumnClause, d.uniqueClause, nil), nil
}

func (d *mysql) AddColumnSQL(table string, col schema.Column) (string, error) {
	return buildAddColumnSQL(table, col, d.QuoteIdent, d.ColumnClause), nil
}

func (d *mysql) ModifyColumnSQL(table string, col schema.Column) (string, error) {
	return "ALTER TABLE " + d.QuoteIdent(table) + " MODIFY COLUMN " + d.ColumnClause(col), nil
}

func (d *mysql) AddUniqueKeySQL(table, column string) (string, error) {
	return "ALTER TABLE " + d.QuoteIdent(table) +
		" ADD UNIQUE KEY " + d.QuoteIdent(uniqueKeyName(table, column)) +
		" (" + d.QuoteIdent(column) + ")", nil
}

func (d *mysql) DropTableSQL(table string) string {
	return buildDropTableSQL(table, d.QuoteIdent)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// typeSQL renders the type with its optional length, e.g. VARCHAR(60).
func (d *mysql) typeSQL(col schema.Column) string {
	t := strings.ToUpper(col.Type)
	if col.Length > 0 {
		return t + "(" + strconv.Itoa(col.Length) + ")"
	}
	return t
}

// uniqueClause renders the inline UNIQUE KEY clause for CREATE TABLE.
func (d *mysql) uniqueClause(table, column string) string {
	return "UNIQUE KEY " + d.QuoteIdent(uniqueKeyName(table, column)) +
		" (" + d.QuoteIdent(column) + ")"
}
