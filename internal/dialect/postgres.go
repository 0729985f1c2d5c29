package dialect

import (
	"strconv"
	"strings"

	"github.com/keystone-gg/keystone/internal/schema"
)

// postgres implements the Dialect interface for PostgreSQL.
type postgres struct{}

// Postgres returns the PostgreSQL dialect implementation.
func Postgres() Dialect {
	return &postgres{}
}

func (d *postgres) Name() string {
	return "postgres"
}

func (d *postgres) DriverName() string {
	return "postgres"
}

// -----------------------------------------------------------------------------
// Identifiers
// -----------------------------------------------------------------------------

func (d *postgres) QuoteIdent(name string) string {
	return quoteIdentDoubleQuote(name)
}

func (d *postgres) Placeholder(index int) string {
	return "$" + strconv.Itoa(index)
}

// -----------------------------------------------------------------------------
// SQL generation
// -----------------------------------------------------------------------------

func (d *postgres) ColumnClause(col schema.Column) string {
	return buildColumnClause(col, ColumnClauseConfig{
		QuoteIdent: d.QuoteIdent,
		TypeSQL:    d.typeSQL,
		// Auto-increment is folded into the type (identity column).
		AutoIncrement: "",
		// PostgreSQL has no ON UPDATE column attribute; a trigger would be
		// required, which the synchronizer does not manage.
		SupportsOnUpdate: false,
	})
}

func (d *postgres) CreateTableSQL(t *schema.Table) (string, error) {
	return buildCreateTableSQL(t, d.QuoteIdent, d.ColumnClause, d.uniqueClause, nil), nil
}

func (d *postgres) AddColumnSQL(table string, col schema.Column) (string, error) {
	return buildAddColumnSQL(table, col, d.QuoteIdent, d.ColumnClause), nil
}

// ModifyColumnSQL emits a single ALTER TABLE with comma-separated actions:
// type change plus SET/DROP NOT NULL. PostgreSQL executes the actions
// atomically.
func (d *postgres) ModifyColumnSQL(table string, col schema.Column) (string, error) {
	column := d.QuoteIdent(col.Name)

	actions := []string{
		"ALTER COLUMN " + column + " TYPE " + d.typeSQL(col),
	}
	if col.NotNull {
		actions = append(actions, "ALTER COLUMN "+column+" SET NOT NULL")
	} else {
		actions = append(actions, "ALTER COLUMN "+column+" DROP NOT NULL")
	}
	if col.HasDefault {
		actions = append(actions, "ALTER COLUMN "+column+" SET DEFAULT "+defaultValueSQL(col.Default))
	}

	return "ALTER TABLE " + d.QuoteIdent(table) + " " + strings.Join(actions, ", "), nil
}

func (d *postgres) AddUniqueKeySQL(table, column string) (string, error) {
	return "ALTER TABLE " + d.QuoteIdent(table) +
		" ADD CONSTRAINT " + d.QuoteIdent(uniqueKeyName(table, column)) +
		" UNIQUE (" + d.QuoteIdent(column) + ")", nil
}

func (d *postgres) DropTableSQL(table string) string {
	return buildDropTableSQL(table, d.QuoteIdent)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// typeSQL maps MySQL-flavoured schema types onto PostgreSQL equivalents.
// Auto-increment integers become identity-compatible serial types.
func (d *postgres) typeSQL(col schema.Column) string {
	t := strings.ToUpper(col.Type)

	if col.AutoIncrement {
		switch t {
		case "BIGINT":
			return "BIGSERIAL"
		default:
			return "SERIAL"
		}
	}

	switch t {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT":
		return "INTEGER"
	case "BIGINT":
		return "BIGINT"
	case "DATETIME", "TIMESTAMP":
		return "TIMESTAMP"
	case "DOUBLE", "FLOAT":
		return "DOUBLE PRECISION"
	case "LONGTEXT", "MEDIUMTEXT", "TINYTEXT":
		return "TEXT"
	}

	if col.Length > 0 {
		return t + "(" + strconv.Itoa(col.Length) + ")"
	}
	return t
}

// uniqueClause renders the inline named UNIQUE constraint for CREATE TABLE.
func (d *postgres) uniqueClause(table, column string) string {
	return "CONSTRAINT " + d.QuoteIdent(uniqueKeyName(table, column)) +
		" UNIQUE (" + d.QuoteIdent(column) + ")"
}

// quoteIdentDoubleQuote quotes an identifier with double quotes, doubling
// embedded quotes. Shared by the PostgreSQL and SQLite dialects.
func quoteIdentDoubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
