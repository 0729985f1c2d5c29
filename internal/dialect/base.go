// Package dialect provides database-specific SQL generation.
// This file contains shared helper functions used by all dialect implementations.
package dialect

import (
	"strconv"
	"strings"

	"github.com/keystone-gg/keystone/internal/schema"
)

// QuoteIdentFunc is a function that quotes an identifier.
type QuoteIdentFunc func(name string) string

// ColumnClauseConfig controls how the shared column-clause builder renders
// dialect-specific pieces.
type ColumnClauseConfig struct {
	QuoteIdent QuoteIdentFunc
	// TypeSQL returns the rendered type, including length qualification.
	TypeSQL func(col schema.Column) string
	// AutoIncrement is the keyword appended for auto-increment columns.
	// Empty means the dialect folds auto-increment into TypeSQL instead.
	AutoIncrement string
	// SupportsOnUpdate enables the ON UPDATE clause (MySQL only).
	SupportsOnUpdate bool
}

// buildColumnClause generates a column definition clause. Clause order is
// fixed across dialects: name, type, auto-increment, NOT NULL, DEFAULT,
// ON UPDATE.
func buildColumnClause(col schema.Column, cfg ColumnClauseConfig) string {
	var b strings.Builder

	b.WriteString(cfg.QuoteIdent(col.Name))
	b.WriteString(" ")
	b.WriteString(cfg.TypeSQL(col))

	if col.AutoIncrement && cfg.AutoIncrement != "" {
		b.WriteString(" ")
		b.WriteString(cfg.AutoIncrement)
	}
	if col.NotNull {
		b.WriteString(" NOT NULL")
	}
	if col.HasDefault {
		b.WriteString(" DEFAULT ")
		b.WriteString(defaultValueSQL(col.Default))
	}
	if col.OnUpdate != "" && cfg.SupportsOnUpdate {
		b.WriteString(" ON UPDATE ")
		b.WriteString(col.OnUpdate)
	}

	return b.String()
}

// defaultValueSQL renders a default expression. Keyword expressions and
// numeric literals pass through raw; everything else is single-quoted with
// '' escaping.
func defaultValueSQL(value string) string {
	upper := strings.ToUpper(value)
	if upper == schema.DefaultCurrentTimestamp || upper == schema.DefaultNull {
		return upper
	}
	if isNumericLiteral(value) {
		return value
	}
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// isNumericLiteral reports whether s parses as an integer or float literal.
func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	return false
}

// uniqueKeyName derives the constraint name for a single-column unique key.
func uniqueKeyName(table, column string) string {
	return table + "_" + column + "_unique"
}

// buildCreateTableSQL assembles the CREATE TABLE statement shared by all
// dialects: one clause per column in schema order, a composite PRIMARY KEY
// clause covering every primary column, then one unique constraint per
// unique-but-not-primary column.
//
// inlinePK excludes the PRIMARY KEY clause for columns whose primary-key
// marker is already part of the column clause (SQLite AUTOINCREMENT).
func buildCreateTableSQL(t *schema.Table, quote QuoteIdentFunc, clause func(schema.Column) string, uniqueClause func(table, column string) string, inlinePK func(schema.Column) bool) string {
	var defs []string
	var pk []string

	for _, col := range t.Columns {
		defs = append(defs, clause(col))
		if col.Primary && (inlinePK == nil || !inlinePK(col)) {
			pk = append(pk, quote(col.Name))
		}
	}

	if len(pk) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}
	for _, name := range t.UniqueColumns() {
		defs = append(defs, uniqueClause(t.Name, name))
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(quote(t.Name))
	b.WriteString(" (")
	b.WriteString(strings.Join(defs, ", "))
	b.WriteString(")")
	return b.String()
}

// buildAddColumnSQL assembles ALTER TABLE ... ADD COLUMN.
func buildAddColumnSQL(table string, col schema.Column, quote QuoteIdentFunc, clause func(schema.Column) string) string {
	return "ALTER TABLE " + quote(table) + " ADD COLUMN " + clause(col)
}

// buildDropTableSQL assembles DROP TABLE IF EXISTS.
func buildDropTableSQL(table string, quote QuoteIdentFunc) string {
	return "DROP TABLE IF EXISTS " + quote(table)
}
