package introspect

import (
	"strconv"
	"strings"
)

// postgresIntrospector reads information_schema for PostgreSQL.
type postgresIntrospector struct {
	q Querier
}

func (p *postgresIntrospector) TableExists(table string) bool {
	value, ok := p.q.FetchScalarSync(
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_name = $1 AND table_type = 'BASE TABLE'`,
		[]any{table})
	return scalarBool(value, ok)
}

func (p *postgresIntrospector) Columns(table string) []Column {
	rows := p.q.FetchSync(
		`SELECT column_name, data_type, is_nullable, column_default, character_maximum_length
		 FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`,
		[]any{table})

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		cols = append(cols, Column{
			Name:       rowString(row, "column_name"),
			Type:       pgDisplayType(row["data_type"], row["character_maximum_length"]),
			Nullable:   strings.EqualFold(rowString(row, "is_nullable"), "YES"),
			Default:    rowString(row, "column_default"),
			HasDefault: row["column_default"] != nil,
		})
	}
	return cols
}

func (p *postgresIntrospector) ListTables() ([]string, error) {
	count, ok := p.q.FetchScalarSync(
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`, nil)
	if !ok {
		return nil, listTablesError("postgres")
	}
	if !scalarBool(count, ok) {
		return []string{}, nil
	}

	rows := p.q.FetchSync(
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		 ORDER BY table_name`, nil)

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := rowString(row, "table_name"); name != "" {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

// pgDisplayType renders the catalog type in the length-qualified form the
// diff algorithm expects, e.g. "character varying" + 60 -> "varchar(60)".
func pgDisplayType(dataType, maxLength any) string {
	t, _ := dataType.(string)
	t = strings.ToLower(t)

	switch t {
	case "character varying":
		t = "varchar"
	case "character":
		t = "char"
	case "timestamp without time zone", "timestamp with time zone":
		t = "timestamp"
	case "double precision":
		t = "double"
	}

	if length, ok := maxLength.(int64); ok && length > 0 {
		return t + "(" + strconv.FormatInt(length, 10) + ")"
	}
	return t
}
