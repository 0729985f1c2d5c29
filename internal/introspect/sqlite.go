package introspect

import "strings"

// sqliteIntrospector reads sqlite_schema and table_info pragmas.
type sqliteIntrospector struct {
	q Querier
}

func (s *sqliteIntrospector) TableExists(table string) bool {
	value, ok := s.q.FetchScalarSync(
		`SELECT COUNT(*) FROM sqlite_schema WHERE type = 'table' AND name = ?`,
		[]any{table})
	return scalarBool(value, ok)
}

func (s *sqliteIntrospector) Columns(table string) []Column {
	// PRAGMA arguments cannot be bound; the pragma_table_info table-valued
	// function accepts the name as a regular parameter.
	rows := s.q.FetchSync(
		`SELECT name, type, "notnull", dflt_value FROM pragma_table_info(?)`,
		[]any{table})

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		notNull := false
		switch v := row["notnull"].(type) {
		case int64:
			notNull = v != 0
		case bool:
			notNull = v
		}

		cols = append(cols, Column{
			Name:       rowString(row, "name"),
			Type:       strings.ToLower(rowString(row, "type")),
			Nullable:   !notNull,
			Default:    rowString(row, "dflt_value"),
			HasDefault: row["dflt_value"] != nil,
		})
	}
	return cols
}

func (s *sqliteIntrospector) ListTables() ([]string, error) {
	count, ok := s.q.FetchScalarSync(
		`SELECT COUNT(*) FROM sqlite_schema WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`, nil)
	if !ok {
		return nil, listTablesError("sqlite")
	}
	if !scalarBool(count, ok) {
		return []string{}, nil
	}

	rows := s.q.FetchSync(
		`SELECT name FROM sqlite_schema
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`, nil)

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := rowString(row, "name"); name != "" {
			tables = append(tables, name)
		}
	}
	return tables, nil
}
