package introspect

import "strings"

// mysqlIntrospector reads information_schema for MySQL/MariaDB.
type mysqlIntrospector struct {
	q Querier
}

func (m *mysqlIntrospector) TableExists(table string) bool {
	value, ok := m.q.FetchScalarSync(
		`SELECT COUNT(*) FROM information_schema.TABLES
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND TABLE_TYPE = 'BASE TABLE'`,
		[]any{table})
	return scalarBool(value, ok)
}

func (m *mysqlIntrospector) Columns(table string) []Column {
	rows := m.q.FetchSync(
		`SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, EXTRA
		 FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		 ORDER BY ORDINAL_POSITION`,
		[]any{table})

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		def := rowString(row, "COLUMN_DEFAULT")
		cols = append(cols, Column{
			Name:       rowString(row, "COLUMN_NAME"),
			Type:       rowString(row, "COLUMN_TYPE"), // display type, e.g. int(11)
			Nullable:   strings.EqualFold(rowString(row, "IS_NULLABLE"), "YES"),
			Default:    def,
			HasDefault: row["COLUMN_DEFAULT"] != nil,
			Extra:      rowString(row, "EXTRA"),
		})
	}
	return cols
}

func (m *mysqlIntrospector) ListTables() ([]string, error) {
	// The scalar probe distinguishes a failed catalog query from an empty
	// database; the fetch sentinel alone cannot.
	count, ok := m.q.FetchScalarSync(
		`SELECT COUNT(*) FROM information_schema.TABLES
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'`, nil)
	if !ok {
		return nil, listTablesError("mysql")
	}
	if !scalarBool(count, ok) {
		return []string{}, nil
	}

	rows := m.q.FetchSync(
		`SELECT TABLE_NAME FROM information_schema.TABLES
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		 ORDER BY TABLE_NAME`, nil)

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if name := rowString(row, "TABLE_NAME"); name != "" {
			tables = append(tables, name)
		}
	}
	return tables, nil
}
