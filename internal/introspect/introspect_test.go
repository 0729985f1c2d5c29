package introspect

import (
	"strings"
	"testing"

	"github.com/keystone-gg/keystone/internal/driver"
)

// fakeQuerier matches queries by substring and returns scripted results.
type fakeQuerier struct {
	rows    map[string][]driver.Row
	scalars map[string]any
	failAll bool
}

func (f *fakeQuerier) FetchSync(query string, args []any) []driver.Row {
	if f.failAll {
		return []driver.Row{}
	}
	for key, rows := range f.rows {
		if strings.Contains(query, key) {
			return rows
		}
	}
	return []driver.Row{}
}

func (f *fakeQuerier) FetchScalarSync(query string, args []any) (any, bool) {
	if f.failAll {
		return nil, false
	}
	for key, v := range f.scalars {
		if strings.Contains(query, key) {
			return v, true
		}
	}
	return nil, false
}

func TestNewDialects(t *testing.T) {
	q := &fakeQuerier{}
	for _, name := range []string{"mysql", "postgres", "sqlite"} {
		if New(q, name) == nil {
			t.Errorf("New(%s) returned nil", name)
		}
	}
	if New(q, "oracle") != nil {
		t.Error("unknown dialect should return nil")
	}
}

func TestMySQLColumns(t *testing.T) {
	q := &fakeQuerier{
		rows: map[string][]driver.Row{
			"information_schema.COLUMNS": {
				{"COLUMN_NAME": "id", "COLUMN_TYPE": "int(11)", "IS_NULLABLE": "NO", "COLUMN_DEFAULT": nil, "EXTRA": "auto_increment"},
				{"COLUMN_NAME": "name", "COLUMN_TYPE": "varchar(60)", "IS_NULLABLE": "YES", "COLUMN_DEFAULT": "guest", "EXTRA": ""},
			},
		},
	}

	cols := New(q, "mysql").Columns("players")
	if len(cols) != 2 {
		t.Fatalf("got %d columns, want 2", len(cols))
	}
	if cols[0].Name != "id" || cols[0].Type != "int(11)" || cols[0].Nullable {
		t.Errorf("id column parsed wrong: %+v", cols[0])
	}
	if cols[0].Extra != "auto_increment" {
		t.Errorf("extra flag lost: %+v", cols[0])
	}
	if !cols[1].Nullable || !cols[1].HasDefault || cols[1].Default != "guest" {
		t.Errorf("name column parsed wrong: %+v", cols[1])
	}
}

func TestColumnsFailureYieldsEmptySet(t *testing.T) {
	q := &fakeQuerier{failAll: true}
	cols := New(q, "mysql").Columns("players")
	if len(cols) != 0 {
		t.Errorf("failed introspection must yield empty set, got %d", len(cols))
	}
}

func TestTableExists(t *testing.T) {
	q := &fakeQuerier{scalars: map[string]any{"information_schema.TABLES": int64(1)}}
	if !New(q, "mysql").TableExists("players") {
		t.Error("expected table to exist")
	}

	q = &fakeQuerier{scalars: map[string]any{"information_schema.TABLES": int64(0)}}
	if New(q, "mysql").TableExists("players") {
		t.Error("expected table to not exist")
	}

	// Scalar failure reads as absent.
	q = &fakeQuerier{failAll: true}
	if New(q, "mysql").TableExists("players") {
		t.Error("failed probe must read as absent")
	}
}

func TestListTablesDistinguishesFailureFromEmpty(t *testing.T) {
	// Catalog failure: error, not empty list.
	q := &fakeQuerier{failAll: true}
	if _, err := New(q, "mysql").ListTables(); err == nil {
		t.Error("catalog failure must surface as an error")
	}

	// Healthy but empty database: empty list, no error.
	q = &fakeQuerier{scalars: map[string]any{"information_schema.TABLES": int64(0)}}
	tables, err := New(q, "mysql").ListTables()
	if err != nil {
		t.Fatalf("empty database must not error: %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("expected no tables, got %v", tables)
	}
}

func TestSQLiteColumns(t *testing.T) {
	q := &fakeQuerier{
		rows: map[string][]driver.Row{
			"pragma_table_info": {
				{"name": "id", "type": "INTEGER", "notnull": int64(1), "dflt_value": nil},
				{"name": "label", "type": "TEXT", "notnull": int64(0), "dflt_value": "'x'"},
			},
		},
	}

	cols := New(q, "sqlite").Columns("props")
	if len(cols) != 2 {
		t.Fatalf("got %d columns", len(cols))
	}
	if cols[0].Nullable || cols[0].Type != "integer" {
		t.Errorf("id parsed wrong: %+v", cols[0])
	}
	if !cols[1].Nullable || !cols[1].HasDefault {
		t.Errorf("label parsed wrong: %+v", cols[1])
	}
}

func TestPostgresDisplayType(t *testing.T) {
	cases := []struct {
		dataType  any
		maxLength any
		want      string
	}{
		{"character varying", int64(60), "varchar(60)"},
		{"integer", nil, "integer"},
		{"timestamp without time zone", nil, "timestamp"},
		{"double precision", nil, "double"},
	}
	for _, tc := range cases {
		if got := pgDisplayType(tc.dataType, tc.maxLength); got != tc.want {
			t.Errorf("pgDisplayType(%v, %v) = %q, want %q", tc.dataType, tc.maxLength, got, tc.want)
		}
	}
}
