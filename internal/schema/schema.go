// Package schema defines the table and column model used by the registry,
// the synchronizer, and the query layer. A Table is an ordered set of
// column definitions; order is irrelevant for storage but drives the
// readability of generated SQL.
package schema

import (
	"strconv"
	"strings"

	"github.com/keystone-gg/keystone/internal/kerr"
)

// Keyword default expressions that must never be quoted when rendered.
const (
	DefaultCurrentTimestamp = "CURRENT_TIMESTAMP"
	DefaultNull             = "NULL"
)

// Column describes one column of a table schema.
type Column struct {
	Name          string
	Type          string // SQL type name, e.g. "VARCHAR", "INT", "TEXT"
	Length        int    // 0 means unqualified (no display width / length)
	NotNull       bool
	Unique        bool
	Primary       bool
	AutoIncrement bool
	Default       string // raw default expression; see HasDefault
	HasDefault    bool
	OnUpdate      string // e.g. "CURRENT_TIMESTAMP"
}

// TypeString returns the normalized type string used for diffing:
// "type(length)" when a length is set, the bare type otherwise.
// Always lower-case so comparisons are case-insensitive.
func (c Column) TypeString() string {
	t := strings.ToLower(c.Type)
	if c.Length > 0 {
		return t + "(" + strconv.Itoa(c.Length) + ")"
	}
	return t
}

// Table is a named, ordered collection of column definitions.
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the definition for the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in definition order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryColumns returns the names of all columns flagged primary,
// in definition order. Multi-column primary keys are allowed.
func (t *Table) PrimaryColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Primary {
			names = append(names, c.Name)
		}
	}
	return names
}

// UniqueColumns returns the names of columns flagged unique that are not
// part of the primary key, in definition order.
func (t *Table) UniqueColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Unique && !c.Primary {
			names = append(names, c.Name)
		}
	}
	return names
}

// Validate checks the table definition for structural problems.
func (t *Table) Validate() error {
	if t.Name == "" {
		return kerr.New(kerr.ErrSchemaInvalid, "table name cannot be empty")
	}
	if len(t.Columns) == 0 {
		return kerr.New(kerr.ErrSchemaEmpty, "schema has no columns").WithTable(t.Name)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return kerr.New(kerr.ErrSchemaInvalid, "column name cannot be empty").WithTable(t.Name)
		}
		if seen[c.Name] {
			return kerr.New(kerr.ErrSchemaInvalid, "duplicate column name").
				WithTable(t.Name).
				With("column", c.Name)
		}
		seen[c.Name] = true
		if c.Type == "" {
			return kerr.New(kerr.ErrSchemaInvalid, "column type cannot be empty").
				WithTable(t.Name).
				With("column", c.Name)
		}
	}
	return nil
}

// Clone returns a deep copy of the table definition.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Name: t.Name, Columns: cols}
}

// Diff is the result of comparing a registered schema against the live
// columns of an existing table.
type Diff struct {
	Adds     []string // schema columns absent from the live table
	Modifies []string // columns whose type or NOT NULL strictness differs
	Drops    []string // live columns absent from the schema; informational only
}

// HasChanges reports whether the diff would generate any ALTER statement.
// Drops are informational and never generate SQL, but they still count as
// a change worth surfacing to the operator.
func (d *Diff) HasChanges() bool {
	return len(d.Adds) > 0 || len(d.Modifies) > 0 || len(d.Drops) > 0
}
