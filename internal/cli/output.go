package cli

import (
	"strings"

	"github.com/keystone-gg/keystone/internal/gate"
)

// Table provides formatted table output.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		widths:  widths,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.headers) {
		cells = append(cells, "")
	}
	for i, cell := range cells {
		if i < len(t.widths) && len(cell) > t.widths[i] {
			t.widths[i] = len(cell)
		}
	}
	t.rows = append(t.rows, cells)
}

// String renders the table as a string.
func (t *Table) String() string {
	if len(t.headers) == 0 {
		return ""
	}

	var b strings.Builder

	for i, h := range t.headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Header(padRight(h, t.widths[i])))
	}
	b.WriteString("\n")

	for i, w := range t.widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(Dim(strings.Repeat("─", w)))
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(t.widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(padRight(cell, t.widths[i]))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// padRight pads a string to the right with spaces.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// RenderMigrations renders the gate's pending queue as a diff summary, one
// line per changed column plus the statements that an accept would run.
func RenderMigrations(pending []gate.Migration) string {
	if len(pending) == 0 {
		return Success("no migrations pending") + "\n"
	}

	var b strings.Builder
	for _, m := range pending {
		b.WriteString(Header(m.Table) + "\n")
		for _, col := range m.Diff.Adds {
			b.WriteString("  " + Add("+ "+col) + "\n")
		}
		for _, col := range m.Diff.Modifies {
			b.WriteString("  " + Modify("~ "+col) + "\n")
		}
		for _, col := range m.Diff.Drops {
			b.WriteString("  " + Drop("- "+col) + Dim(" (left in place)") + "\n")
		}
		for _, stmt := range m.Statements {
			b.WriteString("  " + Dim(stmt) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
