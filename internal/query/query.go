// Package query implements the fluent query builder. A builder accumulates
// WHERE/ORDER/LIMIT/OFFSET/SELECT state and compiles to parameterized SQL
// only when a terminal operation runs, so accumulated state is always
// reflected. All user-supplied values travel as bound parameters;
// identifiers are dialect-quoted, never parameterized.
//
// Reusing a builder after a terminal operation is legal but conditions
// accumulate: a second Get sees every Where issued so far. Callers that
// want a clean slate start a new builder.
package query

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/keystone-gg/keystone/internal/driver"
)

// Executor is the slice of the driver adapter the builder compiles into.
type Executor interface {
	Execute(query string, args []any, cb driver.ExecFunc)
	Fetch(query string, args []any, cb driver.RowsFunc)
	FetchScalar(query string, args []any, cb driver.ScalarFunc)
	Insert(query string, args []any, cb driver.InsertFunc)
	Dialect() driver.DialectInfo
}

// CountFunc receives the row count from Count.
type CountFunc func(count int64, ok bool)

type condition struct {
	column   string
	operator string
	value    any
}

type ordering struct {
	column    string
	direction string
}

// Builder accumulates query state for one table. Methods return the same
// builder to allow chaining; terminal operations compile and execute.
type Builder struct {
	exec    Executor
	log     *slog.Logger
	table   string
	selects []string
	wheres  []condition
	orderBy *ordering
	limit   int
	offset  int
}

// New starts a builder for the given table.
func New(exec Executor, log *slog.Logger, table string) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		exec:   exec,
		log:    log,
		table:  table,
		limit:  -1,
		offset: -1,
	}
}

// Select sets the projected columns. Default is *.
func (b *Builder) Select(columns ...string) *Builder {
	b.selects = columns
	return b
}

// Where appends a condition. The two-argument form implies operator "=":
//
//	Where("id", 7)          // id = ?
//	Where("cash", ">", 100) // cash > ?
//
// Multiple Where calls are ANDed together in call order. There is no OR
// and no grouping.
func (b *Builder) Where(column string, args ...any) *Builder {
	switch len(args) {
	case 1:
		b.wheres = append(b.wheres, condition{column: column, operator: "=", value: args[0]})
	case 2:
		op, _ := args[0].(string)
		if op == "" {
			op = "="
		}
		b.wheres = append(b.wheres, condition{column: column, operator: op, value: args[1]})
	default:
		b.log.Warn("where called with unsupported argument count, condition ignored",
			"table", b.table, "column", column, "args", len(args))
	}
	return b
}

// OrderBy sets a single-column sort; default direction is ASC. A second
// call overwrites the first.
func (b *Builder) OrderBy(column string, direction ...string) *Builder {
	dir := "ASC"
	if len(direction) > 0 && strings.EqualFold(direction[0], "DESC") {
		dir = "DESC"
	}
	b.orderBy = &ordering{column: column, direction: dir}
	return b
}

// Limit bounds the result set.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset skips leading rows; applied after ORDER BY in generated SQL.
func (b *Builder) Offset(n int) *Builder {
	b.offset = n
	return b
}

// -----------------------------------------------------------------------------
// Terminal operations
// -----------------------------------------------------------------------------

// Get compiles and runs the SELECT. The callback receives an empty slice,
// never nil, on no match.
func (b *Builder) Get(cb driver.RowsFunc) {
	sql, args := b.compileSelect()
	b.exec.Fetch(sql, args, cb)
}

// First is Limit(1) + Get, unwrapped to the single row or nil.
func (b *Builder) First(cb driver.RowFunc) {
	b.limit = 1
	sql, args := b.compileSelect()
	b.exec.Fetch(sql, args, func(rows []driver.Row) {
		if len(rows) == 0 {
			cb(nil)
			return
		}
		cb(rows[0])
	})
}

// Insert compiles an INSERT with one placeholder per provided column, in
// sorted column order so generated SQL and parameter sequence are
// deterministic. The callback receives the backend-assigned insert id.
func (b *Builder) Insert(data map[string]any, cb driver.InsertFunc) {
	d := b.exec.Dialect()
	columns := sortedKeys(data)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdent(col)
		placeholders[i] = d.Placeholder(i + 1)
		args[i] = data[col]
	}

	sql := "INSERT INTO " + d.QuoteIdent(b.table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	b.exec.Insert(sql, args, cb)
}

// Update compiles an UPDATE with a SET clause per provided column followed
// by the accumulated WHERE clause. Parameter order is SET values then WHERE
// values. An empty WHERE clause updates every row; it still executes, with
// a warning.
func (b *Builder) Update(data map[string]any, cb driver.ExecFunc) {
	if len(b.wheres) == 0 {
		b.log.Warn("update without where clause affects every row",
			"table", b.table)
	}

	d := b.exec.Dialect()
	columns := sortedKeys(data)

	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+len(b.wheres))
	idx := 1
	for i, col := range columns {
		sets[i] = d.QuoteIdent(col) + " = " + d.Placeholder(idx)
		args = append(args, data[col])
		idx++
	}

	sql := "UPDATE " + d.QuoteIdent(b.table) + " SET " + strings.Join(sets, ", ")
	whereSQL, whereArgs := b.compileWhere(idx)
	sql += whereSQL
	args = append(args, whereArgs...)

	b.exec.Execute(sql, args, cb)
}

// Delete compiles a DELETE honoring the WHERE clause. With no conditions it
// still executes as a full-table delete; the warning is advisory only.
func (b *Builder) Delete(cb driver.ExecFunc) {
	if len(b.wheres) == 0 {
		b.log.Warn("DELETE WITHOUT WHERE CLAUSE - this removes every row",
			"table", b.table)
	}

	d := b.exec.Dialect()
	sql := "DELETE FROM " + d.QuoteIdent(b.table)
	whereSQL, args := b.compileWhere(1)
	sql += whereSQL

	b.exec.Execute(sql, args, cb)
}

// Count compiles SELECT COUNT(*) with the WHERE clause.
func (b *Builder) Count(cb CountFunc) {
	d := b.exec.Dialect()
	sql := "SELECT COUNT(*) FROM " + d.QuoteIdent(b.table)
	whereSQL, args := b.compileWhere(1)
	sql += whereSQL

	b.exec.FetchScalar(sql, args, func(value any, ok bool) {
		if !ok {
			cb(0, false)
			return
		}
		cb(toInt64(value), true)
	})
}

// -----------------------------------------------------------------------------
// Compilation
// -----------------------------------------------------------------------------

func (b *Builder) compileSelect() (string, []any) {
	d := b.exec.Dialect()

	projection := "*"
	if len(b.selects) > 0 {
		quoted := make([]string, len(b.selects))
		for i, col := range b.selects {
			quoted[i] = d.QuoteIdent(col)
		}
		projection = strings.Join(quoted, ", ")
	}

	sql := "SELECT " + projection + " FROM " + d.QuoteIdent(b.table)
	whereSQL, args := b.compileWhere(1)
	sql += whereSQL

	if b.orderBy != nil {
		sql += " ORDER BY " + d.QuoteIdent(b.orderBy.column) + " " + b.orderBy.direction
	}
	if b.limit >= 0 {
		sql += " LIMIT " + strconv.Itoa(b.limit)
	}
	if b.offset >= 0 {
		sql += " OFFSET " + strconv.Itoa(b.offset)
	}
	return sql, args
}

// compileWhere renders the accumulated conditions ANDed in call order, one
// placeholder per condition, starting at placeholder index firstIdx.
func (b *Builder) compileWhere(firstIdx int) (string, []any) {
	if len(b.wheres) == 0 {
		return "", nil
	}

	d := b.exec.Dialect()
	parts := make([]string, len(b.wheres))
	args := make([]any, len(b.wheres))
	for i, c := range b.wheres {
		parts[i] = d.QuoteIdent(c.column) + " " + c.operator + " " + d.Placeholder(firstIdx+i)
		args[i] = c.value
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion order is not observable on Go maps; sorted order keeps the
	// generated SQL and parameter sequence deterministic.
	sort.Strings(keys)
	return keys
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
