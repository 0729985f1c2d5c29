// Package driver presents one stable asynchronous contract over whichever
// SQL backend is active. Every call accepts a result callback and the
// callback fires exactly once: a guard timer delivers the failure sentinel
// if the backend never answers, so dependent initialization logic can never
// hang on a swallowed completion.
//
// Failure and timeout are deliberately indistinguishable to callers: both
// arrive as the same sentinel (ok=false, empty row set). Retry policy
// belongs to the caller.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DefaultGuardTimeout is the fixed per-call delay after which the guard
// fires the callback with the failure sentinel.
const DefaultGuardTimeout = 5 * time.Second

// backendSlack extends the backend's own deadline past the guard so a slow
// statement can still finish server-side after the caller has been told.
const backendSlack = 6

// Callback signatures for the async contract.
type (
	// ExecFunc receives the affected-row count; ok is false on failure.
	ExecFunc func(affected int64, ok bool)
	// RowsFunc receives all rows; empty (never nil) on no match or failure.
	RowsFunc func(rows []Row)
	// RowFunc receives the single row, or nil on no match or failure.
	RowFunc func(row Row)
	// ScalarFunc receives the first column of the first row.
	ScalarFunc func(value any, ok bool)
	// InsertFunc receives the backend-assigned insert id; ok is false on failure.
	InsertFunc func(insertID int64, ok bool)
	// BoolFunc receives transaction success.
	BoolFunc func(ok bool)
)

// Adapter is the async database adapter. All methods return immediately;
// results arrive on the supplied callback from another goroutine.
type Adapter struct {
	backend Backend
	dial    DialectInfo
	guard   time.Duration
	log     *slog.Logger
	tokens  *tokenRegistry
}

// DialectInfo is the slice of dialect behavior the adapter needs.
type DialectInfo interface {
	Name() string
	QuoteIdent(name string) string
	Placeholder(index int) string
}

// New creates an Adapter over an open backend.
// A zero guard timeout falls back to DefaultGuardTimeout; a nil logger
// falls back to slog.Default().
func New(backend Backend, dial DialectInfo, guard time.Duration, log *slog.Logger) *Adapter {
	if guard <= 0 {
		guard = DefaultGuardTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		backend: backend,
		dial:    dial,
		guard:   guard,
		log:     log,
		tokens:  newTokenRegistry(),
	}
}

// Dialect returns the dialect info the adapter was built with.
func (a *Adapter) Dialect() DialectInfo {
	return a.dial
}

// Pending returns the number of in-flight calls.
func (a *Adapter) Pending() int {
	return a.tokens.Pending()
}

// Close releases the underlying backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

// -----------------------------------------------------------------------------
// Async contract
// -----------------------------------------------------------------------------

// Execute runs a statement and reports the affected-row count.
func (a *Adapter) Execute(query string, args []any, cb ExecFunc) {
	a.guarded("execute", query,
		func() { cb(0, false) },
		func(ctx context.Context) (func(), error) {
			affected, _, err := a.backend.Exec(ctx, query, args)
			if err != nil {
				return nil, err
			}
			return func() { cb(affected, true) }, nil
		})
}

// Fetch runs a query and reports all matching rows.
func (a *Adapter) Fetch(query string, args []any, cb RowsFunc) {
	a.guarded("fetch", query,
		func() { cb([]Row{}) },
		func(ctx context.Context) (func(), error) {
			rows, err := a.backend.Query(ctx, query, args)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []Row{}
			}
			return func() { cb(rows) }, nil
		})
}

// FetchOne runs a query and reports the first row, or nil.
func (a *Adapter) FetchOne(query string, args []any, cb RowFunc) {
	a.guarded("fetchOne", query,
		func() { cb(nil) },
		func(ctx context.Context) (func(), error) {
			rows, err := a.backend.Query(ctx, query, args)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return func() { cb(nil) }, nil
			}
			return func() { cb(rows[0]) }, nil
		})
}

// FetchScalar runs a query and reports the first column of the first row.
// Intended for single-column queries (COUNT, MAX); with multiple columns
// the choice of column is unspecified.
func (a *Adapter) FetchScalar(query string, args []any, cb ScalarFunc) {
	a.guarded("fetchScalar", query,
		func() { cb(nil, false) },
		func(ctx context.Context) (func(), error) {
			rows, err := a.backend.Query(ctx, query, args)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return func() { cb(nil, false) }, nil
			}
			for _, v := range rows[0] {
				value := v
				return func() { cb(value, true) }, nil
			}
			return func() { cb(nil, false) }, nil
		})
}

// Insert runs an INSERT and reports the backend-assigned insert id.
func (a *Adapter) Insert(query string, args []any, cb InsertFunc) {
	a.guarded("insert", query,
		func() { cb(0, false) },
		func(ctx context.Context) (func(), error) {
			_, insertID, err := a.backend.Exec(ctx, query, args)
			if err != nil {
				return nil, err
			}
			return func() { cb(insertID, true) }, nil
		})
}

// Transaction runs all statements inside one transaction and reports success.
func (a *Adapter) Transaction(stmts []Statement, cb BoolFunc) {
	query := ""
	if len(stmts) > 0 {
		query = stmts[0].Query
	}
	a.guarded("transaction", query,
		func() { cb(false) },
		func(ctx context.Context) (func(), error) {
			if err := a.backend.Batch(ctx, stmts); err != nil {
				return nil, err
			}
			return func() { cb(true) }, nil
		})
}

// guarded runs work on its own goroutine with the single-fire guard:
// the timer delivers sentinel if the backend never answers, and a late
// real completion after the guard fired is dropped.
func (a *Adapter) guarded(op, query string, sentinel func(), work func(ctx context.Context) (func(), error)) {
	tok := a.tokens.create()

	timer := time.AfterFunc(a.guard, func() {
		if !tok.fire() {
			return
		}
		a.tokens.release(tok)
		a.log.Warn("database call timed out, delivering failure sentinel",
			"op", op,
			"token", tok.id,
			"query", truncateQuery(query),
			"timeout", a.guard)
		sentinel()
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.guard*backendSlack)
		defer cancel()

		deliver, err := work(ctx)

		timer.Stop()
		if !tok.fire() {
			// Guard already answered the caller; drop the late result.
			return
		}
		a.tokens.release(tok)

		if err != nil {
			a.log.Error("database call failed",
				"op", op,
				"query", truncateQuery(query),
				"error", err)
			sentinel()
			return
		}
		deliver()
	}()
}

// -----------------------------------------------------------------------------
// Synchronous wrappers
// -----------------------------------------------------------------------------

// These block on the async contract and exist for the sequential startup
// paths (synchronizer, gate, orphan scanner) and the CLI. The guard still
// bounds the wait, so they cannot stall forever.

// ExecuteSync blocks until Execute completes.
func (a *Adapter) ExecuteSync(query string, args []any) (int64, bool) {
	type result struct {
		affected int64
		ok       bool
	}
	ch := make(chan result, 1)
	a.Execute(query, args, func(affected int64, ok bool) {
		ch <- result{affected, ok}
	})
	r := <-ch
	return r.affected, r.ok
}

// FetchSync blocks until Fetch completes.
func (a *Adapter) FetchSync(query string, args []any) []Row {
	ch := make(chan []Row, 1)
	a.Fetch(query, args, func(rows []Row) { ch <- rows })
	return <-ch
}

// FetchScalarSync blocks until FetchScalar completes.
func (a *Adapter) FetchScalarSync(query string, args []any) (any, bool) {
	type result struct {
		value any
		ok    bool
	}
	ch := make(chan result, 1)
	a.FetchScalar(query, args, func(value any, ok bool) {
		ch <- result{value, ok}
	})
	r := <-ch
	return r.value, r.ok
}

// -----------------------------------------------------------------------------
// Escaping
// -----------------------------------------------------------------------------

// Escape renders a value as a SQL literal. The query builder never uses
// this (all user values travel as bound parameters) but raw statement
// callers occasionally need it.
func (a *Adapter) Escape(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return a.escapeString(v)
	default:
		return a.escapeString(fmt.Sprintf("%v", v))
	}
}

func (a *Adapter) escapeString(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	if a.dial.Name() == "mysql" {
		s = strings.ReplaceAll(s, `\`, `\\`)
	}
	return "'" + s + "'"
}

// truncateQuery keeps log lines readable.
func truncateQuery(q string) string {
	const max = 120
	if len(q) > max {
		return q[:max] + "..."
	}
	return q
}
