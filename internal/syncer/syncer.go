// Package syncer reconciles registered table definitions against the live
// database. Missing tables are created immediately; structural differences
// on existing tables are turned into ALTER statements and queued on the
// migration gate for an operator decision. Nothing is ever dropped.
package syncer

import (
	"log/slog"
	"strings"

	"github.com/keystone-gg/keystone/internal/dialect"
	"github.com/keystone-gg/keystone/internal/drift"
	"github.com/keystone-gg/keystone/internal/gate"
	"github.com/keystone-gg/keystone/internal/introspect"
	"github.com/keystone-gg/keystone/internal/kerr"
	"github.com/keystone-gg/keystone/internal/schema"
)

// Inspector is the slice of the introspection layer the syncer needs.
type Inspector interface {
	TableExists(table string) bool
	Columns(table string) []introspect.Column
}

// Executor runs DDL statements synchronously.
type Executor interface {
	ExecuteSync(query string, args []any) (affected int64, ok bool)
}

// Queue receives migrations that need an operator decision.
type Queue interface {
	Queue(m gate.Migration) error
}

// Result describes what one SyncTable call did.
type Result struct {
	Table   string
	Created bool // table did not exist and was created
	Queued  bool // ALTER statements queued on the gate
	Skipped bool // fingerprint unchanged since last sync, nothing inspected
	Diff    schema.Diff
}

// Syncer reconciles one table at a time. Safe for concurrent use as long
// as no two goroutines sync the same table.
type Syncer struct {
	dial    dialect.Dialect
	inspect Inspector
	exec    Executor
	gate    Queue
	tracker *drift.Tracker
	log     *slog.Logger
}

// New builds a syncer. tracker may be nil to disable fingerprint skipping.
func New(dial dialect.Dialect, inspect Inspector, exec Executor, q Queue, tracker *drift.Tracker, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		dial:    dial,
		inspect: inspect,
		exec:    exec,
		gate:    q,
		tracker: tracker,
		log:     log,
	}
}

// SyncTable reconciles a single table definition.
//
// A failed introspection reads as an empty live column set, which produces
// a diff that re-adds every declared column. Those statements still pass
// through the gate, so a flaky catalog never alters the database without
// an operator looking at the result first.
func (s *Syncer) SyncTable(t *schema.Table) (*Result, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Table: t.Name}

	if s.tracker != nil && !s.tracker.Changed(t) {
		res.Skipped = true
		s.log.Debug("table unchanged since last sync", "table", t.Name)
		return res, nil
	}

	if !s.inspect.TableExists(t.Name) {
		if err := s.createTable(t); err != nil {
			return nil, err
		}
		res.Created = true
		if s.tracker != nil {
			s.tracker.Record(t)
		}
		return res, nil
	}

	live := s.inspect.Columns(t.Name)
	res.Diff = Compare(t, live)

	if !res.Diff.HasChanges() {
		if s.tracker != nil {
			s.tracker.Record(t)
		}
		s.log.Debug("table matches declared schema", "table", t.Name)
		return res, nil
	}

	statements, err := s.buildStatements(t, res.Diff)
	if err != nil {
		return nil, err
	}

	if len(res.Diff.Drops) > 0 {
		s.log.Warn("live table has columns the schema no longer declares; they are never dropped automatically",
			"table", t.Name, "columns", strings.Join(res.Diff.Drops, ","))
	}

	if len(statements) == 0 {
		// Drops-only diff: nothing to apply, nothing to gate.
		if s.tracker != nil {
			s.tracker.Record(t)
		}
		return res, nil
	}

	if err := s.gate.Queue(gate.Migration{
		Table:      t.Name,
		Diff:       res.Diff,
		Statements: statements,
	}); err != nil {
		return nil, err
	}
	res.Queued = true
	// The fingerprint is recorded only after the gate applies the change,
	// so a rejected migration is re-detected on the next sync.
	return res, nil
}

// Recorded marks a table as reconciled at its current definition. The gate
// calls this after a successful accept.
func (s *Syncer) Recorded(t *schema.Table) {
	if s.tracker != nil {
		s.tracker.Record(t)
	}
}

func (s *Syncer) createTable(t *schema.Table) error {
	sql, err := s.dial.CreateTableSQL(t)
	if err != nil {
		return err
	}

	if _, ok := s.exec.ExecuteSync(sql, nil); !ok {
		return kerr.New(kerr.ErrCreateFailed, "CREATE TABLE failed").
			WithTable(t.Name).
			WithQuery(sql)
	}
	s.log.Info("table created", "table", t.Name, "columns", len(t.Columns))
	return nil
}

// buildStatements renders the ALTER statements for a diff: ADD COLUMN for
// every missing column (plus a unique key when the column wants one and is
// not part of the primary key), MODIFY for every changed column.
func (s *Syncer) buildStatements(t *schema.Table, d schema.Diff) ([]string, error) {
	var statements []string

	for _, name := range d.Adds {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		stmt, err := s.dial.AddColumnSQL(t.Name, col)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)

		if col.Unique && !col.Primary {
			uk, err := s.dial.AddUniqueKeySQL(t.Name, col.Name)
			if err != nil {
				return nil, err
			}
			statements = append(statements, uk)
		}
	}

	for _, name := range d.Modifies {
		col, ok := t.Column(name)
		if !ok {
			continue
		}
		stmt, err := s.dial.ModifyColumnSQL(t.Name, col)
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	return statements, nil
}

// Compare diffs a declared table against live introspected columns.
// Matching is case-insensitive on column names and types.
func Compare(t *schema.Table, live []introspect.Column) schema.Diff {
	liveByName := make(map[string]introspect.Column, len(live))
	for _, lc := range live {
		liveByName[strings.ToLower(lc.Name)] = lc
	}

	var d schema.Diff
	declared := make(map[string]bool, len(t.Columns))

	for _, col := range t.Columns {
		key := strings.ToLower(col.Name)
		declared[key] = true

		lc, exists := liveByName[key]
		if !exists {
			d.Adds = append(d.Adds, col.Name)
			continue
		}
		if typeDiffers(col, lc.Type) || (col.NotNull && lc.Nullable) {
			d.Modifies = append(d.Modifies, col.Name)
		}
	}

	for _, lc := range live {
		if !declared[strings.ToLower(lc.Name)] {
			d.Drops = append(d.Drops, lc.Name)
		}
	}

	return d
}

// typeDiffers compares a declared column type against the live display
// type. A declared length demands an exact "type(length)" match. An
// unqualified declared type matches by substring containment, so a bare
// "int" accepts a live "int(11)". The containment test also lets "int"
// accept "bigint(20)"; wider live types are never narrowed.
func typeDiffers(col schema.Column, liveType string) bool {
	want := col.TypeString()
	got := strings.ToLower(liveType)

	if col.Length > 0 {
		return want != got
	}
	return !strings.Contains(got, want)
}
