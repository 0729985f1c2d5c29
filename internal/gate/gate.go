// Package gate holds destructive-leaning schema changes until an operator
// decides. Table creation never passes through here; only ALTER statements
// produced by the diff do. The gate applies everything or discards
// everything, there is no per-table decision.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/keystone-gg/keystone/internal/kerr"
	"github.com/keystone-gg/keystone/internal/schema"
)

// State enumerates the gate lifecycle.
type State int

const (
	// Idle means nothing is queued.
	Idle State = iota
	// AwaitingDecision means migrations are queued and blocked on the
	// operator.
	AwaitingDecision
	// Applying means an accept is executing statements.
	Applying
	// Discarding means a reject is clearing the queue.
	Discarding
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingDecision:
		return "awaiting_decision"
	case Applying:
		return "applying"
	case Discarding:
		return "discarding"
	default:
		return "unknown"
	}
}

// Migration is one table's queued schema change: the observed diff and the
// ALTER statements that would reconcile it.
type Migration struct {
	Table      string
	Diff       schema.Diff
	Statements []string
}

// Executor runs one accepted statement at a time.
type Executor interface {
	ExecuteSync(query string, args []any) (affected int64, ok bool)
}

// Gate queues migrations and blocks them on a single operator decision.
// Safe for concurrent use.
type Gate struct {
	mu      sync.Mutex
	state   State
	pending []Migration
	decided chan struct{}
	accept  bool

	exec Executor
	log  *slog.Logger
}

// New builds an idle gate that applies accepted statements through exec.
func New(exec Executor, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{exec: exec, log: log}
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Queue adds a table's migration and moves the gate to AwaitingDecision.
// Re-queuing the same table replaces its earlier entry; queue order is
// first-queued order otherwise. Queuing during Applying or Discarding
// fails with ErrGateBusy.
func (g *Gate) Queue(m Migration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Applying || g.state == Discarding {
		return kerr.New(kerr.ErrGateBusy, "cannot queue while a decision is executing").
			With("state", g.state.String()).
			WithTable(m.Table)
	}

	replaced := false
	for i := range g.pending {
		if g.pending[i].Table == m.Table {
			g.pending[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		g.pending = append(g.pending, m)
	}

	if g.state == Idle {
		g.state = AwaitingDecision
		g.decided = make(chan struct{})
	}

	g.log.Info("migration queued, awaiting operator decision",
		"table", m.Table,
		"adds", len(m.Diff.Adds),
		"modifies", len(m.Diff.Modifies),
		"drops", len(m.Diff.Drops),
		"statements", len(m.Statements))
	return nil
}

// Pending returns a copy of the queued migrations in queue order.
func (g *Gate) Pending() []Migration {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Migration, len(g.pending))
	copy(out, g.pending)
	return out
}

// Summary renders the queue as plain text, one line per table, without
// changing state. Styled rendering lives with the CLI.
func (g *Gate) Summary() string {
	pending := g.Pending()
	if len(pending) == 0 {
		return "no migrations pending"
	}

	var b strings.Builder
	for _, m := range pending {
		fmt.Fprintf(&b, "%s: +%d ~%d -%d (%d statement(s))\n",
			m.Table, len(m.Diff.Adds), len(m.Diff.Modifies), len(m.Diff.Drops), len(m.Statements))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Accept applies every queued statement sequentially, table order then
// statement order, then returns the gate to Idle. A failing statement
// never stops the run: every statement executes and is counted, and the
// returned error reports how many failed. The queue is cleared either
// way, so failed tables need a fresh sync to re-detect their drift.
func (g *Gate) Accept() error {
	g.mu.Lock()
	if g.state != AwaitingDecision {
		state := g.state
		g.mu.Unlock()
		return kerr.New(kerr.ErrGateBusy, "nothing awaiting decision").
			With("state", state.String())
	}
	g.state = Applying
	batch := g.pending
	g.pending = nil
	g.mu.Unlock()

	applied, failed := 0, 0
	var firstFailure *kerr.Error
	for _, m := range batch {
		for _, stmt := range m.Statements {
			if _, ok := g.exec.ExecuteSync(stmt, nil); !ok {
				failed++
				if firstFailure == nil {
					firstFailure = kerr.New(kerr.ErrMigrationFailed, "migration statement failed").
						WithTable(m.Table).
						WithQuery(stmt)
				}
				g.log.Error("migration statement failed", "table", m.Table, "query", stmt)
				continue
			}
			applied++
			g.log.Info("migration statement applied", "table", m.Table, "query", stmt)
		}
	}

	g.mu.Lock()
	g.state = Idle
	g.accept = true
	if g.decided != nil {
		close(g.decided)
		g.decided = nil
	}
	g.mu.Unlock()

	g.log.Info("migration batch finished", "applied", applied, "failed", failed)
	if firstFailure != nil {
		return firstFailure.With("applied", applied).With("failed", failed)
	}
	return nil
}

// Reject discards every queued migration without touching the database and
// returns the gate to Idle. The declared schemas stay registered, so the
// same drift is re-detected on the next sync.
func (g *Gate) Reject() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != AwaitingDecision {
		return kerr.New(kerr.ErrGateBusy, "nothing awaiting decision").
			With("state", g.state.String())
	}

	g.state = Discarding
	discarded := len(g.pending)
	g.pending = nil
	g.state = Idle
	g.accept = false
	if g.decided != nil {
		close(g.decided)
		g.decided = nil
	}

	g.log.Info("queued migrations discarded", "count", discarded)
	return nil
}

// Wait blocks until the operator decides or ctx expires. It returns
// immediately when nothing is queued. The bool reports whether the
// decision was an accept.
func (g *Gate) Wait(ctx context.Context) (accepted bool, err error) {
	g.mu.Lock()
	if g.state == Idle && len(g.pending) == 0 {
		g.mu.Unlock()
		return true, nil
	}
	ch := g.decided
	g.mu.Unlock()

	if ch == nil {
		return true, nil
	}

	select {
	case <-ch:
		g.mu.Lock()
		accepted = g.accept
		g.mu.Unlock()
		return accepted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
