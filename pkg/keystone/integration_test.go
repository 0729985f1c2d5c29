//go:build integration

package keystone

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// These tests run against a real SQLite database file:
//
//	go test -tags integration ./pkg/keystone

func openTestClient(t *testing.T, dbPath string) *Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Open(ctx,
		WithDatabaseURL("sqlite://"+dbPath),
		WithGuardTimeout(2*time.Second),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func playersSchema() *Table {
	return &Table{
		Name: "players",
		Columns: []Column{
			{Name: "id", Type: "INT", Primary: true, AutoIncrement: true},
			{Name: "license", Type: "VARCHAR", Length: 60, Unique: true, NotNull: true},
			{Name: "cash", Type: "INT", Default: "0", HasDefault: true},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	c := openTestClient(t, filepath.Join(t.TempDir(), "game.db"))

	if err := c.RegisterSchema(playersSchema()); err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}

	insertDone := make(chan int64, 1)
	c.Table("players").Insert(map[string]any{
		"license": "abc123",
		"cash":    500,
	}, func(id int64, ok bool) {
		if !ok {
			t.Error("insert failed")
		}
		insertDone <- id
	})

	var playerID int64
	select {
	case playerID = <-insertDone:
	case <-time.After(5 * time.Second):
		t.Fatal("insert callback never fired")
	}
	if playerID == 0 {
		t.Fatal("expected a real insert id")
	}

	fetched := make(chan Row, 1)
	c.Table("players").Where("license", "abc123").First(func(row Row) { fetched <- row })

	select {
	case row := <-fetched:
		if row == nil {
			t.Fatal("player not found")
		}
		if row["cash"] != int64(500) {
			t.Errorf("cash = %v (%T), want int64 500", row["cash"], row["cash"])
		}
	case <-time.After(5 * time.Second):
		t.Fatal("fetch callback never fired")
	}

	counted := make(chan int64, 1)
	c.Table("players").Count(func(n int64, ok bool) { counted <- n })
	if n := <-counted; n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	updated := make(chan int64, 1)
	c.Table("players").Where("id", playerID).
		Update(map[string]any{"cash": 900}, func(affected int64, ok bool) { updated <- affected })
	if n := <-updated; n != 1 {
		t.Errorf("update affected %d rows, want 1", n)
	}
}

func TestSchemaEvolutionThroughGate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "game.db")

	first := openTestClient(t, dbPath)
	if err := first.RegisterSchema(&Table{
		Name:    "props",
		Columns: []Column{{Name: "id", Type: "INT", Primary: true, AutoIncrement: true}},
	}); err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	first.Close()

	second := openTestClient(t, dbPath)
	if err := second.RegisterSchema(&Table{
		Name: "props",
		Columns: []Column{
			{Name: "id", Type: "INT", Primary: true, AutoIncrement: true},
			{Name: "label", Type: "TEXT"},
		},
	}); err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}

	pending := second.PendingMigrations()
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if len(pending[0].Diff.Adds) != 1 || pending[0].Diff.Adds[0] != "label" {
		t.Fatalf("diff = %+v, want add of label", pending[0].Diff)
	}

	if err := second.AcceptMigrations(); err != nil {
		t.Fatalf("AcceptMigrations: %v", err)
	}

	done := make(chan bool, 1)
	second.Table("props").Insert(map[string]any{"label": "crate"}, func(id int64, ok bool) { done <- ok })
	if !<-done {
		t.Error("insert into migrated column failed")
	}
}

func TestStartupMigrationPromptDecidesBeforeBlocking(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "game.db")

	first := openTestClient(t, dbPath)
	if err := first.RegisterSchema(&Table{
		Name:    "props",
		Columns: []Column{{Name: "id", Type: "INT", Primary: true, AutoIncrement: true}},
	}); err != nil {
		t.Fatalf("RegisterSchema: %v", err)
	}
	first.Close()

	// The widened schema arrives as a core table, so the migration queues
	// during startup. The prompt must see it and unblock Open by accepting.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var seen []Migration
	second, err := Open(ctx,
		WithDatabaseURL("sqlite://"+dbPath),
		WithGuardTimeout(2*time.Second),
		WithCoreTables(&Table{
			Name: "props",
			Columns: []Column{
				{Name: "id", Type: "INT", Primary: true, AutoIncrement: true},
				{Name: "label", Type: "TEXT"},
			},
		}),
		WithMigrationPrompt(func(pending []Migration) bool {
			seen = append(seen, pending...)
			return true
		}),
	)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer second.Close()

	if len(seen) != 1 || seen[0].Table != "props" {
		t.Fatalf("prompt saw %+v, want the props migration", seen)
	}
	if len(seen[0].Diff.Adds) != 1 || seen[0].Diff.Adds[0] != "label" {
		t.Fatalf("diff = %+v, want add of label", seen[0].Diff)
	}
	if state := second.MigrationState(); state != "idle" {
		t.Errorf("gate = %q after accepted prompt, want idle", state)
	}

	done := make(chan bool, 1)
	second.Table("props").Insert(map[string]any{"label": "crate"}, func(id int64, ok bool) { done <- ok })
	if !<-done {
		t.Error("insert into migrated column failed")
	}
}

func TestGuardDeliversSentinelOnBadQuery(t *testing.T) {
	c := openTestClient(t, filepath.Join(t.TempDir(), "game.db"))

	done := make(chan bool, 1)
	c.Execute("THIS IS NOT SQL", nil, func(affected int64, ok bool) { done <- ok })

	select {
	case ok := <-done:
		if ok {
			t.Error("broken statement must deliver ok=false")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestOrphanScanAgainstLiveDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "game.db")

	first := openTestClient(t, dbPath)
	first.RegisterSchema(&Table{
		Name:    "leftover",
		Columns: []Column{{Name: "id", Type: "INT", Primary: true}},
	})
	first.Close()

	// Second process never registers "leftover"; the scan flags it.
	second := openTestClient(t, dbPath)
	orphans, err := second.ScanOrphans()
	if err != nil {
		t.Fatalf("ScanOrphans: %v", err)
	}
	found := false
	for _, o := range orphans {
		if o.Table == "leftover" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected leftover in orphans, got %v", orphans)
	}
}
