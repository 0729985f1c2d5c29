package registry

import (
	"testing"

	"github.com/keystone-gg/keystone/internal/schema"
)

func tbl(name string, cols ...string) *schema.Table {
	t := &schema.Table{Name: name}
	for _, c := range cols {
		t.Columns = append(t.Columns, schema.Column{Name: c, Type: "TEXT"})
	}
	return t
}

func TestRegisterQueuesUntilReady(t *testing.T) {
	r := New(nil)

	if err := r.Register(tbl("players", "id")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(tbl("vehicles", "id")); err != nil {
		t.Fatal(err)
	}

	drained := r.MarkReady()
	if len(drained) != 2 {
		t.Fatalf("drained %d tables, want 2", len(drained))
	}
	if drained[0].Name != "players" || drained[1].Name != "vehicles" {
		t.Errorf("drain order wrong: %s, %s", drained[0].Name, drained[1].Name)
	}
}

func TestReRegistrationBeforeReadyUsesLatestSchema(t *testing.T) {
	r := New(nil)

	if err := r.Register(tbl("players", "id")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(tbl("players", "id", "cash")); err != nil {
		t.Fatal(err)
	}

	drained := r.MarkReady()
	if len(drained) != 1 {
		t.Fatalf("drained %d tables, want 1 (no duplicate queue entries)", len(drained))
	}
	if len(drained[0].Columns) != 2 {
		t.Errorf("expected the second schema (2 columns), got %d", len(drained[0].Columns))
	}
}

func TestRegisterAfterReadySyncsImmediately(t *testing.T) {
	r := New(nil)

	var synced []string
	r.OnSync(func(s *schema.Table) { synced = append(synced, s.Name) })
	r.MarkReady()

	if err := r.Register(tbl("late_table", "id")); err != nil {
		t.Fatal(err)
	}
	if len(synced) != 1 || synced[0] != "late_table" {
		t.Errorf("late registration not synced: %v", synced)
	}
}

func TestCoreTablesNotRequeued(t *testing.T) {
	r := New(nil)

	if err := r.DeclareCore(tbl("users", "id")); err != nil {
		t.Fatal(err)
	}
	if !r.IsCore("users") {
		t.Error("users should be core")
	}

	// A collaborator re-declaring a core table updates the schema but
	// must not queue it.
	if err := r.Register(tbl("users", "id", "name")); err != nil {
		t.Fatal(err)
	}
	if drained := r.MarkReady(); len(drained) != 0 {
		t.Errorf("core table was re-queued: %v", drained)
	}

	got, ok := r.Get("users")
	if !ok || len(got.Columns) != 2 {
		t.Error("core table schema should still have been updated")
	}
}

func TestCoreTablesOrderedBeforeRegistered(t *testing.T) {
	r := New(nil)
	if err := r.DeclareCore(tbl("users", "id"), tbl("sessions", "id")); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(tbl("custom", "id")); err != nil {
		t.Fatal(err)
	}

	core := r.CoreTables()
	if len(core) != 2 || core[0].Name != "users" || core[1].Name != "sessions" {
		t.Errorf("core order wrong: %v", core)
	}

	all := r.All()
	if len(all) != 3 || all[2].Name != "custom" {
		t.Errorf("All() order wrong")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := New(nil)
	if err := r.Register(tbl("players", "id")); err != nil {
		t.Fatal(err)
	}

	got, _ := r.Get("players")
	got.Columns[0].Type = "MUTATED"

	again, _ := r.Get("players")
	if again.Columns[0].Type != "TEXT" {
		t.Error("Get must return a copy, not shared storage")
	}
}

func TestRegisterRejectsInvalidSchema(t *testing.T) {
	r := New(nil)
	if err := r.Register(&schema.Table{Name: "empty"}); err == nil {
		t.Error("expected validation error for empty schema")
	}
}

func TestReadyBroadcast(t *testing.T) {
	r := New(nil)

	select {
	case <-r.Ready():
		t.Fatal("ready channel closed too early")
	default:
	}

	r.AnnounceReady()
	r.AnnounceReady() // second announce must not panic

	select {
	case <-r.Ready():
	default:
		t.Fatal("ready channel should be closed")
	}
}
