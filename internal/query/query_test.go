package query

import (
	"testing"

	"github.com/keystone-gg/keystone/internal/dialect"
	"github.com/keystone-gg/keystone/internal/driver"
)

// fakeExecutor records the compiled SQL and args, and feeds scripted
// results back through the callbacks synchronously.
type fakeExecutor struct {
	dial     driver.DialectInfo
	lastSQL  string
	lastArgs []any

	rows     []driver.Row
	scalar   any
	scalarOK bool
	affected int64
	insertID int64
}

func (f *fakeExecutor) Execute(query string, args []any, cb driver.ExecFunc) {
	f.lastSQL, f.lastArgs = query, args
	cb(f.affected, true)
}

func (f *fakeExecutor) Fetch(query string, args []any, cb driver.RowsFunc) {
	f.lastSQL, f.lastArgs = query, args
	rows := f.rows
	if rows == nil {
		rows = []driver.Row{}
	}
	cb(rows)
}

func (f *fakeExecutor) FetchScalar(query string, args []any, cb driver.ScalarFunc) {
	f.lastSQL, f.lastArgs = query, args
	cb(f.scalar, f.scalarOK)
}

func (f *fakeExecutor) Insert(query string, args []any, cb driver.InsertFunc) {
	f.lastSQL, f.lastArgs = query, args
	cb(f.insertID, true)
}

func (f *fakeExecutor) Dialect() driver.DialectInfo { return f.dial }

func mysqlInfo() driver.DialectInfo { return dialect.MySQL() }

func postgresInfo() driver.DialectInfo { return dialect.Postgres() }

func TestSelectDefaultsToStar(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	New(f, nil, "players").Get(func([]driver.Row) {})

	want := "SELECT * FROM `players`"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
}

func TestFullSelectChain(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	New(f, nil, "players").
		Select("id", "cash").
		Where("license", "abc").
		Where("cash", ">", 100).
		OrderBy("cash", "DESC").
		Limit(10).
		Offset(5).
		Get(func([]driver.Row) {})

	want := "SELECT `id`, `cash` FROM `players` WHERE `license` = ? AND `cash` > ? ORDER BY `cash` DESC LIMIT 10 OFFSET 5"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
	if len(f.lastArgs) != 2 || f.lastArgs[0] != "abc" || f.lastArgs[1] != 100 {
		t.Errorf("args wrong: %v", f.lastArgs)
	}
}

func TestOrderByOverwrites(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	New(f, nil, "players").
		OrderBy("name").
		OrderBy("cash", "desc").
		Get(func([]driver.Row) {})

	want := "SELECT * FROM `players` ORDER BY `cash` DESC"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
}

func TestPostgresPlaceholderNumbering(t *testing.T) {
	f := &fakeExecutor{dial: postgresInfo()}
	New(f, nil, "players").
		Where("a", 1).
		Where("b", 2).
		Get(func([]driver.Row) {})

	want := `SELECT * FROM "players" WHERE "a" = $1 AND "b" = $2`
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
}

func TestGetEmptyResultIsEmptySliceNotNil(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	var got []driver.Row
	called := false
	New(f, nil, "players").Get(func(rows []driver.Row) {
		got = rows
		called = true
	})
	if !called {
		t.Fatal("callback not invoked")
	}
	if got == nil {
		t.Error("empty result must be an empty slice, not nil")
	}
}

func TestFirstUnwrapsSingleRow(t *testing.T) {
	f := &fakeExecutor{
		dial: mysqlInfo(),
		rows: []driver.Row{{"id": int64(7)}},
	}
	var got driver.Row
	New(f, nil, "players").Where("id", 7).First(func(row driver.Row) { got = row })

	want := "SELECT * FROM `players` WHERE `id` = ? LIMIT 1"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
	if got == nil || got["id"] != int64(7) {
		t.Errorf("row not unwrapped: %v", got)
	}
}

func TestFirstNoMatchYieldsNil(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	called := false
	New(f, nil, "players").First(func(row driver.Row) {
		called = true
		if row != nil {
			t.Errorf("expected nil row, got %v", row)
		}
	})
	if !called {
		t.Fatal("callback not invoked")
	}
}

func TestInsertSortedColumns(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo(), insertID: 42}
	var gotID int64
	New(f, nil, "players").Insert(map[string]any{
		"name": "Ada",
		"cash": 500,
	}, func(id int64, ok bool) { gotID = id })

	want := "INSERT INTO `players` (`cash`, `name`) VALUES (?, ?)"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
	if f.lastArgs[0] != 500 || f.lastArgs[1] != "Ada" {
		t.Errorf("args must follow sorted column order: %v", f.lastArgs)
	}
	if gotID != 42 {
		t.Errorf("insert id = %d, want 42", gotID)
	}
}

func TestUpdateSetThenWhereParamOrder(t *testing.T) {
	f := &fakeExecutor{dial: postgresInfo()}
	New(f, nil, "players").
		Where("id", 7).
		Update(map[string]any{"cash": 900, "bank": 10}, func(int64, bool) {})

	want := `UPDATE "players" SET "bank" = $1, "cash" = $2 WHERE "id" = $3`
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
	if len(f.lastArgs) != 3 || f.lastArgs[0] != 10 || f.lastArgs[1] != 900 || f.lastArgs[2] != 7 {
		t.Errorf("param order must be SET values then WHERE values: %v", f.lastArgs)
	}
}

func TestUpdateWithoutWhereStillExecutes(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo(), affected: 3}
	var got int64
	New(f, nil, "players").Update(map[string]any{"cash": 0}, func(n int64, ok bool) { got = n })

	want := "UPDATE `players` SET `cash` = ?"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
	if got != 3 {
		t.Errorf("affected = %d, want 3", got)
	}
}

func TestDeleteWithWhere(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	New(f, nil, "players").Where("id", 7).Delete(func(int64, bool) {})

	want := "DELETE FROM `players` WHERE `id` = ?"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
}

func TestDeleteWithoutWhereStillExecutes(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	New(f, nil, "players").Delete(func(int64, bool) {})

	want := "DELETE FROM `players`"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
}

func TestCount(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo(), scalar: int64(12), scalarOK: true}
	var got int64
	New(f, nil, "players").Where("cash", ">", 0).Count(func(n int64, ok bool) { got = n })

	want := "SELECT COUNT(*) FROM `players` WHERE `cash` > ?"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
	if got != 12 {
		t.Errorf("count = %d, want 12", got)
	}
}

func TestCountFailureDeliversZeroNotOK(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo(), scalarOK: false}
	called := false
	New(f, nil, "players").Count(func(n int64, ok bool) {
		called = true
		if ok || n != 0 {
			t.Errorf("failure must deliver (0, false), got (%d, %v)", n, ok)
		}
	})
	if !called {
		t.Fatal("callback not invoked")
	}
}

func TestBuilderReuseAccumulatesConditions(t *testing.T) {
	f := &fakeExecutor{dial: mysqlInfo()}
	b := New(f, nil, "players").Where("a", 1)
	b.Get(func([]driver.Row) {})
	b.Where("b", 2).Get(func([]driver.Row) {})

	want := "SELECT * FROM `players` WHERE `a` = ? AND `b` = ?"
	if f.lastSQL != want {
		t.Errorf("got %q, want %q", f.lastSQL, want)
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{int64(5), 5},
		{float64(5.9), 5},
		{"17", 17},
		{"bogus", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := toInt64(tc.in); got != tc.want {
			t.Errorf("toInt64(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
