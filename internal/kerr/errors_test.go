package kerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(ErrCreateFailed, "CREATE TABLE failed").
		WithTable("players").
		With("dialect", "mysql")

	got := err.Error()
	if !strings.HasPrefix(got, "[E3001] CREATE TABLE failed") {
		t.Errorf("header wrong: %q", got)
	}
	// Context lines are sorted by key.
	dialectIdx := strings.Index(got, "dialect: mysql")
	tableIdx := strings.Index(got, "table: players")
	if dialectIdx == -1 || tableIdx == -1 || dialectIdx > tableIdx {
		t.Errorf("context not sorted: %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrSQLConnection, cause, "database connection failed")

	if !errors.Is(err, cause) {
		t.Error("wrapped cause must survive errors.Is")
	}
	if !strings.Contains(err.Error(), "cause: connection refused") {
		t.Errorf("cause missing from output: %q", err.Error())
	}
}

func TestCodeOf(t *testing.T) {
	err := New(ErrGateBusy, "busy")
	if CodeOf(err) != ErrGateBusy {
		t.Errorf("CodeOf = %q, want %q", CodeOf(err), ErrGateBusy)
	}

	// Code survives an fmt wrap.
	wrapped := fmt.Errorf("during startup: %w", err)
	if !HasCode(wrapped, ErrGateBusy) {
		t.Error("code must survive fmt.Errorf wrapping")
	}

	if CodeOf(errors.New("plain")) != "" {
		t.Error("plain errors have no code")
	}
	if HasCode(nil, ErrGateBusy) {
		t.Error("nil has no code")
	}
}

func TestWithQueryTruncates(t *testing.T) {
	long := strings.Repeat("SELECT * FROM players WHERE ", 20)
	err := New(ErrSQLExecution, "failed").WithQuery(long)

	q, _ := err.context["query"].(string)
	if len(q) != 123 || !strings.HasSuffix(q, "...") {
		t.Errorf("query not truncated to 120+ellipsis, len=%d", len(q))
	}

	short := "SELECT 1"
	err = New(ErrSQLExecution, "failed").WithQuery(short)
	if err.context["query"] != short {
		t.Errorf("short query must pass through untouched")
	}
}
