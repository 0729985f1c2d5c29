// Package kerr provides standardized error handling for Keystone.
// All errors have stable, machine-readable codes, structured context, and proper wrapping.
package kerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code represents a stable, machine-readable error code.
// Format: E{category}{number} where category is 1-5 and number is 001-999.
type Code string

// Error codes organized by category.
const (
	// Configuration errors (E1xxx) - problems with startup configuration
	ErrNoConnectionString Code = "E1001" // No connection string configured
	ErrNoBackend          Code = "E1002" // No working database backend found
	ErrConfigInvalid      Code = "E1003" // Configuration file is malformed
	ErrDialectUnknown     Code = "E1004" // Connection string names an unknown dialect

	// Schema errors (E2xxx) - problems with schema definitions
	ErrSchemaInvalid  Code = "E2001" // Schema definition is malformed
	ErrSchemaNotFound Code = "E2002" // Referenced schema does not exist
	ErrSchemaEmpty    Code = "E2003" // Schema has no columns

	// Sync/migration errors (E3xxx) - problems during table reconciliation
	ErrCreateFailed    Code = "E3001" // CREATE TABLE failed
	ErrMigrationFailed Code = "E3002" // ALTER statement failed during apply
	ErrGateBusy        Code = "E3003" // Migration gate is not awaiting a decision

	// SQL errors (E4xxx) - problems with database operations
	ErrSQLExecution  Code = "E4001" // SQL statement failed to execute
	ErrSQLConnection Code = "E4002" // Database connection failed
	ErrSQLTimeout    Code = "E4003" // Backend never answered within the guard interval

	// Orphan errors (E5xxx) - problems during orphan scanning/cleanup
	ErrOrphanScan Code = "E5001" // Listing live tables failed
	ErrOrphanDrop Code = "E5002" // DROP TABLE failed during cleanup
)

// Error is the standard error type for Keystone.
// It provides structured error information with codes, context, and wrapping support.
type Error struct {
	code    Code           // Machine-readable error code
	message string         // Human-readable error message
	context map[string]any // Structured context data
	cause   error          // Wrapped underlying error
}

// Error returns the formatted error string.
// Format:
//
//	[E3001] CREATE TABLE failed
//	  table: players
//	  cause: ...
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.code, e.message))

	// Write context in sorted order for deterministic output
	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("\n  %s: %v", k, e.context[k]))
		}
	}

	if e.cause != nil {
		b.WriteString(fmt.Sprintf("\n  cause: %v", e.cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error for errors.Unwrap compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the machine-readable error code.
func (e *Error) Code() Code {
	return e.code
}

// New creates a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		code:    code,
		message: message,
		context: make(map[string]any),
	}
}

// Wrap creates a new Error wrapping an underlying cause.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{
		code:    code,
		message: message,
		context: make(map[string]any),
		cause:   cause,
	}
}

// With adds a context key/value pair and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	e.context[key] = value
	return e
}

// WithTable adds table context.
func (e *Error) WithTable(table string) *Error {
	return e.With("table", table)
}

// WithQuery adds truncated query text context. Long statements are cut so
// log lines stay readable.
func (e *Error) WithQuery(query string) *Error {
	const max = 120
	if len(query) > max {
		query = query[:max] + "..."
	}
	return e.With("query", query)
}

// CodeOf extracts the Code from an error chain.
// Returns empty string if no *Error is found.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// HasCode reports whether the error chain contains an *Error with the given code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}
