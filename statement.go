package dbquery

import (
	"context"
	"strings"
)

// Statement is the output of a single builder run: the SQL text, its
// positional arguments and enough metadata for policies and drivers to
// reason about it without parsing the text.
type Statement struct {
	Op    Op
	Table string // base table expression, without joins
	// Tables lists the names of the base table and every joined table,
	// without aliases.
	Tables []string
	SQL   string
	Args  []any
	// Filtered reports whether a where clause was rendered.
	Filtered bool
	// Count reports whether the statement is the counting variant of a select.
	Count bool
}

// TableNames returns the names of the tables the statement reads or
// writes. Statements without Tables report the name of their base table.
func (s *Statement) TableNames() []string {
	if len(s.Tables) > 0 {
		return s.Tables
	}
	if name := TableName(s.Table); name != "" {
		return []string{name}
	}
	return nil
}

// TableName returns the table name of a table expression, dropping any
// alias: TableName("users u") returns "users".
func TableName(expr string) string {
	if fields := strings.Fields(expr); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Policy decides whether a statement may be executed.
// A nil return allows it; any other error rejects it.
type Policy interface {
	EvalStatement(context.Context, *Statement) error
}

// PolicyFunc is an adapter that allows ordinary functions to be used as policies.
type PolicyFunc func(context.Context, *Statement) error

// EvalStatement returns f(ctx, s).
func (f PolicyFunc) EvalStatement(ctx context.Context, s *Statement) error {
	return f(ctx, s)
}
