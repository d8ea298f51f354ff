package dialect

import (
	"context"
	"fmt"
	"slices"
)

// Dialect names for external usage. The values are the database/sql
// driver names the backends register under.
const (
	MySQL  = "mysql"
	SQLite = "sqlite"
)

// Supported lists the dialects statements can be executed against.
var Supported = []string{MySQL, SQLite}

// Validate returns an error if name is not a supported dialect.
func Validate(name string) error {
	if !slices.Contains(Supported, name) {
		return fmt.Errorf("dialect: unsupported dialect %q (want one of %v)", name, Supported)
	}
	return nil
}

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a statement that does not return rows. For example, in SQL:
	// INSERT or UPDATE. It scans the I/O result into the interface v. In SQL,
	// v is expected to be *sql.Result or nil.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a statement that returns rows. In SQL, v is expected
	// to be *sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for executing
// built statements.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
