package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/syssam/dbquery"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return dbquery.IsConstraintError(err) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlDuplicateEntry
	}
	if e, ok := asError[*sqlite.Error](err); ok {
		if code := e.Code(); code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	// Fallback to string matching for wrapped or foreign drivers, and for
	// connections without extended result codes.
	return containsAny(err.Error(),
		"Error 1062",               // MySQL
		"UNIQUE constraint failed", // SQLite
	)
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlForeignKeyParent || e.Number == mysqlForeignKeyChild
	}
	if e, ok := asError[*sqlite.Error](err); ok && e.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return containsAny(err.Error(),
		"Error 1451",                    // MySQL (Cannot delete or update a parent row)
		"Error 1452",                    // MySQL (Cannot add or update a child row)
		"FOREIGN KEY constraint failed", // SQLite
	)
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
// e.g. a value does not satisfy a check condition.
func IsCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[*mysql.MySQLError](err); ok {
		return e.Number == mysqlCheckConstraintViolate
	}
	if e, ok := asError[*sqlite.Error](err); ok && e.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK {
		return true
	}
	return containsAny(err.Error(),
		"Error 3819",              // MySQL
		"CHECK constraint failed", // SQLite
	)
}

// classify wraps constraint violations in a dbquery.ConstraintError and
// returns other errors unchanged.
func classify(err error) error {
	if err == nil || dbquery.IsConstraintError(err) {
		return err
	}
	if IsUniqueConstraintError(err) || IsForeignKeyConstraintError(err) || IsCheckConstraintError(err) {
		return dbquery.NewConstraintError(err.Error(), err)
	}
	return err
}

// asError attempts to extract an error of type T from the error chain.
func asError[T error](err error) (T, bool) {
	var target T
	if errors.As(err, &target) {
		return target, true
	}
	return target, false
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
