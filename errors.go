package dbquery

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors returned while building statements.
var (
	// ErrNoAction is returned when a statement is built before any of
	// Insert, Delete, Update or Select was called.
	ErrNoAction = errors.New("dbquery: no statement action configured")

	// ErrInvalidColumn is returned for a projected column that is neither
	// a plain name nor a source/alias pair.
	ErrInvalidColumn = errors.New("dbquery: invalid column argument")

	// ErrMissingTable is returned when a statement is built without a table.
	ErrMissingTable = errors.New("dbquery: missing table")

	// ErrEmptyRow is returned when an insert or update has no non-null
	// row values to write.
	ErrEmptyRow = errors.New("dbquery: no row values to write")
)

// BuildError reports a failure to assemble a statement.
type BuildError struct {
	Op  Op    // Operation being built
	Err error // Underlying error
}

// Error returns the error string.
func (e *BuildError) Error() string {
	return fmt.Sprintf("dbquery: build %s: %v", strings.ToLower(e.Op.String()), e.Err)
}

// Unwrap returns the underlying error.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// NewBuildError returns a new BuildError.
func NewBuildError(op Op, err error) *BuildError {
	return &BuildError{Op: op, Err: err}
}

// IsBuildError returns true if the error is a BuildError.
func IsBuildError(err error) bool {
	if err == nil {
		return false
	}
	var e *BuildError
	return errors.As(err, &e)
}

// ExecError wraps an execution error with the statement that caused it.
type ExecError struct {
	Op    Op     // Operation of the failed statement
	Table string // Table of the failed statement
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *ExecError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("dbquery: %s %s: %v", strings.ToLower(e.Op.String()), e.Table, e.Err)
	}
	return fmt.Sprintf("dbquery: %s: %v", strings.ToLower(e.Op.String()), e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// NewExecError returns a new ExecError.
func NewExecError(op Op, table string, err error) *ExecError {
	return &ExecError{Op: op, Table: table, Err: err}
}

// IsExecError returns true if the error is an ExecError.
func IsExecError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("dbquery: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// PolicyError represents a statement rejected by a policy.
type PolicyError struct {
	Op    Op
	Table string
	Err   error // Decision returned by the policy
}

// Error returns the error string.
func (e *PolicyError) Error() string {
	return fmt.Sprintf("dbquery: policy denied %s on %s: %v", strings.ToLower(e.Op.String()), e.Table, e.Err)
}

// Unwrap returns the policy decision.
func (e *PolicyError) Unwrap() error {
	return e.Err
}

// NewPolicyError returns a new PolicyError.
func NewPolicyError(op Op, table string, err error) *PolicyError {
	return &PolicyError{Op: op, Table: table, Err: err}
}

// IsPolicyError returns true if the error is a PolicyError.
func IsPolicyError(err error) bool {
	if err == nil {
		return false
	}
	var e *PolicyError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "dbquery: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("dbquery: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As see all of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
