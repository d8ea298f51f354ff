package dbquery_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbquery"
)

func TestBuildError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := dbquery.NewBuildError(dbquery.OpSelect, dbquery.ErrMissingTable)
		assert.Equal(t, "dbquery: build select: dbquery: missing table", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := dbquery.NewBuildError(dbquery.OpUnset, dbquery.ErrNoAction)
		assert.True(t, errors.Is(err, dbquery.ErrNoAction))
		assert.False(t, errors.Is(err, dbquery.ErrEmptyRow))
	})

	t.Run("IsBuildError", func(t *testing.T) {
		err := dbquery.NewBuildError(dbquery.OpInsert, dbquery.ErrEmptyRow)
		assert.True(t, dbquery.IsBuildError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, dbquery.IsBuildError(wrapped))

		assert.False(t, dbquery.IsBuildError(dbquery.ErrEmptyRow))
		assert.False(t, dbquery.IsBuildError(nil))
	})
}

func TestExecError(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("Error", func(t *testing.T) {
		err := dbquery.NewExecError(dbquery.OpDelete, "users", cause)
		assert.Equal(t, "dbquery: delete users: connection refused", err.Error())

		err = dbquery.NewExecError(dbquery.OpSelect, "", cause)
		assert.Equal(t, "dbquery: select: connection refused", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		err := dbquery.NewExecError(dbquery.OpUpdate, "users", cause)
		assert.ErrorIs(t, err, cause)
		assert.True(t, dbquery.IsExecError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, dbquery.IsExecError(cause))
		assert.False(t, dbquery.IsExecError(nil))
	})
}

func TestConstraintError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := dbquery.NewConstraintError("UNIQUE constraint failed: users.email", nil)
		assert.Equal(t, "dbquery: constraint failed: UNIQUE constraint failed: users.email", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("underlying db error")
		err := dbquery.NewConstraintError("duplicate key", underlying)

		var ce dbquery.ConstraintError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, underlying, ce.Unwrap())
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsConstraintError", func(t *testing.T) {
		err := dbquery.NewConstraintError("foreign key violation", nil)
		assert.True(t, dbquery.IsConstraintError(err))

		// Wrapped in an execution error
		wrapped := dbquery.NewExecError(dbquery.OpInsert, "pets", err)
		assert.True(t, dbquery.IsConstraintError(wrapped))

		assert.False(t, dbquery.IsConstraintError(errors.New("other error")))
		assert.False(t, dbquery.IsConstraintError(nil))
	})
}

func TestPolicyError(t *testing.T) {
	decision := errors.New("deny rule")
	err := dbquery.NewPolicyError(dbquery.OpDelete, "users", decision)
	assert.Equal(t, "dbquery: policy denied delete on users: deny rule", err.Error())
	assert.ErrorIs(t, err, decision)
	assert.True(t, dbquery.IsPolicyError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, dbquery.IsPolicyError(decision))
	assert.False(t, dbquery.IsPolicyError(nil))
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		assert.NoError(t, dbquery.NewAggregateError())
		assert.NoError(t, dbquery.NewAggregateError(nil, nil))
	})

	t.Run("SingleError", func(t *testing.T) {
		err := dbquery.NewAggregateError(nil, dbquery.ErrInvalidColumn)
		assert.Equal(t, dbquery.ErrInvalidColumn, err)
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		errA := errors.New("error A")
		err := dbquery.NewAggregateError(errA, nil, dbquery.ErrMissingTable)
		require.Error(t, err)

		var agg *dbquery.AggregateError
		require.True(t, errors.As(err, &agg))
		assert.Len(t, agg.Errors, 2)
		assert.Equal(t, "dbquery: multiple errors:\n  [1] error A\n  [2] dbquery: missing table", err.Error())
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, dbquery.ErrMissingTable)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, "dbquery: no errors", (&dbquery.AggregateError{}).Error())
	})
}

func TestOp(t *testing.T) {
	tests := []struct {
		op      dbquery.Op
		name    string
		mutates bool
	}{
		{dbquery.OpUnset, "Unset", false},
		{dbquery.OpInsert, "Insert", true},
		{dbquery.OpDelete, "Delete", true},
		{dbquery.OpUpdate, "Update", true},
		{dbquery.OpSelect, "Select", false},
		{dbquery.Op(9), "Op(9)", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.op.String())
			assert.Equal(t, tt.mutates, tt.op.Mutates())
		})
	}
	assert.True(t, dbquery.OpSelect.Is(dbquery.OpInsert, dbquery.OpSelect))
	assert.False(t, dbquery.OpSelect.Is())
}
