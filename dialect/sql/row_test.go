package sql

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow(t *testing.T) {
	r := RowOf("name", "a8m", "age", 30, 42, "ignored", "email")
	assert.Equal(t, []string{"name", "age"}, r.Columns())
	assert.Equal(t, 2, r.Len())

	v, ok := r.Get("age")
	require.True(t, ok)
	assert.Equal(t, 30, v)

	r.Set("name", "nati").Set("url", nil)
	assert.Equal(t, []string{"name", "age", "url"}, r.Columns())
	v, _ = r.Get("name")
	assert.Equal(t, "nati", v)

	r.Delete("age")
	assert.Equal(t, []string{"name", "url"}, r.Columns())
	_, ok = r.Get("age")
	assert.False(t, ok)

	r.Merge(RowOf("id", 1, "name", "a8m"))
	assert.Equal(t, []string{"name", "url", "id"}, r.Columns())

	var pairs []any
	r.Each(func(column string, value any) {
		pairs = append(pairs, column, value)
	})
	assert.Equal(t, []any{"name", "a8m", "url", nil, "id", 1}, pairs)
}

func TestRow_ZeroValue(t *testing.T) {
	var r Row
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Columns())
	_, ok := r.Get("a")
	assert.False(t, ok)
	r.Delete("a")
	r.Each(func(string, any) { t.Fatal("unexpected column") })

	r.Set("a", 1)
	assert.Equal(t, 1, r.Len())

	var nilRow *Row
	assert.Zero(t, nilRow.Len())
	_, ok = nilRow.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Merge(nilRow).Len())
}

type failingValuer struct{}

func (failingValuer) Value() (any, error) { return nil, errors.New("boom") }

func TestIsNull(t *testing.T) {
	var (
		nilPtr   *int
		nilMap   map[string]int
		nilSlice []byte
		nilFunc  func()
		nilChan  chan int
		n        = 1
	)
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"nil pointer", nilPtr, true},
		{"nil map", nilMap, true},
		{"nil slice", nilSlice, true},
		{"nil func", nilFunc, true},
		{"nil chan", nilChan, true},
		{"invalid null string", sql.NullString{}, true},
		{"invalid null time", sql.NullTime{}, true},
		{"zero int", 0, false},
		{"empty string", "", false},
		{"false", false, false},
		{"pointer", &n, false},
		{"empty slice", []byte{}, false},
		{"time", time.Time{}, false},
		{"valid null string", sql.NullString{String: "", Valid: true}, false},
		{"failing valuer", failingValuer{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isNull(tt.v))
		})
	}
}
