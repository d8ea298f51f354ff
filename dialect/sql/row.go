package sql

import (
	"database/sql/driver"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row is an insertion-ordered set of column values written by INSERT and
// UPDATE statements. Setting an existing column overwrites its value but
// keeps its original position. The zero value is ready to use.
type Row struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewRow returns an empty Row.
func NewRow() *Row {
	return &Row{m: orderedmap.New[string, any]()}
}

// RowOf returns a Row holding the given column/value pairs in order.
// Odd trailing arguments and non-string column names are ignored.
func RowOf(pairs ...any) *Row {
	r := NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		if col, ok := pairs[i].(string); ok {
			r.Set(col, pairs[i+1])
		}
	}
	return r
}

func (r *Row) init() {
	if r.m == nil {
		r.m = orderedmap.New[string, any]()
	}
}

// Set sets the value of a column.
func (r *Row) Set(column string, value any) *Row {
	r.init()
	r.m.Set(column, value)
	return r
}

// Get returns the value of a column.
func (r *Row) Get(column string) (any, bool) {
	if r == nil || r.m == nil {
		return nil, false
	}
	return r.m.Get(column)
}

// Delete removes a column.
func (r *Row) Delete(column string) *Row {
	if r.m != nil {
		r.m.Delete(column)
	}
	return r
}

// Len returns the number of columns, null values included.
func (r *Row) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return r.m.Len()
}

// Merge copies all columns of other into r, in other's order.
func (r *Row) Merge(other *Row) *Row {
	r.init()
	other.Each(func(column string, value any) {
		r.m.Set(column, value)
	})
	return r
}

// Columns returns the column names in insertion order.
func (r *Row) Columns() []string {
	cols := make([]string, 0, r.Len())
	r.Each(func(column string, _ any) {
		cols = append(cols, column)
	})
	return cols
}

// Each calls fn for every column in insertion order.
func (r *Row) Each(fn func(column string, value any)) {
	if r == nil || r.m == nil {
		return
	}
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// isNull reports whether v should be treated as SQL NULL and skipped.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return true
		}
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		return err == nil && dv == nil
	}
	return false
}
