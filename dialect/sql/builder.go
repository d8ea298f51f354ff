package sql

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/dbquery"
)

// JoinKind is the kind of a join clause.
type JoinKind string

// Join kinds.
const (
	InnerJoin JoinKind = "inner"
	OuterJoin JoinKind = "outer"
	LeftJoin  JoinKind = "left"
	RightJoin JoinKind = "right"
	FullJoin  JoinKind = "full"
)

func (k JoinKind) valid() bool {
	switch k {
	case InnerJoin, OuterJoin, LeftJoin, RightJoin, FullJoin:
		return true
	default:
		return false
	}
}

// Direction is the sort direction of an order term.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Column is a projected column of a select statement: either a plain
// column expression or a source expression with an alias.
type Column struct {
	source  string
	alias   string
	aliased bool
}

// Col returns a plain column.
func Col(name string) Column {
	return Column{source: name}
}

// As returns an aliased column rendered as "source as alias".
func As(source, alias string) Column {
	return Column{source: source, alias: alias, aliased: true}
}

// String renders the column.
func (c Column) String() string {
	if c.aliased {
		return c.source + " as " + c.alias
	}
	return c.source
}

func (c Column) valid() bool {
	return c.source != "" && (!c.aliased || c.alias != "")
}

type join struct {
	kind  JoinKind
	table string
	on    string
}

// QueryBuilder accumulates the clauses of one statement and assembles it
// on Build. Configuration methods return the same builder for chaining.
//
// A QueryBuilder is not safe for concurrent use: one builder holds one
// statement under construction by one caller at a time.
type QueryBuilder struct {
	op         dbquery.Op
	columns    string
	table      string
	joins      []join
	where      string
	whereArgs  []any
	having     string
	havingArgs []any
	order      string
	group      string
	limit      string
	offset     string
	row        Row
	params     []any
	errs       []error
}

// New returns an empty QueryBuilder.
func New() *QueryBuilder {
	return &QueryBuilder{columns: "*"}
}

// Select returns a builder for a select statement projecting the given columns.
func Select(columns ...Column) *QueryBuilder {
	return New().Select(columns...)
}

// Insert returns a builder for an insert into table.
func Insert(table string) *QueryBuilder {
	return New().Insert().From(table)
}

// Update returns a builder for an update of table.
func Update(table string) *QueryBuilder {
	return New().Update().From(table)
}

// Delete returns a builder for a delete from table.
func Delete(table string) *QueryBuilder {
	return New().Delete().From(table)
}

// Insert sets the statement action to INSERT.
func (b *QueryBuilder) Insert() *QueryBuilder {
	b.op = dbquery.OpInsert
	return b
}

// Delete sets the statement action to DELETE.
func (b *QueryBuilder) Delete() *QueryBuilder {
	b.op = dbquery.OpDelete
	return b
}

// Update sets the statement action to UPDATE.
func (b *QueryBuilder) Update() *QueryBuilder {
	b.op = dbquery.OpUpdate
	return b
}

// Select sets the statement action to SELECT and replaces the projected
// columns. With no columns, all columns ("*") are selected.
func (b *QueryBuilder) Select(columns ...Column) *QueryBuilder {
	b.op = dbquery.OpSelect
	if len(columns) == 0 {
		b.columns = "*"
		return b
	}
	parts := make([]string, len(columns))
	for i, c := range columns {
		if !c.valid() {
			b.AddError(fmt.Errorf("%w: %q at position %d", dbquery.ErrInvalidColumn, c.String(), i))
			return b
		}
		parts[i] = c.String()
	}
	b.columns = strings.Join(parts, " , ")
	return b
}

// SelectAny is like Select but accepts loosely typed columns: a string is a
// plain column, a [2]string or two-element []string is a source/alias pair.
// Any other argument records ErrInvalidColumn.
func (b *QueryBuilder) SelectAny(columns ...any) *QueryBuilder {
	cs := make([]Column, len(columns))
	for i, v := range columns {
		switch v := v.(type) {
		case Column:
			cs[i] = v
		case string:
			cs[i] = Col(v)
		case [2]string:
			cs[i] = As(v[0], v[1])
		case []string:
			if len(v) != 2 {
				b.op = dbquery.OpSelect
				b.AddError(fmt.Errorf("%w: pair of %d elements at position %d", dbquery.ErrInvalidColumn, len(v), i))
				return b
			}
			cs[i] = As(v[0], v[1])
		default:
			b.op = dbquery.OpSelect
			b.AddError(fmt.Errorf("%w: unexpected type %T at position %d", dbquery.ErrInvalidColumn, v, i))
			return b
		}
	}
	return b.Select(cs...)
}

// From sets the table expression the statement targets.
func (b *QueryBuilder) From(table string) *QueryBuilder {
	b.table = table
	return b
}

// Join appends a left join.
func (b *QueryBuilder) Join(table, on string) *QueryBuilder {
	return b.JoinWith(LeftJoin, table, on)
}

// InnerJoin appends an inner join.
func (b *QueryBuilder) InnerJoin(table, on string) *QueryBuilder {
	return b.JoinWith(InnerJoin, table, on)
}

// RightJoin appends a right join.
func (b *QueryBuilder) RightJoin(table, on string) *QueryBuilder {
	return b.JoinWith(RightJoin, table, on)
}

// FullJoin appends a full join.
func (b *QueryBuilder) FullJoin(table, on string) *QueryBuilder {
	return b.JoinWith(FullJoin, table, on)
}

// OuterJoin appends an outer join.
func (b *QueryBuilder) OuterJoin(table, on string) *QueryBuilder {
	return b.JoinWith(OuterJoin, table, on)
}

// JoinWith appends a join of the given kind. An empty kind means a left join.
func (b *QueryBuilder) JoinWith(kind JoinKind, table, on string) *QueryBuilder {
	if kind == "" {
		kind = LeftJoin
	}
	if !kind.valid() {
		b.AddError(fmt.Errorf("sql: unknown join kind %q", kind))
		return b
	}
	b.joins = append(b.joins, join{kind: kind, table: table, on: on})
	return b
}

// Where appends a predicate, combined with previous ones using "and". The
// predicate text is used verbatim and may contain "?" placeholders bound to
// args. An empty predicate is ignored; one with args is an error.
func (b *QueryBuilder) Where(predicate string, args ...any) *QueryBuilder {
	if predicate == "" {
		if len(args) > 0 {
			b.AddError(fmt.Errorf("sql: where: empty predicate with %d args", len(args)))
		}
		return b
	}
	if b.where == "" {
		b.where = " where (" + predicate + ")"
	} else {
		b.where += " and (" + predicate + ")"
	}
	b.whereArgs = append(b.whereArgs, args...)
	return b
}

// WhereCond appends a Condition as a where predicate.
func (b *QueryBuilder) WhereCond(c Condition) *QueryBuilder {
	return b.Where(c.Text, c.Args...)
}

// Having appends a having predicate, combined with previous ones using "and".
// An empty predicate is ignored; one with args is an error.
func (b *QueryBuilder) Having(predicate string, args ...any) *QueryBuilder {
	if predicate == "" {
		if len(args) > 0 {
			b.AddError(fmt.Errorf("sql: having: empty predicate with %d args", len(args)))
		}
		return b
	}
	if b.having == "" {
		b.having = " having (" + predicate + ")"
	} else {
		b.having += " and (" + predicate + ")"
	}
	b.havingArgs = append(b.havingArgs, args...)
	return b
}

// Order appends an ascending order term.
func (b *QueryBuilder) Order(column string) *QueryBuilder {
	return b.OrderBy(column, Asc)
}

// OrderBy appends an order term. An empty direction means ascending.
func (b *QueryBuilder) OrderBy(column string, dir Direction) *QueryBuilder {
	if dir == "" {
		dir = Asc
	}
	if b.order == "" {
		b.order = " order by " + column + " " + string(dir)
	} else {
		b.order += ", " + column + " " + string(dir)
	}
	return b
}

// Group sets the group by expression, replacing any previous one.
func (b *QueryBuilder) Group(column string) *QueryBuilder {
	b.group = " group by " + column
	return b
}

// Limit sets the row limit, replacing any previous one.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	b.limit = " limit " + strconv.Itoa(n)
	return b
}

// Offset sets the row offset, replacing any previous one.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	b.offset = " offset " + strconv.Itoa(n)
	return b
}

// Page sets limit and offset for the 1-based page of the given size.
// Pages below 1 are treated as the first page.
func (b *QueryBuilder) Page(page, size int) *QueryBuilder {
	page = max(page, 1)
	return b.Limit(size).Offset((page - 1) * size)
}

// Rows merges the given row values into the values written by INSERT and UPDATE.
func (b *QueryBuilder) Rows(r *Row) *QueryBuilder {
	b.row.Merge(r)
	return b
}

// Set sets a single row value.
func (b *QueryBuilder) Set(column string, value any) *QueryBuilder {
	b.row.Set(column, value)
	return b
}

// AddError records an error reported on the next Build.
func (b *QueryBuilder) AddError(err error) *QueryBuilder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the errors recorded while configuring the builder.
func (b *QueryBuilder) Err() error {
	return dbquery.NewAggregateError(b.errs...)
}

// Op returns the configured statement action.
func (b *QueryBuilder) Op() dbquery.Op {
	return b.op
}

// Table returns the configured table expression, without joins.
func (b *QueryBuilder) Table() string {
	return b.table
}

// Params returns a copy of the arguments collected by the last build,
// in placeholder order.
func (b *QueryBuilder) Params() []any {
	params := make([]any, len(b.params))
	copy(params, b.params)
	return params
}

// Build assembles the statement for the configured action. The collected
// arguments are available from Params.
func (b *QueryBuilder) Build() (string, error) {
	b.params = b.params[:0]
	var (
		query string
		err   error
	)
	switch b.op {
	case dbquery.OpInsert:
		query, err = b.buildInsert()
	case dbquery.OpDelete:
		query, err = b.buildDelete()
	case dbquery.OpUpdate:
		query, err = b.buildUpdate()
	case dbquery.OpSelect:
		query, err = b.buildSelect(false)
	case dbquery.OpUnset:
		err = dbquery.ErrNoAction
	default:
		err = fmt.Errorf("sql: unknown operation %s", b.op)
	}
	if err != nil {
		b.params = b.params[:0]
		return "", dbquery.NewBuildError(b.op, err)
	}
	return query, nil
}

// BuildCount assembles the counting variant of the select statement:
// "count(*) as stat" is projected and limit and offset are omitted.
func (b *QueryBuilder) BuildCount() (string, error) {
	b.params = b.params[:0]
	query, err := b.buildSelect(true)
	if err != nil {
		b.params = b.params[:0]
		return "", dbquery.NewBuildError(dbquery.OpSelect, err)
	}
	return query, nil
}

// Query builds the statement and returns it with its arguments.
func (b *QueryBuilder) Query() (string, []any, error) {
	query, err := b.Build()
	if err != nil {
		return "", nil, err
	}
	return query, b.Params(), nil
}

// Statement builds the statement and returns it with its metadata.
func (b *QueryBuilder) Statement() (*dbquery.Statement, error) {
	query, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.statement(b.op, query, false), nil
}

// CountStatement builds the counting variant of the select statement.
func (b *QueryBuilder) CountStatement() (*dbquery.Statement, error) {
	query, err := b.BuildCount()
	if err != nil {
		return nil, err
	}
	return b.statement(dbquery.OpSelect, query, true), nil
}

func (b *QueryBuilder) statement(op dbquery.Op, query string, count bool) *dbquery.Statement {
	return &dbquery.Statement{
		Op:       op,
		Table:    b.table,
		Tables:   b.tables(op),
		SQL:      query,
		Args:     b.Params(),
		Filtered: b.where != "",
		Count:    count,
	}
}

// tables returns the names of the tables the statement references. Joins
// are only rendered for selects.
func (b *QueryBuilder) tables(op dbquery.Op) []string {
	names := []string{dbquery.TableName(b.table)}
	if op != dbquery.OpSelect {
		return names
	}
	for _, j := range b.joins {
		if name := dbquery.TableName(j.table); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// check returns the errors that prevent any statement from being built.
func (b *QueryBuilder) check() error {
	if err := b.Err(); err != nil {
		return err
	}
	if b.table == "" {
		return dbquery.ErrMissingTable
	}
	return nil
}

func (b *QueryBuilder) buildInsert() (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	var columns, marks []string
	b.row.Each(func(column string, value any) {
		if isNull(value) {
			return
		}
		columns = append(columns, column)
		marks = append(marks, "?")
		b.params = append(b.params, value)
	})
	if len(columns) == 0 {
		return "", dbquery.ErrEmptyRow
	}
	var sb strings.Builder
	sb.WriteString("insert into ")
	sb.WriteString(b.table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(columns, " , "))
	sb.WriteString(") values (")
	sb.WriteString(strings.Join(marks, " , "))
	sb.WriteString(")")
	return sb.String(), nil
}

func (b *QueryBuilder) buildDelete() (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	b.params = append(b.params, b.whereArgs...)
	return "delete from " + b.table + b.where, nil
}

func (b *QueryBuilder) buildUpdate() (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	var set []string
	b.row.Each(func(column string, value any) {
		if isNull(value) {
			return
		}
		set = append(set, column+" = ?")
		b.params = append(b.params, value)
	})
	if len(set) == 0 {
		return "", dbquery.ErrEmptyRow
	}
	b.params = append(b.params, b.whereArgs...)
	var sb strings.Builder
	sb.WriteString("update ")
	sb.WriteString(b.table)
	sb.WriteString(" set ")
	sb.WriteString(strings.Join(set, " , "))
	sb.WriteString(b.where)
	return sb.String(), nil
}

func (b *QueryBuilder) buildSelect(count bool) (string, error) {
	if err := b.check(); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("select ")
	if count {
		sb.WriteString("count(*) as stat")
	} else if b.columns == "" {
		sb.WriteString("*")
	} else {
		sb.WriteString(b.columns)
	}
	sb.WriteString(" from ")
	b.writeFrom(&sb)
	sb.WriteString(b.where)
	sb.WriteString(b.group)
	sb.WriteString(b.having)
	sb.WriteString(b.order)
	if !count {
		sb.WriteString(b.limit)
		sb.WriteString(b.offset)
	}
	b.params = append(b.params, b.whereArgs...)
	b.params = append(b.params, b.havingArgs...)
	return sb.String(), nil
}

// writeFrom writes the table expression followed by the joins in the order
// they were added. The table itself is never modified, so repeated builds
// render the joins once.
func (b *QueryBuilder) writeFrom(sb *strings.Builder) {
	sb.WriteString(b.table)
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(string(j.kind))
		sb.WriteString(" join ")
		sb.WriteString(j.table)
		sb.WriteString(" on ")
		sb.WriteString(j.on)
	}
}
