// Package stmtfile reads statement definitions from YAML documents and turns
// them into query builders. A file holds one statement per document:
//
//	name: adults
//	action: select
//	table: users u
//	columns: [u.id, [u.name, name]]
//	joins:
//	  - {kind: inner, table: pets p, on: p.owner_id = u.id}
//	where:
//	  - {text: "u.age >= ?", args: [18]}
//	  - u.deleted_at is null
//	order: [u.name, u.age desc]
//	page: {number: 2, size: 20}
//	---
//	action: insert
//	table: users
//	row:
//	  name: a8m
//	  age: 30
//
// Row columns keep the order in which they appear in the document.
package stmtfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/dbquery"
	"github.com/syssam/dbquery/dialect/sql"
)

// Statement is a single statement definition.
type Statement struct {
	Name    string      `yaml:"name"`
	Action  string      `yaml:"action"`
	Table   string      `yaml:"table"`
	Columns []any       `yaml:"columns"`
	Joins   []Join      `yaml:"joins"`
	Where   []Predicate `yaml:"where"`
	Group   string      `yaml:"group"`
	Having  []Predicate `yaml:"having"`
	Order   []OrderTerm `yaml:"order"`
	Limit   *int        `yaml:"limit"`
	Offset  *int        `yaml:"offset"`
	Page    *Page       `yaml:"page"`
	Row     Row         `yaml:"row"`
}

// Join is a join clause. An empty kind means a left join.
type Join struct {
	Kind  string `yaml:"kind"`
	Table string `yaml:"table"`
	On    string `yaml:"on"`
}

// Page selects a 1-based page of the given size.
type Page struct {
	Number int `yaml:"number"`
	Size   int `yaml:"size"`
}

// Predicate is a where or having predicate, written either as plain text
// or as a mapping with text and args.
type Predicate struct {
	Text string `yaml:"text"`
	Args []any  `yaml:"args"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Predicate) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		p.Text = n.Value
		return nil
	case yaml.MappingNode:
		type plain Predicate
		return n.Decode((*plain)(p))
	default:
		return fmt.Errorf("line %d: predicate must be a string or a mapping", n.Line)
	}
}

// OrderTerm is an order by term, written either as "column [asc|desc]" or
// as a mapping with column and dir.
type OrderTerm struct {
	Column string        `yaml:"column"`
	Dir    sql.Direction `yaml:"dir"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *OrderTerm) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		o.Column = n.Value
		if i := strings.LastIndexByte(n.Value, ' '); i > 0 {
			switch dir := sql.Direction(strings.ToLower(n.Value[i+1:])); dir {
			case sql.Asc, sql.Desc:
				o.Column, o.Dir = strings.TrimSpace(n.Value[:i]), dir
			}
		}
	case yaml.MappingNode:
		type plain OrderTerm
		if err := n.Decode((*plain)(o)); err != nil {
			return err
		}
		o.Dir = sql.Direction(strings.ToLower(string(o.Dir)))
	default:
		return fmt.Errorf("line %d: order term must be a string or a mapping", n.Line)
	}
	if o.Dir != "" && o.Dir != sql.Asc && o.Dir != sql.Desc {
		return fmt.Errorf("line %d: unknown order direction %q", n.Line, o.Dir)
	}
	return nil
}

// Row holds the row values of an insert or update, in document order.
type Row struct {
	*sql.Row
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *Row) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: row must be a mapping", n.Line)
	}
	r.Row = sql.NewRow()
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: row column must be a string", key.Line)
		}
		var v any
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("line %d: column %s: %w", value.Line, key.Value, err)
		}
		r.Set(key.Value, v)
	}
	return nil
}

var actions = map[string]dbquery.Op{
	"insert": dbquery.OpInsert,
	"delete": dbquery.OpDelete,
	"update": dbquery.OpUpdate,
	"select": dbquery.OpSelect,
}

// Op returns the operation named by the action.
func (s *Statement) Op() (dbquery.Op, error) {
	op, ok := actions[strings.ToLower(s.Action)]
	if !ok {
		return dbquery.OpUnset, fmt.Errorf("stmtfile: unknown action %q", s.Action)
	}
	return op, nil
}

// String returns the statement name, or its action and table.
func (s *Statement) String() string {
	if s.Name != "" {
		return s.Name
	}
	return strings.ToLower(s.Action) + " " + s.Table
}

// Builder returns a query builder configured with the statement.
func (s *Statement) Builder() (*sql.QueryBuilder, error) {
	op, err := s.Op()
	if err != nil {
		return nil, err
	}
	b := sql.New().From(s.Table)
	switch op {
	case dbquery.OpInsert:
		b.Insert()
	case dbquery.OpDelete:
		b.Delete()
	case dbquery.OpUpdate:
		b.Update()
	case dbquery.OpSelect:
		b.SelectAny(columns(s.Columns)...)
	}
	for _, j := range s.Joins {
		b.JoinWith(sql.JoinKind(strings.ToLower(j.Kind)), j.Table, j.On)
	}
	for _, p := range s.Where {
		b.Where(p.Text, p.Args...)
	}
	if s.Group != "" {
		b.Group(s.Group)
	}
	for _, p := range s.Having {
		b.Having(p.Text, p.Args...)
	}
	for _, o := range s.Order {
		b.OrderBy(o.Column, o.Dir)
	}
	if s.Page != nil {
		b.Page(s.Page.Number, s.Page.Size)
	}
	if s.Limit != nil {
		b.Limit(*s.Limit)
	}
	if s.Offset != nil {
		b.Offset(*s.Offset)
	}
	if s.Row.Row != nil {
		b.Rows(s.Row.Row)
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("stmtfile: %s: %w", s, err)
	}
	return b, nil
}

// columns converts decoded column entries to the forms accepted by
// SelectAny: sequences of strings become []string.
func columns(cs []any) []any {
	out := make([]any, len(cs))
	for i, c := range cs {
		out[i] = c
		seq, ok := c.([]any)
		if !ok {
			continue
		}
		strs := make([]string, len(seq))
		for j, v := range seq {
			s, ok := v.(string)
			if !ok {
				strs = nil
				break
			}
			strs[j] = s
		}
		if strs != nil {
			out[i] = strs
		}
	}
	return out
}

// Parse reads all statement documents from r.
func Parse(r io.Reader) ([]*Statement, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var stmts []*Statement
	for {
		s := &Statement{}
		err := dec.Decode(s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stmtfile: document %d: %w", len(stmts)+1, err)
		}
		if _, err := s.Op(); err != nil {
			return nil, fmt.Errorf("document %d: %w", len(stmts)+1, err)
		}
		stmts = append(stmts, s)
	}
	if len(stmts) == 0 {
		return nil, errors.New("stmtfile: no statements")
	}
	return stmts, nil
}

// ParseFile reads all statement documents from the named file.
func ParseFile(path string) ([]*Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Lookup returns the statement with the given name. With an empty name, the
// only statement is returned.
func Lookup(stmts []*Statement, name string) (*Statement, error) {
	if name == "" {
		if len(stmts) != 1 {
			return nil, fmt.Errorf("stmtfile: %d statements, a name is required", len(stmts))
		}
		return stmts[0], nil
	}
	for _, s := range stmts {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("stmtfile: no statement named %q", name)
}
