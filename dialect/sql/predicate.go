package sql

import "strings"

// Condition is a predicate fragment with the arguments bound to its "?"
// placeholders, in order. The text is rendered verbatim.
type Condition struct {
	Text string
	Args []any
}

// Expr returns a Condition from raw predicate text.
func Expr(text string, args ...any) Condition {
	return Condition{Text: text, Args: args}
}

// IsZero reports whether the condition has no text.
func (c Condition) IsZero() bool {
	return c.Text == ""
}

func binary(column, op string, v any) Condition {
	return Condition{Text: column + " " + op + " ?", Args: []any{v}}
}

// EQ returns a "column = ?" predicate.
func EQ(column string, v any) Condition { return binary(column, "=", v) }

// NEQ returns a "column <> ?" predicate.
func NEQ(column string, v any) Condition { return binary(column, "<>", v) }

// GT returns a "column > ?" predicate.
func GT(column string, v any) Condition { return binary(column, ">", v) }

// GTE returns a "column >= ?" predicate.
func GTE(column string, v any) Condition { return binary(column, ">=", v) }

// LT returns a "column < ?" predicate.
func LT(column string, v any) Condition { return binary(column, "<", v) }

// LTE returns a "column <= ?" predicate.
func LTE(column string, v any) Condition { return binary(column, "<=", v) }

// Like returns a "column like ?" predicate. The pattern is bound as is.
func Like(column, pattern string) Condition { return binary(column, "like", pattern) }

// Contains returns a predicate matching values containing sub.
func Contains(column, sub string) Condition { return Like(column, "%"+sub+"%") }

// HasPrefix returns a predicate matching values starting with prefix.
func HasPrefix(column, prefix string) Condition { return Like(column, prefix+"%") }

// HasSuffix returns a predicate matching values ending with suffix.
func HasSuffix(column, suffix string) Condition { return Like(column, "%"+suffix) }

// IsNull returns a "column is null" predicate.
func IsNull(column string) Condition { return Condition{Text: column + " is null"} }

// NotNull returns a "column is not null" predicate.
func NotNull(column string) Condition { return Condition{Text: column + " is not null"} }

// In returns a "column in (?, ...)" predicate. With no values it never matches.
func In(column string, vs ...any) Condition {
	if len(vs) == 0 {
		return Condition{Text: "1 = 0"}
	}
	return Condition{Text: column + " in (" + marks(len(vs)) + ")", Args: vs}
}

// NotIn returns a "column not in (?, ...)" predicate. With no values it always matches.
func NotIn(column string, vs ...any) Condition {
	if len(vs) == 0 {
		return Condition{Text: "1 = 1"}
	}
	return Condition{Text: column + " not in (" + marks(len(vs)) + ")", Args: vs}
}

// And joins the non-empty conditions with "and", parenthesizing each.
func And(conds ...Condition) Condition { return combine(" and ", conds) }

// Or joins the non-empty conditions with "or", parenthesizing each.
func Or(conds ...Condition) Condition { return combine(" or ", conds) }

// Not negates a condition.
func Not(c Condition) Condition {
	if c.IsZero() {
		return c
	}
	return Condition{Text: "not (" + c.Text + ")", Args: c.Args}
}

func combine(sep string, conds []Condition) Condition {
	var (
		texts []string
		args  []any
	)
	for _, c := range conds {
		if c.IsZero() {
			continue
		}
		texts = append(texts, c.Text)
		args = append(args, c.Args...)
	}
	switch len(texts) {
	case 0:
		return Condition{}
	case 1:
		return Condition{Text: texts[0], Args: args}
	}
	return Condition{Text: "(" + strings.Join(texts, ")"+sep+"(") + ")", Args: args}
}

func marks(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Field is a typed column handle whose methods only accept values of T.
//
//	var Age = sql.Field[int]("age")
//	sql.Select().From("users").WhereCond(Age.GTE(18))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the field equals v.
func (f Field[T]) EQ(v T) Condition { return EQ(string(f), v) }

// NEQ returns a predicate that checks if the field does not equal v.
func (f Field[T]) NEQ(v T) Condition { return NEQ(string(f), v) }

// GT returns a predicate that checks if the field is greater than v.
func (f Field[T]) GT(v T) Condition { return GT(string(f), v) }

// GTE returns a predicate that checks if the field is greater than or equal to v.
func (f Field[T]) GTE(v T) Condition { return GTE(string(f), v) }

// LT returns a predicate that checks if the field is less than v.
func (f Field[T]) LT(v T) Condition { return LT(string(f), v) }

// LTE returns a predicate that checks if the field is less than or equal to v.
func (f Field[T]) LTE(v T) Condition { return LTE(string(f), v) }

// In returns a predicate that checks if the field value is in vs.
func (f Field[T]) In(vs ...T) Condition { return In(string(f), toAny(vs)...) }

// NotIn returns a predicate that checks if the field value is not in vs.
func (f Field[T]) NotIn(vs ...T) Condition { return NotIn(string(f), toAny(vs)...) }

// IsNull returns a predicate that checks if the field is NULL.
func (f Field[T]) IsNull() Condition { return IsNull(string(f)) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f Field[T]) NotNull() Condition { return NotNull(string(f)) }

// Asc returns the field as an ascending order term for OrderBy.
func (f Field[T]) Asc() (string, Direction) { return string(f), Asc }

// Desc returns the field as a descending order term for OrderBy.
func (f Field[T]) Desc() (string, Direction) { return string(f), Desc }

func toAny[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
