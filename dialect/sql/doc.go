// Package sql provides the statement builder and the database/sql based
// layer that executes its output.
//
// # QueryBuilder
//
// A QueryBuilder collects the clauses of one statement through chained
// calls and assembles INSERT, DELETE, UPDATE or SELECT text on Build. Values
// are never inlined: every value becomes a "?" placeholder and is collected,
// in placeholder order, into the parameter list returned by Params.
//
//	b := sql.Select(sql.Col("t1.id"), sql.As("t1.name", "n")).
//	    From("t1").
//	    Join("t2", "t2.t1_id = t1.id").
//	    Where("t1.status = ?", "active").
//	    Where("t2.score > ?", 10).
//	    OrderBy("t1.id", sql.Desc).
//	    Page(3, 20)
//
//	query, err := b.Build()
//	// select t1.id , t1.name as n from t1 left join t2 on t2.t1_id = t1.id
//	//   where (t1.status = ?) and (t2.score > ?) order by t1.id desc limit 20 offset 40
//	args := b.Params() // ["active", 10]
//
// Predicate text passed to Where is rendered verbatim; only values are
// parameterized. The helpers in predicate.go (EQ, In, And, ...) build
// Conditions for WhereCond.
//
// # Rows
//
// INSERT and UPDATE write the values of an insertion-ordered Row. Null
// values are skipped entirely:
//
//	sql.Insert("users").Rows(sql.RowOf("name", "a8m", "email", nil, "age", 30))
//	// insert into users (name , age) values (? , ?)
//
// # Execution
//
// Client runs builders on a dialect.Driver, applying an optional policy
// and count cache. StatsDriver and DebugDriver wrap drivers with
// statistics and slog based logging.
package sql
