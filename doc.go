// Package dbquery holds the types shared by the statement builder and the
// layers that execute its output.
//
// The builder itself lives in dialect/sql:
//
//	b := sql.Select(sql.Col("u.id"), sql.As("u.name", "n")).
//	    From("users u").
//	    Join("posts p", "p.user_id = u.id").
//	    Where("u.status = ?", "active").
//	    Order("u.id").
//	    Page(2, 20)
//	query, args, err := b.Query()
//
// This package defines the statement operation (Op), the built Statement
// handed to policies and drivers, the error types returned by the builder
// and the execution layer, and the Cache used for count results.
package dbquery
