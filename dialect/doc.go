// Package dialect defines the database backends the statement builder can
// be executed against and the driver interfaces the execution layer is
// written to.
//
// # Supported Dialects
//
// The builder only emits "?" placeholders, so the supported backends are
// the ones whose drivers bind them positionally:
//
//   - MySQL: MySQL/MariaDB database (github.com/go-sql-driver/mysql)
//   - SQLite: SQLite database (modernc.org/sqlite)
//
// # Driver Interface
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface extends ExecQuerier with Commit and Rollback. Both are
// implemented by dialect/sql.
//
// # Usage
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	client := sql.NewClient(drv)
//	res, err := client.Exec(ctx, sql.Insert("users").Set("name", "a8m"))
package dialect
