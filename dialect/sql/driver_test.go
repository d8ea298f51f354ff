package sql

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/dbquery/dialect"
)

func TestOpen(t *testing.T) {
	t.Run("unsupported dialect", func(t *testing.T) {
		_, err := Open("postgres", "host=localhost")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres")
	})

	t.Run("sqlite", func(t *testing.T) {
		drv, err := Open(dialect.SQLite, ":memory:")
		require.NoError(t, err)
		defer drv.Close()
		assert.Equal(t, dialect.SQLite, drv.Dialect())
		require.NoError(t, drv.DB().PingContext(context.Background()))
	})
}

func TestOpenDB(t *testing.T) {
	for _, d := range dialect.Supported {
		t.Run(d, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(d, db)
			assert.NotNil(t, drv)
			assert.Equal(t, d, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	t.Run("simple_query", func(t *testing.T) {
		mock.ExpectQuery("select id , name from users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "Alice").
				AddRow(2, "Bob"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "select id , name from users", []any{}, rows)
		require.NoError(t, err)
		require.NoError(t, rows.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_with_args", func(t *testing.T) {
		mock.ExpectQuery(`select name from users where \(id = \?\)`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Alice"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "select name from users where (id = ?)", []any{1}, rows)
		require.NoError(t, err)
		require.NoError(t, rows.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_error", func(t *testing.T) {
		expectedErr := errors.New("database error")
		mock.ExpectQuery("select").WillReturnError(expectedErr)

		rows := &Rows{}
		err := drv.Query(context.Background(), "select", []any{}, rows)
		require.ErrorIs(t, err, expectedErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_target", func(t *testing.T) {
		err := drv.Query(context.Background(), "select 1", []any{}, &sql.Rows{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expect *sql.Rows")
	})

	t.Run("invalid_args", func(t *testing.T) {
		err := drv.Query(context.Background(), "select 1", []string{"a"}, &Rows{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expect []any for args")
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	t.Run("simple_exec", func(t *testing.T) {
		mock.ExpectExec("insert into users").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := drv.Exec(context.Background(), "insert into users (name) values ('test')", []any{}, nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_with_result", func(t *testing.T) {
		mock.ExpectExec(`update users set name = \? where \(id = \?\)`).
			WithArgs("Alice", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		var res Result
		err := drv.Exec(context.Background(), "update users set name = ? where (id = ?)", []any{"Alice", 1}, &res)
		require.NoError(t, err)
		n, err := res.RowsAffected()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec_error", func(t *testing.T) {
		expectedErr := errors.New("constraint violation")
		mock.ExpectExec("delete").WillReturnError(expectedErr)

		err := drv.Exec(context.Background(), "delete from users", []any{}, nil)
		require.ErrorIs(t, err, expectedErr)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_target", func(t *testing.T) {
		var n int
		err := drv.Exec(context.Background(), "delete from users", []any{}, &n)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expect *sql.Result")
	})
}

func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.SQLite, db)

	t.Run("successful_commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("insert into users").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		err = tx.Exec(context.Background(), "insert into users (name) values (?)", []any{"test"}, nil)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("insert into users").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		err = tx.Exec(context.Background(), "insert into users (name) values (?)", []any{"test"}, nil)
		require.Error(t, err)
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query_in_transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("select").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		rows := &Rows{}
		err = tx.Query(context.Background(), "select id from users", []any{}, rows)
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin_error", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("busy"))
		_, err := drv.Tx(context.Background())
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContextCancellation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock.ExpectQuery("select").WillReturnError(context.Canceled)
	rows := &Rows{}
	err = drv.Query(ctx, "select 1", []any{}, rows)
	assert.Error(t, err)
}

func TestScanMaps(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectQuery("select").
		WillReturnRows(sqlmock.NewRows([]string{"name", "email"}).
			AddRow([]byte("Alice"), nil).
			AddRow(nil, "bob@example.com"))

	rows := &Rows{}
	err = drv.Query(context.Background(), "select name , email from users", []any{}, rows)
	require.NoError(t, err)
	columns, maps, err := ScanMaps(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, columns)
	require.Len(t, maps, 2)
	assert.Equal(t, "Alice", maps[0]["name"])
	assert.Nil(t, maps[0]["email"])
	assert.Nil(t, maps[1]["name"])
	assert.Equal(t, "bob@example.com", maps[1]["email"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func BenchmarkDriver(b *testing.B) {
	db, mock, err := sqlmock.New()
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	drv := OpenDB(dialect.MySQL, db)

	b.Run("Query_Simple", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			mock.ExpectQuery("select 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			rows := &Rows{}
			_ = drv.Query(context.Background(), "select 1", []any{}, rows)
			rows.Close()
		}
	})

	b.Run("Exec_Simple", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			mock.ExpectExec("insert").WillReturnResult(sqlmock.NewResult(1, 1))
			_ = drv.Exec(context.Background(), "insert into t values (1)", []any{}, nil)
		}
	})
}
