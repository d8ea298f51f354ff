package sql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/dbquery"
	"github.com/syssam/dbquery/dialect"
)

// Client executes builders against a driver. Every statement is built,
// checked against the configured policy and then run; constraint
// violations are reported as dbquery.ConstraintError.
//
// A Client is safe for concurrent use as long as each goroutine uses its
// own builders.
type Client struct {
	drv     dialect.Driver
	eq      dialect.ExecQuerier
	policy  dbquery.Policy
	cache   dbquery.Cache
	ttl     time.Duration
	logger  *slog.Logger
	inTx    bool
	// written collects the tables mutated inside a transaction. Their
	// cached counts are dropped once the transaction commits.
	written *tableSet
}

type tableSet struct {
	mu     sync.Mutex
	tables []string
}

func (s *tableSet) add(tables ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range tables {
		if !slices.Contains(s.tables, t) {
			s.tables = append(s.tables, t)
		}
	}
}

func (s *tableSet) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tables)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPolicy sets the policy evaluated before every statement.
func WithPolicy(p dbquery.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// WithCountCache caches Count results for ttl. Mutations executed through
// the client drop the cached counts of every statement that references
// their table; inside a transaction, once it commits.
func WithCountCache(cache dbquery.Cache, ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient returns a Client running statements on drv.
func NewClient(drv dialect.Driver, opts ...ClientOption) *Client {
	c := &Client{drv: drv, eq: drv, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Driver returns the underlying driver.
func (c *Client) Driver() dialect.Driver {
	return c.drv
}

// Exec builds and executes a statement that does not return rows.
func (c *Client) Exec(ctx context.Context, b *QueryBuilder) (Result, error) {
	stmt, err := c.prepare(ctx, b.Statement)
	if err != nil {
		return nil, err
	}
	var res Result
	if err := c.eq.Exec(ctx, stmt.SQL, stmt.Args, &res); err != nil {
		return nil, dbquery.NewExecError(stmt.Op, stmt.Table, classify(err))
	}
	if stmt.Op.Mutates() {
		c.invalidate(ctx, stmt.TableNames()...)
	}
	return res, nil
}

// Query builds and executes a statement that returns rows. The caller
// must close the returned rows.
func (c *Client) Query(ctx context.Context, b *QueryBuilder) (*Rows, error) {
	stmt, err := c.prepare(ctx, b.Statement)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, stmt)
}

// Count runs the counting variant of a select builder.
func (c *Client) Count(ctx context.Context, b *QueryBuilder) (int64, error) {
	stmt, err := c.prepare(ctx, b.CountStatement)
	if err != nil {
		return 0, err
	}
	return c.count(ctx, stmt)
}

// Page runs the select builder and its counting variant concurrently, or
// one after the other inside a transaction. The rows are passed to fn,
// which must not retain them; the total number of matching rows, ignoring
// limit and offset, is returned.
func (c *Client) Page(ctx context.Context, b *QueryBuilder, fn func(*Rows) error) (int64, error) {
	if b.Op() != dbquery.OpSelect {
		return 0, dbquery.NewBuildError(b.Op(), errors.New("sql: page requires a select statement"))
	}
	// Both statements are built here: the builder must not be shared.
	countStmt, err := c.prepare(ctx, b.CountStatement)
	if err != nil {
		return 0, err
	}
	pageStmt, err := c.prepare(ctx, b.Statement)
	if err != nil {
		return 0, err
	}
	page := func(ctx context.Context) error {
		rows, err := c.query(ctx, pageStmt)
		if err != nil {
			return err
		}
		defer rows.Close()
		if err := fn(rows); err != nil {
			return err
		}
		return rows.Err()
	}
	// A transaction holds a single connection, which cannot serve two
	// statements at once.
	if c.inTx {
		total, err := c.count(ctx, countStmt)
		if err != nil {
			return 0, err
		}
		if err := page(ctx); err != nil {
			return 0, err
		}
		return total, nil
	}
	var total int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.count(gctx, countStmt)
		total = n
		return err
	})
	g.Go(func() error {
		return page(gctx)
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// WithTx runs fn in a transaction. The transaction is committed if fn
// returns nil and rolled back otherwise. Cached counts of the tables
// written by fn are dropped after the commit.
func (c *Client) WithTx(ctx context.Context, fn func(tx *Client) error) error {
	tx, err := c.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: starting a transaction: %w", err)
	}
	txc := *c
	txc.eq = tx
	txc.inTx = true
	txc.written = &tableSet{}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(&txc); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: committing transaction: %w", err)
	}
	c.invalidate(ctx, txc.written.list()...)
	return nil
}

// prepare builds a statement and evaluates the policy on it.
func (c *Client) prepare(ctx context.Context, build func() (*dbquery.Statement, error)) (*dbquery.Statement, error) {
	stmt, err := build()
	if err != nil {
		return nil, err
	}
	if c.policy != nil {
		if err := c.policy.EvalStatement(ctx, stmt); err != nil {
			return nil, dbquery.NewPolicyError(stmt.Op, stmt.Table, err)
		}
	}
	return stmt, nil
}

func (c *Client) query(ctx context.Context, stmt *dbquery.Statement) (*Rows, error) {
	rows := &Rows{}
	if err := c.eq.Query(ctx, stmt.SQL, stmt.Args, rows); err != nil {
		return nil, dbquery.NewExecError(stmt.Op, stmt.Table, classify(err))
	}
	return rows, nil
}

func (c *Client) count(ctx context.Context, stmt *dbquery.Statement) (int64, error) {
	keys, cached := c.cachedCount(ctx, stmt)
	if cached != nil {
		return *cached, nil
	}
	rows, err := c.query(ctx, stmt)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, dbquery.NewExecError(stmt.Op, stmt.Table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, dbquery.NewExecError(stmt.Op, stmt.Table, err)
	}
	if keys != nil {
		c.storeCount(ctx, keys, n)
	}
	return n, nil
}

// cachedCount returns the cache keys of a count statement, one per table
// it references, and the cached value, if any. A value is only used when
// the keys of all tables are present. The keys are nil when caching is
// disabled.
func (c *Client) cachedCount(ctx context.Context, stmt *dbquery.Statement) ([]string, *int64) {
	if c.cache == nil || c.inTx {
		return nil, nil
	}
	cks, err := dbquery.StatementKeys(stmt)
	if err != nil {
		c.logger.WarnContext(ctx, "count cache key", "table", stmt.Table, "error", err)
		return nil, nil
	}
	keys := make([]string, len(cks))
	for i, ck := range cks {
		keys[i] = ck.String()
	}
	var value []byte
	for _, key := range keys {
		b, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.WarnContext(ctx, "count cache get", "key", key, "error", err)
			return keys, nil
		}
		if b == nil {
			return keys, nil
		}
		if value == nil {
			value = b
		}
	}
	n, err := dbquery.DecodeCount(value)
	if err != nil {
		c.logger.WarnContext(ctx, "count cache decode", "key", keys[0], "error", err)
		return keys, nil
	}
	c.logger.DebugContext(ctx, "count cache hit", "key", keys[0], "count", n)
	return keys, &n
}

func (c *Client) storeCount(ctx context.Context, keys []string, n int64) {
	b, err := dbquery.EncodeCount(n)
	if err != nil {
		c.logger.WarnContext(ctx, "count cache encode", "count", n, "error", err)
		return
	}
	for _, key := range keys {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.logger.WarnContext(ctx, "count cache set", "key", key, "error", err)
			return
		}
	}
}

// invalidate drops the cached counts of the given tables. Inside a
// transaction the tables are recorded and dropped on commit.
func (c *Client) invalidate(ctx context.Context, tables ...string) {
	if c.cache == nil {
		return
	}
	if c.inTx {
		c.written.add(tables...)
		return
	}
	for _, table := range tables {
		if err := c.cache.DeletePrefix(ctx, dbquery.TablePrefix(table)); err != nil {
			c.logger.WarnContext(ctx, "count cache invalidate", "table", table, "error", err)
		}
	}
}
