package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/syssam/dbquery"
	"github.com/syssam/dbquery/dialect"
	"github.com/syssam/dbquery/dialect/sql"
	"github.com/syssam/dbquery/internal/config"
	"github.com/syssam/dbquery/internal/stmtfile"
	"github.com/syssam/dbquery/policy"
)

// CommandContext holds shared dependencies for command execution.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Client *sql.Client
	Stats  *sql.StatsDriver
}

// NewCommandContext opens the configured database and creates a client
// with the configured policy, count cache and statement logging.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())
	if err := cfg.RequireDSN(); err != nil {
		return nil, nil, err
	}

	drv, err := sql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", cfg.Dialect, err)
	}
	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(cfg.SlowThreshold),
		sql.WithSlowQueryLog(logger),
	)
	var wrapped dialect.Driver = stats
	if logger.Enabled(cmd.Context(), slog.LevelDebug) {
		wrapped = sql.NewDebugDriver(stats, logger)
	}

	opts := []sql.ClientOption{
		sql.WithLogger(logger),
		sql.WithPolicy(newPolicy(cfg.Policy)),
	}
	if cfg.CacheTTL > 0 {
		opts = append(opts, sql.WithCountCache(dbquery.NewMemoryCache(), cfg.CacheTTL))
	}

	cleanup := func() {
		logger.Debug("statement stats", "stats", stats.QueryStats().Stats().String())
		_ = wrapped.Close()
	}
	return &CommandContext{
		Cfg:    cfg,
		Logger: logger,
		Client: sql.NewClient(wrapped, opts...),
		Stats:  stats,
	}, cleanup, nil
}

// newPolicy returns the statement policy described by the configuration.
func newPolicy(c config.PolicyConfig) policy.Policy {
	var p policy.Policy
	if len(c.DenyTables) > 0 {
		p = append(p, policy.DenyTablesRule(c.DenyTables...))
	}
	if c.DenyUnfiltered {
		p = append(p, policy.DenyUnfilteredRule())
	}
	return p
}

// loadBuilder reads the statement file and returns the builder of the named
// statement.
func loadBuilder(path, name string) (*stmtfile.Statement, *sql.QueryBuilder, error) {
	stmts, err := stmtfile.ParseFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read statements: %w", err)
	}
	s, err := stmtfile.Lookup(stmts, name)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.Builder()
	if err != nil {
		return nil, nil, err
	}
	return s, b, nil
}

// addStatementFlags registers the flags selecting a statement.
func addStatementFlags(cmd *cobra.Command, file, name *string) {
	cmd.Flags().StringVarP(file, "file", "f", "", "Statement file (YAML)")
	cmd.Flags().StringVarP(name, "name", "n", "", "Statement name (required when the file holds several)")
	_ = cmd.MarkFlagRequired("file")
}
