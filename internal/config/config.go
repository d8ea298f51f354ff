// Package config provides configuration management for the dbquery CLI.
//
// Configuration is read from defaults, a dbquery.yaml file, DBQUERY_
// environment variables and command line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/syssam/dbquery/dialect"
)

// Default values.
const (
	DefaultDialect       = dialect.SQLite
	DefaultSlowThreshold = 100 * time.Millisecond
	DefaultLogLevel      = "info"
)

// Config holds the CLI configuration.
type Config struct {
	// Dialect is the database dialect: "mysql" or "sqlite".
	Dialect string `koanf:"dialect"`
	// DSN is the data source name passed to the driver. ${VAR} references
	// are expanded from the environment.
	DSN string `koanf:"dsn"`
	// SlowThreshold is the duration above which a statement is logged as slow.
	SlowThreshold time.Duration `koanf:"slow_threshold"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `koanf:"log_level"`
	// CacheTTL enables the count cache when positive.
	CacheTTL time.Duration `koanf:"cache_ttl"`
	Policy   PolicyConfig  `koanf:"policy"`
}

// PolicyConfig configures the statement policy of the CLI.
type PolicyConfig struct {
	// DenyUnfiltered rejects updates and deletes without a where clause.
	DenyUnfiltered bool `koanf:"deny_unfiltered"`
	// DenyTables lists tables no statement may target.
	DenyTables []string `koanf:"deny_tables"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if err := dialect.Validate(c.Dialect); err != nil {
		errs = append(errs, err)
	}
	if c.Dialect == dialect.MySQL && c.DSN != "" {
		if _, err := mysql.ParseDSN(c.DSN); err != nil {
			errs = append(errs, fmt.Errorf("invalid mysql dsn: %w", err))
		}
	}
	if c.SlowThreshold < 0 {
		errs = append(errs, fmt.Errorf("slow_threshold must not be negative: %s", c.SlowThreshold))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache_ttl must not be negative: %s", c.CacheTTL))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RequireDSN returns an error if no DSN is configured.
func (c *Config) RequireDSN() error {
	if c.DSN == "" {
		return errors.New("dsn is required\nHint: set dsn in dbquery.yaml, DBQUERY_DSN or --dsn")
	}
	return nil
}

// Level returns the slog level of LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
