// Package postgres implements the persistence interfaces on PostgreSQL via
// pgx. Table names carry an environment prefix (dev_, test_, prod_) so all
// environments can share a database.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds the shared dependencies of the repositories.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds the prefixed table names.
type TableNames struct {
	Sessions string
	Turns    string
}

// NewTableNames creates table names with the given environment prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Sessions: fmt.Sprintf("%ssessions", prefix),
		Turns:    fmt.Sprintf("%smessages", prefix),
	}
}

// CreateConnectionPool creates a pgx pool and verifies connectivity.
//
// Transaction poolers like PgBouncer (port 6543) do not support prepared
// statements; when that port is detected and no explicit mode was set, the
// pool switches to QueryExecModeCacheDescribe, which uses the extended
// protocol without server-side prepared statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for transaction pooler", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
