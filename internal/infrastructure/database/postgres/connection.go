package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"credit-engine/internal/config"
)

// Pool sizing for the credit API workload: decision reads dominate,
// writes are short single-row transactions.
const (
	poolMaxConns          = 10
	poolMinConns          = 2
	poolMaxConnIdleTime   = 5 * time.Minute
	poolHealthCheckPeriod = time.Minute
	connectPingTimeout    = 5 * time.Second
)

// NewConnectionPool builds and verifies the pgx pool the repositories
// share. The pool is pinged before it is handed out so a bad URL fails
// at startup, not on the first request.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is empty in configuration")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}
	poolConfig.MaxConns = poolMaxConns
	poolConfig.MinConns = poolMinConns
	poolConfig.MaxConnIdleTime = poolMaxConnIdleTime
	poolConfig.HealthCheckPeriod = poolHealthCheckPeriod

	logger.Info("Connecting to PostgreSQL...", "host", poolConfig.ConnConfig.Host, "db", poolConfig.ConnConfig.Database)
	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("failed to ping database on connect: %w", err)
	}

	logger.Info("PostgreSQL connection pool ready.", "max_conns", poolMaxConns)
	return dbpool, nil
}
