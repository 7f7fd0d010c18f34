// Package database opens connections to the PostgreSQL store and exposes
// the introspection queries used by the status endpoint.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/devlogging/backend/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

// Open returns a database handle for the given DSN, verified with a ping.
// The ping is retried with fibonacci backoff because the database may still
// be starting when the service comes up.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewFibonacci(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

// Status describes the health of the database dependency.
type Status struct {
	Version           string `json:"version"`
	MaxConnections    int    `json:"max_connections"`
	OpenedConnections int    `json:"opened_connections"`
}

// ServerStatus collects the database server version, its connection limit,
// and the number of connections open against the current database.
func ServerStatus(ctx context.Context, db dbx.DBTX) (*Status, error) {
	s := &Status{}

	if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&s.Version); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	var maxConnections string
	if err := db.QueryRowContext(ctx, "SHOW max_connections").Scan(&maxConnections); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := strconv.Atoi(maxConnections)
	if err != nil {
		return nil, fmt.Errorf("unexpected max_connections value %q: %w", maxConnections, err)
	}
	s.MaxConnections = n

	query := "SELECT count(*)::int FROM pg_stat_activity WHERE datname = current_database()"
	if err := db.QueryRowContext(ctx, query).Scan(&s.OpenedConnections); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}
