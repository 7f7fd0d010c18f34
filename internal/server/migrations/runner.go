package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/pressly/goose/v3"
)

// Migration describes one schema migration in API responses. Name is the
// migration file name; Version is its numeric timestamp prefix. Migrations
// are ordered by ascending Version, so ordering is numeric and
// platform-independent.
type Migration struct {
	Name    string `json:"name"`
	Version int64  `json:"version"`
}

// Runner lists and applies migrations against a database handle. It keeps no
// connection of its own: callers pass a scoped *sql.DB per operation and
// stay responsible for releasing it. The applied-migrations ledger is
// goose's version table; goose runs each migration and its ledger insert in
// one transaction, so a migration is either fully applied or not recorded.
type Runner struct {
	dialect goose.Dialect
	fsys    fs.FS
}

// NewRunner returns a Runner over the embedded PostgreSQL migrations.
func NewRunner() *Runner {
	return &Runner{dialect: goose.DialectPostgres, fsys: Embed}
}

// NewRunnerFor returns a Runner over an arbitrary dialect and migration
// source. Used by tests.
func NewRunnerFor(dialect goose.Dialect, fsys fs.FS) *Runner {
	return &Runner{dialect: dialect, fsys: fsys}
}

// ListPending returns, in ascending version order, the migrations not yet
// recorded in the ledger. It does not change the schema.
func (r *Runner) ListPending(ctx context.Context, db *sql.DB) ([]Migration, error) {
	provider, err := goose.NewProvider(r.dialect, db, r.fsys)
	if err != nil {
		return nil, fmt.Errorf("migration source error: %w", err)
	}

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status error: %w", err)
	}

	pending := []Migration{}
	for _, s := range statuses {
		if s.State == goose.StatePending {
			pending = append(pending, Migration{
				Name:    path.Base(s.Source.Path),
				Version: s.Source.Version,
			})
		}
	}
	return pending, nil
}

// Apply runs every pending migration in ascending version order and returns
// the ones that were applied. If migration k fails, migrations before it
// stay committed, the rest are not attempted, and the returned error names
// the failure; Apply never retries.
func (r *Runner) Apply(ctx context.Context, db *sql.DB) ([]Migration, error) {
	provider, err := goose.NewProvider(r.dialect, db, r.fsys)
	if err != nil {
		return nil, fmt.Errorf("migration source error: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		var partial *goose.PartialError
		if errors.As(err, &partial) {
			applied := toMigrations(partial.Applied)
			failed := "unknown"
			if partial.Failed != nil && partial.Failed.Source != nil {
				failed = path.Base(partial.Failed.Source.Path)
			}
			return applied, fmt.Errorf("migration %s failed after %d applied: %w", failed, len(applied), partial.Err)
		}
		return nil, fmt.Errorf("migration apply error: %w", err)
	}

	return toMigrations(results), nil
}

func toMigrations(results []*goose.MigrationResult) []Migration {
	applied := []Migration{}
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		applied = append(applied, Migration{
			Name:    path.Base(res.Source.Path),
			Version: res.Source.Version,
		})
	}
	return applied
}
