// Package migrate applies the goose schema migrations through the API's pgx pool.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vinayak200306/primetrade-assignment/db"
)

const commandTimeout = time.Minute

// Runner wraps database migration capabilities.
type Runner struct {
	pool *pgxpool.Pool
	db   *sql.DB
	fsys fs.FS
	log  *slog.Logger
}

// New returns a migration runner backed by goose. An empty dir selects the
// migrations embedded in the binary.
func New(pool *pgxpool.Pool, dir string, log *slog.Logger) (Runner, error) {
	if pool == nil {
		return Runner{}, errors.New("nil pool provided")
	}
	fsys := db.Migrations()
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return Runner{}, fmt.Errorf("locate migrations dir: %w", err)
		}
		fsys = os.DirFS(dir)
	}
	if log == nil {
		log = slog.Default()
	}
	return Runner{pool: pool, db: stdlib.OpenDBFromPool(pool), fsys: fsys, log: log}, nil
}

func (r Runner) provider() (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, r.db, r.fsys)
	if err != nil {
		return nil, fmt.Errorf("configure goose: %w", err)
	}
	return p, nil
}

// Ensure applies pending migrations.
func (r Runner) Ensure(ctx context.Context) error {
	p, err := r.provider()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	r.log.Info("applying migrations")
	results, err := p.Up(runCtx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		r.log.Info("migration applied", "version", res.Source.Version, "file", res.Source.Path, "duration_ms", res.Duration.Milliseconds())
	}
	r.log.Info("migrations applied", "count", len(results))
	return nil
}

// Status logs applied and pending migrations.
func (r Runner) Status(ctx context.Context) error {
	p, err := r.provider()
	if err != nil {
		return err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, st := range statuses {
		fields := []any{"version", st.Source.Version, "file", st.Source.Path, "state", string(st.State)}
		if !st.AppliedAt.IsZero() {
			fields = append(fields, "applied_at", st.AppliedAt.UTC().Format(time.RFC3339))
		}
		r.log.Info("migration status", fields...)
	}
	return nil
}

// Down rolls back migrations either to the previous version or a specific target version.
func (r Runner) Down(ctx context.Context, targetVersion int64) error {
	p, err := r.provider()
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if targetVersion > 0 {
		r.log.Info("rolling back migrations", "target", targetVersion)
		if _, err := p.DownTo(runCtx, targetVersion); err != nil {
			return fmt.Errorf("rollback to version %d: %w", targetVersion, err)
		}
	} else {
		r.log.Info("rolling back latest migration")
		if _, err := p.Down(runCtx); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
	}
	r.log.Info("rollback complete")
	return nil
}

// Ping ensures the database connection is alive.
func (r Runner) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the sql handle. The pool stays owned by the caller.
func (r Runner) Close() error {
	return r.db.Close()
}
