package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunMigrations applies the embedded SQL scripts in file name order. Each
// script runs in its own transaction and is recorded in schema_migrations,
// so it is applied at most once per database.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.SugaredLogger) error {
	return runMigrations(ctx, db, migrationsFS, "migrations", logger)
}

func runMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, logger *zap.SugaredLogger) error {
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := migrationNames(fsys, dir)
	if err != nil {
		return err
	}

	for _, name := range names {
		script, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", name, err)
		}

		applied, err := applyMigration(ctx, db, name, string(script))
		if err != nil {
			return err
		}
		if applied {
			logger.Infow("Applied migration", "name", name)
		} else {
			logger.Debugw("Migration already applied", "name", name)
		}
	}
	return nil
}

// migrationNames lists the .sql files of dir in lexical order.
func migrationNames(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations read error: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func applyMigration(ctx context.Context, db *sql.DB, name, script string) (applied bool, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction for migration %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return false, fmt.Errorf("record migration %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, tx.Rollback()
	}

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return false, fmt.Errorf("execute migration %s: %w", name, err)
	}
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit migration %s: %w", name, err)
	}
	return true, nil
}
