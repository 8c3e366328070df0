package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates a pgx connection pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string, opts ...func(*pgxpool.Config)) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	// Connection pool settings
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.MaxConnLifetime == 0 {
		cfg.MaxConnLifetime = time.Hour
	}
	if cfg.HealthCheckPeriod == 0 {
		cfg.HealthCheckPeriod = time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// MigrationFiles lists the *.<direction>.sql files of dir, ascending for up and descending
// for down.
func MigrationFiles(dir, direction string) ([]string, error) {
	if direction != DirectionUp && direction != DirectionDown {
		return nil, fmt.Errorf("unknown migration direction %q", direction)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	suffix := "." + direction + ".sql"
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), suffix) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(files)
	if direction == DirectionDown {
		sort.Sort(sort.Reverse(sort.StringSlice(files)))
	}
	return files, nil
}

// ApplyMigrations executes the migration files of dir in order. It returns the names of the
// files that were applied.
func ApplyMigrations(ctx context.Context, db Execer, dir, direction string, logf func(string, ...any)) ([]string, error) {
	files, err := MigrationFiles(dir, direction)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(files))
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration file %s: %w", filepath.Base(path), err)
		}

		if logf != nil {
			logf("Applying migration: %s", filepath.Base(path))
		}
		if _, err := db.Exec(ctx, string(content)); err != nil {
			return applied, fmt.Errorf("failed to execute migration %s: %w", filepath.Base(path), err)
		}
		applied = append(applied, filepath.Base(path))
	}
	return applied, nil
}

// TableExists reports whether table exists in the public schema.
func TableExists(ctx context.Context, pool *pgxpool.Pool, table string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = 'public' AND table_name = $1
        )
    `, table).Scan(&exists)
	return exists, err
}

// TableCount returns the number of rows in table. table must come from a trusted list.
func TableCount(ctx context.Context, pool *pgxpool.Pool, table string) (int64, error) {
	var count int64
	err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", pgxIdentifier(table))).Scan(&count)
	return count, err
}

func pgxIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
