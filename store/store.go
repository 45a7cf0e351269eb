// Package store opens the relational database and owns its schema and demo
// data.
package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/pkg/logx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// migrateFileNameSplit separates the patch number from the description,
	// e.g. "01__init.sql"
	migrateFileNameSplit = "__"
)

//go:embed migration
var migrationFS embed.FS

// Open connects to the configured database and applies pool settings
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, NewUnsupportedDriverError(cfg.Driver)
	}

	logx.WithFields(logx.Fields{
		"driver": cfg.Driver,
		"host":   cfg.Host,
		"db":     cfg.Name,
	}).Debug("Connecting to database")

	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, NewConnectionFailedError(cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// one writer; also keeps shared in-memory databases alive
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, NewConnectionFailedError(cfg.Driver, err)
	}

	logx.WithFields(logx.Fields{
		"driver":         cfg.Driver,
		"max_open_conns": db.Stats().MaxOpenConnections,
		"conn_lifetime":  cfg.ConnMaxLifetime,
	}).Info("Database connection pool configured")

	return db, nil
}

// Migrate applies embedded migrations for the database's driver that have not
// been applied yet. Each file runs in its own transaction.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	driver := db.DriverName()

	files, err := migrationFiles(driver)
	if err != nil {
		return NewMigrationFailedError("list", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     TEXT PRIMARY KEY,
			applied_at  TIMESTAMP NOT NULL
		)`); err != nil {
		return NewMigrationFailedError("schema_migrations", err)
	}

	applied := map[string]bool{}
	var versions []string
	if err := db.SelectContext(ctx, &versions, `SELECT version FROM schema_migrations`); err != nil {
		return NewMigrationFailedError("schema_migrations", err)
	}
	for _, v := range versions {
		applied[v] = true
	}

	count := 0
	for _, file := range files {
		version := migrationVersion(file)
		if applied[version] {
			continue
		}

		body, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return NewMigrationFailedError(version, err)
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return NewMigrationFailedError(version, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return NewMigrationFailedError(version, err)
		}
		insert := db.Rebind(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`)
		if _, err := tx.ExecContext(ctx, insert, version, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return NewMigrationFailedError(version, err)
		}
		if err := tx.Commit(); err != nil {
			return NewMigrationFailedError(version, err)
		}

		logx.WithFields(logx.Fields{
			"driver":  driver,
			"version": version,
		}).Info("Migration applied")
		count++
	}

	logx.WithFields(logx.Fields{
		"driver":  driver,
		"applied": count,
		"total":   len(files),
	}).Debug("Migrations up to date")

	return nil
}

func migrationFiles(driver string) ([]string, error) {
	dir := path.Join("migration", driver)
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		files = append(files, path.Join(dir, e.Name()))
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations for driver %s", driver)
	}
	return files, nil
}

// migrationVersion turns "migration/sqlite/01__init.sql" into "01"
func migrationVersion(file string) string {
	name := strings.TrimSuffix(path.Base(file), ".sql")
	version, _, _ := strings.Cut(name, migrateFileNameSplit)
	return version
}
