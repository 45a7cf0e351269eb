// Package storetest provides migrated and seeded in-memory databases for tests.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/Abraxas-365/supportdesk/pkg/config"
	"github.com/Abraxas-365/supportdesk/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MemoryConfig returns a config for a fresh private in-memory SQLite database
func MemoryConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver: store.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString()),
	}
}

// NewDB opens a migrated in-memory database closed at test cleanup
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := store.Open(ctx, MemoryConfig())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// NewSeededDB opens a migrated database with the demo data loaded
func NewSeededDB(t testing.TB) *sqlx.DB {
	t.Helper()

	db := NewDB(t)
	if err := store.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed test database: %v", err)
	}
	return db
}
