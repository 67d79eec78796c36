package testutil

import (
	"testing"

	"task-tracker/backend/internal/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database closed at test cleanup.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   database.DriverSQLite,
		DSN:      ":memory:",
		LogLevel: logger.Silent,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := database.Migrate(pool.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool.DB
}
