// Package storagetest provides an isolated in-memory database for tests.
package storagetest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/aman-churiwal/media-quota/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter atomic.Int64

// Returns a migrated, empty database private to the calling test
func New(t testing.TB) *storage.Database {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), storage.GormConfig("silent"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	database := &storage.Database{DB: db}
	if err := database.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { database.Close() })
	return database
}
