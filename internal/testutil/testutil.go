// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reelink/reelink/internal/database"
	"github.com/reelink/reelink/internal/store"
)

// TestDB wraps a migrated temp-directory database.
type TestDB struct {
	DB     *database.DB
	Conn   *sql.DB
	Store  *store.Store
	Logger zerolog.Logger
}

// NewTestDB creates a migrated database in a temp directory, wrapped in a
// ready-to-use store. Cleanup is registered on t.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbPath := t.TempDir() + "/test.db"
	logger := NewTestLogger(t)

	db, err := database.New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{
		DB:     db,
		Conn:   db.Conn(),
		Store:  store.New(db.Conn(), logger),
		Logger: logger,
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}

// NopLogger returns a no-op logger for tests that don't need output.
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}
