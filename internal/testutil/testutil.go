package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// A single connection is used so every query sees the same in-memory database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(context.Background(), sqlDB))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

// CreateUser inserts a user row and returns it.
func CreateUser(t *testing.T, sqlDB *sql.DB, externalID string) *models.User {
	t.Helper()
	res, err := sqlDB.Exec(`INSERT INTO users (external_id) VALUES (?)`, externalID)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return &models.User{ID: id, ExternalID: externalID}
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}
