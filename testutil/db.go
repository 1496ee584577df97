// Package testutil provides an in-memory database with the full schema for
// package tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	mogidb "mogitrack/db"
	"mogitrack/models"
)

// NewDB opens an isolated in-memory database and creates the schema.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes access.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, mogidb.CreateTables(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// NewUser inserts a user and returns its id.
func NewUser(t *testing.T, db *bun.DB, username string) int {
	t.Helper()

	user := &models.User{Username: username, Password: "test-hash"}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user.ID
}
