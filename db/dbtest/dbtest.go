// Package dbtest opens throwaway SQLite databases carrying the production schema.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-bracket/db"
)

// New returns an in-memory database with all migrations applied. A single
// connection is kept open because every new connection to ":memory:" would
// see an empty database.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	return open(t, "file::memory:?_foreign_keys=on")
}

// NewFile is like New but backed by a file in t.TempDir(). Use it when a
// test cancels a context mid-transaction: database/sql drops the connection
// afterwards, which would take an in-memory schema with it.
func NewFile(t *testing.T) *sqlx.DB {
	t.Helper()
	return open(t, "file:"+filepath.Join(t.TempDir(), "test.db")+"?_foreign_keys=on")
}

func open(t *testing.T, dsn string) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite3", dsn)
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	driver, err := sqlite3.WithInstance(conn.DB, &sqlite3.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Up(driver, "sqlite3"))

	return conn
}
