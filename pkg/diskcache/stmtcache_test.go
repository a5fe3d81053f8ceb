package diskcache

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func TestStmtCachePrepareHitsCache(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("CREATE TABLE t(k TEXT)")
	require.NoError(t, err)

	c := newStmtCache(db)
	stmt1, ok := c.prepare("SELECT k FROM t WHERE k = ?")
	require.True(t, ok)
	stmt2, ok := c.prepare("SELECT k FROM t WHERE k = ?")
	require.True(t, ok)
	require.Same(t, stmt1, stmt2)
}

func TestStmtCachePrepareFailureOnBadSQL(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	c := newStmtCache(db)
	_, ok := c.prepare("NOT VALID SQL")
	require.False(t, ok)
}

func TestStmtCacheFinalizeAll(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec("CREATE TABLE t(k TEXT)")
	require.NoError(t, err)

	c := newStmtCache(db)
	_, ok := c.prepare("SELECT k FROM t")
	require.True(t, ok)
	c.finalizeAll()
	require.Empty(t, c.stmts)
}
