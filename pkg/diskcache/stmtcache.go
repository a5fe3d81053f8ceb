package diskcache

import (
	"database/sql"
	"sync"
)

// stmtCache maps SQL text to a prepared statement on a single open
// database handle. It holds no ownership of the handle itself — when
// the handle closes, every statement it prepared becomes invalid and
// the cache must be discarded with the handle, never reused across a
// reopen.
type stmtCache struct {
	mu    sync.Mutex
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

func newStmtCache(db *sql.DB) *stmtCache {
	return &stmtCache{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}
}

// prepare returns a ready-to-bind statement for query. A cache hit
// returns the statement as-is — database/sql statements are safe to
// reuse directly, unlike a single-connection prepared statement that
// must be reset between binds. A miss compiles the statement and
// inserts it into the cache. Compilation failure returns (nil, false);
// the caller decides whether to log it.
func (c *stmtCache) prepare(query string) (*sql.Stmt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stmt, ok := c.stmts[query]; ok {
		return stmt, true
	}

	stmt, err := c.db.Prepare(query)
	if err != nil {
		return nil, false
	}
	c.stmts[query] = stmt
	return stmt, true
}

// finalizeAll disposes every cached statement. Called exactly once,
// immediately before the owning database handle is closed.
func (c *stmtCache) finalizeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for query, stmt := range c.stmts {
		stmt.Close()
		delete(c.stmts, query)
	}
}
