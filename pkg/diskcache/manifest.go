package diskcache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/cuemby/tandem/pkg/log"
	"github.com/cuemby/tandem/pkg/metrics"
	"github.com/cuemby/tandem/pkg/types"
)

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS manifest(
  key TEXT PRIMARY KEY,
  filename TEXT,
  size INTEGER,
  inline_data BLOB,
  modification_time INTEGER,
  last_access_time INTEGER,
  extended_data BLOB
);
CREATE INDEX IF NOT EXISTS last_access_time_idx ON manifest(last_access_time);`

	maxOpenFailures  = 8
	minReopenBackoff = 2 * time.Second
)

// manifestRow is one row of the manifest table, as defined by the schema
// in this codebase's on-disk layout.
type manifestRow struct {
	Key        string
	Filename   string
	Size       int64
	InlineData []byte
	ModTime    int64
	AccessTime int64
	Extended   []byte
}

// lruCandidate is a single eviction candidate returned by getLRUInfo,
// ordered ascending by last_access_time.
type lruCandidate struct {
	Key      string
	Filename string
	Size     int64
}

// manifest is the relational schema and every query/update primitive
// against it. It is not safe for concurrent use — the owning DiskEngine
// is documented as single-threaded, and the manifest inherits that.
type manifest struct {
	dbPath string
	db     *sql.DB
	stmts  *stmtCache

	openFailures  int
	lastFailureAt time.Time

	logErrors bool
	logger    zerolog.Logger
}

// openManifest opens (creating if absent) the sqlite database at dbPath
// and runs initialize. On failure the caller is expected to drive the
// reset-and-retry recovery path described on DiskEngine.
func openManifest(dbPath string, logErrors bool) (*manifest, bool) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, false
	}
	m := &manifest{
		dbPath:    dbPath,
		db:        db,
		stmts:     newStmtCache(db),
		logErrors: logErrors,
		logger:    log.WithComponent("diskcache.manifest"),
	}
	if !m.initialize() {
		db.Close()
		return nil, false
	}
	return m, true
}

// initialize creates the manifest table and index, and enables
// write-ahead logging with normal synchronous durability. Idempotent.
func (m *manifest) initialize() bool {
	if _, err := m.db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		m.logFailure("initialize.journal_mode", "", err)
		return false
	}
	if _, err := m.db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		m.logFailure("initialize.synchronous", "", err)
		return false
	}
	if _, err := m.db.Exec(schemaSQL); err != nil {
		m.logFailure("initialize.schema", "", err)
		return false
	}
	return true
}

// ensureOpen pings the database handle and, if the ping fails (for
// example because the handle was closed), reopens it, subject to the
// backoff described on DiskEngine: fewer than maxOpenFailures
// accumulated failures AND at least minReopenBackoff since the last one.
// Every manifest operation calls it before touching the handle.
func (m *manifest) ensureOpen() bool {
	if m.db != nil {
		if err := m.db.Ping(); err == nil {
			return true
		}
	}
	if m.openFailures >= maxOpenFailures {
		return false
	}
	if !m.lastFailureAt.IsZero() && time.Since(m.lastFailureAt) < minReopenBackoff {
		return false
	}

	db, err := sql.Open("sqlite3", m.dbPath)
	if err != nil {
		m.openFailures++
		m.lastFailureAt = time.Now()
		m.logFailure("ensureOpen", "", err)
		metrics.DiskOpenFailuresTotal.Inc()
		return false
	}
	m.db = db
	m.stmts = newStmtCache(db)
	if !m.initialize() {
		m.openFailures++
		m.lastFailureAt = time.Now()
		metrics.DiskOpenFailuresTotal.Inc()
		return false
	}
	m.openFailures = 0
	return true
}

// close finalizes every cached statement, then closes the database
// handle, retrying the close if sqlite reports the file busy or locked.
func (m *manifest) close() {
	if m.stmts != nil {
		m.stmts.finalizeAll()
	}
	if m.db == nil {
		return
	}
	for {
		err := m.db.Close()
		if err == nil {
			return
		}
		msg := err.Error()
		if strings.Contains(msg, "busy") || strings.Contains(msg, "locked") {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		return
	}
}

func (m *manifest) logFailure(op, key string, err error) {
	if !m.logErrors || err == nil {
		return
	}
	e := types.NewError(types.IOFailure, op, key, err)
	log.WithKey(m.logger, key).Error().Err(e).Str("op", op).Msg("manifest operation failed")
}

func now() int64 {
	return time.Now().Unix()
}

// save inserts or replaces one row. When filename is non-empty the
// value lives in the BlobStore and inline_data is written as null;
// otherwise value is written into inline_data. size is len(value)
// regardless of placement.
func (m *manifest) save(key, filename string, value, extended []byte) bool {
	if !m.ensureOpen() {
		return false
	}
	stmt, ok := m.stmts.prepare(`INSERT INTO manifest
		(key, filename, size, inline_data, modification_time, last_access_time, extended_data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			filename=excluded.filename, size=excluded.size, inline_data=excluded.inline_data,
			modification_time=excluded.modification_time, last_access_time=excluded.last_access_time,
			extended_data=excluded.extended_data`)
	if !ok {
		return false
	}

	var inline []byte
	var fname interface{}
	if filename != "" {
		inline = nil
		fname = filename
	} else {
		inline = value
		fname = nil
	}

	ts := now()
	if _, err := stmt.Exec(key, fname, len(value), inline, ts, ts, extended); err != nil {
		m.logFailure("save", key, err)
		return false
	}
	return true
}

func (m *manifest) updateAccessTime(key string) bool {
	return m.updateAccessTimeMany([]string{key})
}

func (m *manifest) updateAccessTimeMany(keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	if !m.ensureOpen() {
		return false
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := fmt.Sprintf("UPDATE manifest SET last_access_time = ? WHERE key IN (%s)", placeholders)
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, now())
	for _, k := range keys {
		args = append(args, k)
	}
	if _, err := m.db.Exec(query, args...); err != nil {
		m.logFailure("update_access_time", "", err)
		return false
	}
	return true
}

func (m *manifest) delete(key string) bool {
	return m.deleteMany([]string{key})
}

func (m *manifest) deleteMany(keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	if !m.ensureOpen() {
		return false
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := fmt.Sprintf("DELETE FROM manifest WHERE key IN (%s)", placeholders)
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if _, err := m.db.Exec(query, args...); err != nil {
		m.logFailure("delete", "", err)
		return false
	}
	return true
}

func (m *manifest) deleteWhereSizeGt(n int64) bool {
	if !m.ensureOpen() {
		return false
	}
	if _, err := m.db.Exec("DELETE FROM manifest WHERE size > ?", n); err != nil {
		m.logFailure("delete_where_size_gt", "", err)
		return false
	}
	return true
}

func (m *manifest) deleteWhereAccessLt(t int64) bool {
	if !m.ensureOpen() {
		return false
	}
	if _, err := m.db.Exec("DELETE FROM manifest WHERE last_access_time < ?", t); err != nil {
		m.logFailure("delete_where_access_lt", "", err)
		return false
	}
	return true
}

func (m *manifest) get(key string, excludeInline bool) (*manifestRow, bool) {
	rows, ok := m.getMany([]string{key}, excludeInline)
	if !ok || len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

func (m *manifest) getMany(keys []string, excludeInline bool) ([]*manifestRow, bool) {
	if len(keys) == 0 {
		return nil, true
	}
	if !m.ensureOpen() {
		return nil, false
	}

	cols := "key, filename, size, inline_data, modification_time, last_access_time, extended_data"
	if excludeInline {
		cols = "key, filename, size, modification_time, last_access_time, extended_data"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := fmt.Sprintf("SELECT %s FROM manifest WHERE key IN (%s)", cols, placeholders)
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		m.logFailure("get_many", "", err)
		return nil, false
	}
	defer rows.Close()

	var out []*manifestRow
	for rows.Next() {
		var r manifestRow
		var filename sql.NullString
		if excludeInline {
			if err := rows.Scan(&r.Key, &filename, &r.Size, &r.ModTime, &r.AccessTime, &r.Extended); err != nil {
				m.logFailure("get_many.scan", "", err)
				return nil, false
			}
		} else {
			if err := rows.Scan(&r.Key, &filename, &r.Size, &r.InlineData, &r.ModTime, &r.AccessTime, &r.Extended); err != nil {
				m.logFailure("get_many.scan", "", err)
				return nil, false
			}
		}
		r.Filename = filename.String
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		m.logFailure("get_many.rows", "", err)
		return nil, false
	}
	return out, true
}

func (m *manifest) getValue(key string) ([]byte, bool) {
	if !m.ensureOpen() {
		return nil, false
	}
	stmt, ok := m.stmts.prepare("SELECT inline_data FROM manifest WHERE key = ?")
	if !ok {
		return nil, false
	}
	var data []byte
	err := stmt.QueryRow(key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		m.logFailure("get_value", key, err)
		return nil, false
	}
	return data, true
}

func (m *manifest) getFilename(key string) (string, bool) {
	names, ok := m.getFilenames([]string{key})
	if !ok || len(names) == 0 {
		return "", false
	}
	return names[0], true
}

func (m *manifest) getFilenames(keys []string) ([]string, bool) {
	if len(keys) == 0 {
		return nil, true
	}
	if !m.ensureOpen() {
		return nil, false
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := fmt.Sprintf("SELECT filename FROM manifest WHERE key IN (%s) AND filename IS NOT NULL AND filename != ''", placeholders)
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	return m.queryFilenames(query, args, "get_filenames")
}

func (m *manifest) getFilenamesWhereSizeGt(n int64) ([]string, bool) {
	if !m.ensureOpen() {
		return nil, false
	}
	query := "SELECT filename FROM manifest WHERE size > ? AND filename IS NOT NULL AND filename != ''"
	return m.queryFilenames(query, []interface{}{n}, "get_filenames_where_size_gt")
}

func (m *manifest) getFilenamesWhereAccessLt(t int64) ([]string, bool) {
	if !m.ensureOpen() {
		return nil, false
	}
	query := "SELECT filename FROM manifest WHERE last_access_time < ? AND filename IS NOT NULL AND filename != ''"
	return m.queryFilenames(query, []interface{}{t}, "get_filenames_where_access_lt")
}

func (m *manifest) queryFilenames(query string, args []interface{}, op string) ([]string, bool) {
	rows, err := m.db.Query(query, args...)
	if err != nil {
		m.logFailure(op, "", err)
		return nil, false
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			m.logFailure(op+".scan", "", err)
			return nil, false
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		m.logFailure(op+".rows", "", err)
		return nil, false
	}
	return out, true
}

// getLRUInfo returns up to limit (key, filename, size) triples sorted
// by last_access_time ascending — the eviction candidates.
func (m *manifest) getLRUInfo(limit int) ([]lruCandidate, bool) {
	if !m.ensureOpen() {
		return nil, false
	}
	stmt, ok := m.stmts.prepare("SELECT key, filename, size FROM manifest ORDER BY last_access_time ASC LIMIT ?")
	if !ok {
		return nil, false
	}
	rows, err := stmt.Query(limit)
	if err != nil {
		m.logFailure("get_lru_info", "", err)
		return nil, false
	}
	defer rows.Close()

	var out []lruCandidate
	for rows.Next() {
		var c lruCandidate
		var filename sql.NullString
		if err := rows.Scan(&c.Key, &filename, &c.Size); err != nil {
			m.logFailure("get_lru_info.scan", "", err)
			return nil, false
		}
		c.Filename = filename.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		m.logFailure("get_lru_info.rows", "", err)
		return nil, false
	}
	return out, true
}

// count returns the number of manifest rows, or -1 on failure.
func (m *manifest) count() int64 {
	if !m.ensureOpen() {
		return -1
	}
	stmt, ok := m.stmts.prepare("SELECT COUNT(*) FROM manifest")
	if !ok {
		return -1
	}
	var n int64
	if err := stmt.QueryRow().Scan(&n); err != nil {
		m.logFailure("count", "", err)
		return -1
	}
	return n
}

// sizeSum returns the sum of the size column, or -1 on failure.
func (m *manifest) sizeSum() int64 {
	if !m.ensureOpen() {
		return -1
	}
	stmt, ok := m.stmts.prepare("SELECT COALESCE(SUM(size), 0) FROM manifest")
	if !ok {
		return -1
	}
	var n int64
	if err := stmt.QueryRow().Scan(&n); err != nil {
		m.logFailure("size_sum", "", err)
		return -1
	}
	return n
}

// checkpoint requests a write-ahead-log merge.
func (m *manifest) checkpoint() bool {
	if !m.ensureOpen() {
		return false
	}
	if _, err := m.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		m.logFailure("checkpoint", "", err)
		return false
	}
	return true
}
