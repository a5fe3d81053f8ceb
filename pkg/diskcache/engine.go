package diskcache

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cuemby/tandem/pkg/log"
	"github.com/cuemby/tandem/pkg/metrics"
	"github.com/cuemby/tandem/pkg/types"
)

// StorageType selects where save routes a value that has no caller
// supplied filename, and which operations an engine instance accepts.
type StorageType int

const (
	// Mixed routes small values inline and large (filename-carrying)
	// values out-of-line, per save's routing rules.
	Mixed StorageType = iota
	// Sqlite refuses any save call that supplies a filename.
	Sqlite
	// File refuses any save call that omits a filename.
	File
)

// maxPathLen bounds the engine root path so that filenames joined under
// it cannot overflow common platform path limits.
const maxPathLen = 4096 - 64

// lruBatchSize is how many eviction candidates trim_to_size/trim_to_count
// fetch per round.
const lruBatchSize = 16

// removeAllBatchSize is the batch size used by the slow, progress
// reporting variant of remove_all.
const removeAllBatchSize = 32

// Options configures a DiskEngine.
type Options struct {
	// Path is the engine's root directory.
	Path string
	// StorageType selects the save/read routing policy. Defaults to
	// Mixed.
	StorageType StorageType
	// LogErrors gates whether failures are logged. Defaults to false
	// (silent failures, per the public bool/ok contract).
	LogErrors bool
}

// Engine is the disk-tier cache: a hybrid store that keeps small values
// inline in the manifest and large values as separate files, with
// LRU-ordered eviction and crash-recoverable bulk delete.
//
// Engine is not safe for concurrent use. All manifest and blob
// operations assume single-threaded access to this instance; for
// sharded concurrency, construct multiple engines on disjoint paths.
type Engine struct {
	path        string
	storageType StorageType
	logErrors   bool
	logger      zerolog.Logger

	manifest *manifest
	blobs    *blobStore
}

func dbPaths(root string) (db, shm, wal string) {
	db = filepath.Join(root, "manifest.sqlite")
	shm = db + "-shm"
	wal = db + "-wal"
	return
}

// Open creates the engine's directories if needed, opens the database,
// initializes the schema, and drains any leftover trash from a previous
// run. On schema initialization failure it runs the one-shot
// reset-and-retry recovery path; a second failure is terminal.
func Open(opts Options) (*Engine, bool) {
	if len(opts.Path) > maxPathLen {
		return nil, false
	}
	if err := os.MkdirAll(opts.Path, dirPerm); err != nil {
		return nil, false
	}

	e := &Engine{
		path:        opts.Path,
		storageType: opts.StorageType,
		logErrors:   opts.LogErrors,
		logger:      log.WithPath(log.WithComponent("diskcache"), opts.Path),
	}

	blobs, ok := newBlobStore(opts.Path, opts.LogErrors)
	if !ok {
		return nil, false
	}
	e.blobs = blobs

	dbPath, _, _ := dbPaths(opts.Path)
	man, ok := openManifest(dbPath, opts.LogErrors)
	if !ok {
		// Corrupt state: reset and retry once.
		db, shm, wal := dbPaths(opts.Path)
		blobs.reset([]string{db, shm, wal})
		man, ok = openManifest(dbPath, opts.LogErrors)
		if !ok {
			return nil, false
		}
	}
	e.manifest = man

	e.blobs.emptyTrashAsync(nil)
	return e, true
}

func (e *Engine) logFailure(op, key string, err error) {
	if !e.logErrors || err == nil {
		return
	}
	err2 := types.NewError(types.IOFailure, op, key, err)
	log.WithKey(e.logger, key).Error().Err(err2).Str("op", op).Msg("disk engine operation failed")
}

// Save stores value under key. If filename is non-empty, value is
// written to that file in the data directory and the manifest row
// records the filename with a null inline blob. If filename is empty,
// routing depends on StorageType: File rejects the call, Mixed and
// Sqlite store the value inline (Mixed first deletes any previously
// out-of-line file under this key, to avoid leaving an orphan).
func (e *Engine) Save(key string, value []byte, filename string, extended []byte) bool {
	if key == "" || len(value) == 0 {
		return false
	}
	if e.storageType == File && filename == "" {
		return false
	}
	if e.storageType == Sqlite && filename != "" {
		return false
	}

	if filename != "" {
		if !e.blobs.write(filename, value) {
			return false
		}
		if !e.manifest.save(key, filename, value, extended) {
			e.blobs.delete(filename)
			return false
		}
		metrics.DiskItemsTotal.Set(float64(e.manifest.count()))
		return true
	}

	if e.storageType != Sqlite {
		if old, ok := e.manifest.getFilename(key); ok && old != "" {
			e.blobs.delete(old)
		}
	}
	if !e.manifest.save(key, "", value, extended) {
		return false
	}
	metrics.DiskItemsTotal.Set(float64(e.manifest.count()))
	return true
}

// GetValue returns the bytes stored under key, updating its access time
// on success. If the manifest references a file that has gone missing,
// the row is deleted and a miss is reported (self-healing).
func (e *Engine) GetValue(key string) ([]byte, bool) {
	row, ok := e.manifest.get(key, false)
	if !ok {
		return nil, false
	}

	var value []byte
	if row.Filename != "" {
		data, ok := e.blobs.read(row.Filename)
		if !ok {
			e.manifest.delete(key)
			return nil, false
		}
		value = data
	} else {
		value = row.InlineData
	}

	e.manifest.updateAccessTime(key)
	return value, true
}

// Item is the value plus its extended data, as returned by GetItem.
type Item struct {
	Value    []byte
	Extended []byte
}

// GetItem is GetValue plus the row's extended_data, in one round trip.
func (e *Engine) GetItem(key string) (*Item, bool) {
	row, ok := e.manifest.get(key, false)
	if !ok {
		return nil, false
	}

	var value []byte
	if row.Filename != "" {
		data, ok := e.blobs.read(row.Filename)
		if !ok {
			e.manifest.delete(key)
			return nil, false
		}
		value = data
	} else {
		value = row.InlineData
	}

	e.manifest.updateAccessTime(key)
	return &Item{Value: value, Extended: row.Extended}, true
}

// Exists reports whether key has a manifest row, without touching its
// access time or reading its value.
func (e *Engine) Exists(key string) bool {
	_, ok := e.manifest.get(key, true)
	return ok
}

// Remove deletes key's manifest row and, if it referenced one, its
// out-of-line file.
func (e *Engine) Remove(key string) bool {
	filename, _ := e.manifest.getFilename(key)
	if !e.manifest.delete(key) {
		return false
	}
	if filename != "" {
		e.blobs.delete(filename)
	}
	metrics.DiskItemsTotal.Set(float64(e.manifest.count()))
	return true
}

// Count returns the number of stored entries, or -1 on failure.
func (e *Engine) Count() int64 {
	return e.manifest.count()
}

// SizeSum returns the total byte size of stored entries, or -1 on
// failure.
func (e *Engine) SizeSum() int64 {
	return e.manifest.sizeSum()
}

// evictBatch deletes the files and rows for a batch of LRU candidates,
// returning the total size removed and whether every row was removed
// successfully.
func (e *Engine) evictBatch(batch []lruCandidate) (int64, bool) {
	keys := make([]string, 0, len(batch))
	var removed int64
	for _, c := range batch {
		if c.Filename != "" {
			e.blobs.delete(c.Filename)
		}
		keys = append(keys, c.Key)
		removed += c.Size
	}
	if !e.manifest.deleteMany(keys) {
		return 0, false
	}
	return removed, true
}

// TrimToSize evicts least-recently-used entries until the total stored
// size is at or below max. Succeeds immediately, without a checkpoint,
// if already within budget.
func (e *Engine) TrimToSize(max int64) bool {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DiskTrimDuration, "size")

	total := e.manifest.sizeSum()
	if total < 0 {
		return false
	}
	if total <= max {
		return true
	}

	evictedAny := false
	for total > max {
		batch, ok := e.manifest.getLRUInfo(lruBatchSize)
		if !ok {
			return false
		}
		if len(batch) == 0 {
			break
		}
		// Evict only as many candidates as it takes to get within budget.
		need, over := 0, total
		for need < len(batch) && over > max {
			over -= batch[need].Size
			need++
		}
		batch = batch[:need]
		removed, ok := e.evictBatch(batch)
		if !ok {
			return false
		}
		total -= removed
		evictedAny = true
		metrics.DiskEvictionsTotal.WithLabelValues("size").Add(float64(len(batch)))
	}
	if evictedAny {
		e.manifest.checkpoint()
	}
	metrics.DiskItemsTotal.Set(float64(e.manifest.count()))
	metrics.DiskBytesTotal.Set(float64(e.manifest.sizeSum()))
	return true
}

// TrimToCount evicts least-recently-used entries until the row count is
// at or below max.
func (e *Engine) TrimToCount(max int64) bool {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DiskTrimDuration, "count")

	total := e.manifest.count()
	if total < 0 {
		return false
	}
	if total <= max {
		return true
	}

	evictedAny := false
	for total > max {
		batch, ok := e.manifest.getLRUInfo(lruBatchSize)
		if !ok {
			return false
		}
		if len(batch) == 0 {
			break
		}
		if _, ok := e.evictBatch(batch); !ok {
			return false
		}
		total -= int64(len(batch))
		evictedAny = true
		metrics.DiskEvictionsTotal.WithLabelValues("count").Add(float64(len(batch)))
	}
	if evictedAny {
		e.manifest.checkpoint()
	}
	metrics.DiskItemsTotal.Set(float64(e.manifest.count()))
	metrics.DiskBytesTotal.Set(float64(e.manifest.sizeSum()))
	return true
}

// TrimOlderThan evicts every entry whose last access time precedes t
// (a unix-second timestamp).
func (e *Engine) TrimOlderThan(t int64) bool {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DiskTrimDuration, "age")

	before := e.manifest.count()
	names, ok := e.manifest.getFilenamesWhereAccessLt(t)
	if !ok {
		return false
	}
	for _, name := range names {
		e.blobs.delete(name)
	}
	if !e.manifest.deleteWhereAccessLt(t) {
		return false
	}
	e.manifest.checkpoint()
	after := e.manifest.count()
	if before >= 0 && after >= 0 {
		metrics.DiskEvictionsTotal.WithLabelValues("age").Add(float64(before - after))
	}
	metrics.DiskItemsTotal.Set(float64(after))
	metrics.DiskBytesTotal.Set(float64(e.manifest.sizeSum()))
	return true
}

// TrimLargerThan evicts every entry whose size exceeds n bytes.
func (e *Engine) TrimLargerThan(n int64) bool {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DiskTrimDuration, "size_gt")

	before := e.manifest.count()
	names, ok := e.manifest.getFilenamesWhereSizeGt(n)
	if !ok {
		return false
	}
	for _, name := range names {
		e.blobs.delete(name)
	}
	if !e.manifest.deleteWhereSizeGt(n) {
		return false
	}
	e.manifest.checkpoint()
	after := e.manifest.count()
	if before >= 0 && after >= 0 {
		metrics.DiskEvictionsTotal.WithLabelValues("size_gt").Add(float64(before - after))
	}
	metrics.DiskItemsTotal.Set(float64(after))
	metrics.DiskBytesTotal.Set(float64(e.manifest.sizeSum()))
	return true
}

// RemoveAll empties the cache via the fast path: close the database,
// reset (move data to trash, delete the db files), reopen, reinitialize.
// This is preferred over row-by-row delete because it is near-
// instantaneous regardless of entry count.
func (e *Engine) RemoveAll() bool {
	e.manifest.close()
	db, shm, wal := dbPaths(e.path)
	if !e.blobs.reset([]string{db, shm, wal}) {
		return false
	}
	man, ok := openManifest(db, e.logErrors)
	if !ok {
		return false
	}
	e.manifest = man
	metrics.DiskItemsTotal.Set(0)
	metrics.DiskBytesTotal.Set(0)
	return true
}

// RemoveAllWithProgress is the slow variant of RemoveAll: it iterates
// LRU batches of removeAllBatchSize, deleting each file and row, and
// invokes progress after each batch with the number of entries removed
// so far. Use this only when a caller genuinely needs incremental
// feedback; RemoveAll is preferred otherwise.
func (e *Engine) RemoveAllWithProgress(progress func(removed int64)) bool {
	var removed int64
	for {
		batch, ok := e.manifest.getLRUInfo(removeAllBatchSize)
		if !ok {
			return false
		}
		if len(batch) == 0 {
			break
		}
		if _, ok := e.evictBatch(batch); !ok {
			return false
		}
		removed += int64(len(batch))
		if progress != nil {
			progress(removed)
		}
	}
	e.manifest.checkpoint()
	metrics.DiskItemsTotal.Set(0)
	metrics.DiskBytesTotal.Set(0)
	return true
}

// TrashDepth returns the number of subtrees currently pending deletion
// in the trash directory.
func (e *Engine) TrashDepth() int {
	return e.blobs.trashDepth()
}

// Stats is a point-in-time snapshot for metrics collection.
type Stats struct {
	Items      int64
	Bytes      int64
	TrashDepth int
}

// Stats returns a snapshot of this engine's current size. Count/size
// failures are reported as 0 here since this path feeds a gauge, not a
// caller-facing aggregate query.
func (e *Engine) Stats() Stats {
	count := e.manifest.count()
	if count < 0 {
		count = 0
	}
	size := e.manifest.sizeSum()
	if size < 0 {
		size = 0
	}
	return Stats{Items: count, Bytes: size, TrashDepth: e.blobs.trashDepth()}
}

// Close shuts the engine down, finalizing cached statements and closing
// the database handle. Close retries internally on "busy"/"locked" per
// the manifest's close semantics; on any other close error it returns
// without retrying.
func (e *Engine) Close() {
	e.manifest.close()
}
