package diskcache

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/tandem/pkg/log"
	"github.com/cuemby/tandem/pkg/metrics"
	"github.com/cuemby/tandem/pkg/types"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// blobStore is the filesystem side of the engine: a data directory
// holding one file per out-of-line value, and a trash directory holding
// subtrees that move_all_to_trash has evicted wholesale and that are
// awaiting background deletion.
type blobStore struct {
	root      string
	dataDir   string
	trashDir  string
	logErrors bool
	logger    zerolog.Logger

	drainMu sync.Mutex
	draining bool
}

func newBlobStore(root string, logErrors bool) (*blobStore, bool) {
	b := &blobStore{
		root:      root,
		dataDir:   filepath.Join(root, "data"),
		trashDir:  filepath.Join(root, "trash"),
		logErrors: logErrors,
		logger:    log.WithComponent("diskcache.blobstore"),
	}
	if err := os.MkdirAll(b.dataDir, dirPerm); err != nil {
		b.logFailure("init.data", "", err)
		return nil, false
	}
	if err := os.MkdirAll(b.trashDir, dirPerm); err != nil {
		b.logFailure("init.trash", "", err)
		return nil, false
	}
	return b, true
}

func (b *blobStore) logFailure(op, key string, err error) {
	if !b.logErrors || err == nil {
		return
	}
	e := types.NewError(types.IOFailure, op, key, err)
	log.WithKey(b.logger, key).Error().Err(e).Str("op", op).Msg("blob store operation failed")
}

// write is not required to be atomic: a crash between write and
// manifest commit yields an orphan file in the data directory, which is
// harmless and is swept by the next remove_all (trims only delete files
// that the manifest names).
func (b *blobStore) write(name string, data []byte) bool {
	path := filepath.Join(b.dataDir, name)
	if err := os.WriteFile(path, data, filePerm); err != nil {
		b.logFailure("write", name, err)
		return false
	}
	return true
}

func (b *blobStore) read(name string) ([]byte, bool) {
	path := filepath.Join(b.dataDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			b.logFailure("read", name, err)
		}
		return nil, false
	}
	return data, true
}

func (b *blobStore) delete(name string) bool {
	path := filepath.Join(b.dataDir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		b.logFailure("delete", name, err)
		return false
	}
	return true
}

// moveAllToTrash renames the data directory to a fresh uniquely-named
// path under the trash directory, then recreates an empty data
// directory. This is the fast path behind remove_all: near-instantaneous
// regardless of how many entries the data directory holds.
func (b *blobStore) moveAllToTrash() bool {
	dest := filepath.Join(b.trashDir, uuid.New().String())
	if err := os.Rename(b.dataDir, dest); err != nil {
		b.logFailure("move_all_to_trash.rename", "", err)
		return false
	}
	if err := os.MkdirAll(b.dataDir, dirPerm); err != nil {
		b.logFailure("move_all_to_trash.recreate", "", err)
		return false
	}
	return true
}

// emptyTrashAsync enumerates and deletes every entry under the trash
// directory on a background goroutine. It never blocks the caller. At
// most one drain runs at a time: if a drain is already in progress, this
// call starts nothing and invokes onDone at once. The in-flight drain
// lists the directory only once, so entries moved into the trash after
// that listing stay there until a later call drains them.
func (b *blobStore) emptyTrashAsync(onDone func()) {
	b.drainMu.Lock()
	if b.draining {
		b.drainMu.Unlock()
		if onDone != nil {
			onDone()
		}
		return
	}
	b.draining = true
	b.drainMu.Unlock()

	go func() {
		timer := metrics.NewTimer()
		defer func() {
			timer.ObserveDuration(metrics.TrashDrainDuration)
			b.drainMu.Lock()
			b.draining = false
			b.drainMu.Unlock()
			if onDone != nil {
				onDone()
			}
		}()
		entries, err := os.ReadDir(b.trashDir)
		if err != nil {
			b.logFailure("empty_trash_async.readdir", "", err)
			return
		}
		for _, entry := range entries {
			path := filepath.Join(b.trashDir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				b.logFailure("empty_trash_async.removeall", entry.Name(), err)
			}
		}
	}()
}

// trashDepth returns the number of entries currently pending deletion
// under the trash directory. Used for metrics only; a failure reports 0
// rather than -1 because this is a best-effort gauge, not a public
// aggregate query.
func (b *blobStore) trashDepth() int {
	entries, err := os.ReadDir(b.trashDir)
	if err != nil {
		return 0
	}
	return len(entries)
}

// reset is the recovery primitive: remove the database files, move data
// to trash, and schedule the trash drain. The caller must have closed
// the database before calling reset.
func (b *blobStore) reset(dbFiles []string) bool {
	ok := true
	for _, f := range dbFiles {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			b.logFailure("reset.remove_db", f, err)
			ok = false
		}
	}
	if !b.moveAllToTrash() {
		ok = false
	}
	b.emptyTrashAsync(nil)
	return ok
}
