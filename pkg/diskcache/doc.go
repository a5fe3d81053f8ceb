/*
Package diskcache provides a hybrid SQLite-manifest and filesystem-blob
on-disk cache tier.

Small values live inline in an embedded relational manifest; large
values live as separate files in a data directory, with the manifest
holding the filename reference. A single table is the authoritative
record of membership, size, and access time for every stored entry.

# Architecture

	┌──────────────────── DISK ENGINE ──────────────────────────┐
	│                                                              │
	│  ┌────────────────────────────────────────────┐            │
	│  │                 Engine                       │            │
	│  │  - StorageType: Mixed / File / Sqlite        │            │
	│  │  - Routes save()/get() between tiers         │            │
	│  │  - Runs trim_to_size/count/age/larger_than   │            │
	│  └──────────────┬───────────────────┬──────────┘            │
	│                 │                   │                        │
	│  ┌──────────────▼──────────┐ ┌──────▼──────────────┐        │
	│  │        manifest         │ │       blobStore       │        │
	│  │  manifest.sqlite (WAL)  │ │  data/  trash/        │        │
	│  │  key, filename, size,   │ │  write/read/delete    │        │
	│  │  inline_data, times,    │ │  move_all_to_trash    │        │
	│  │  extended_data          │ │  empty_trash_async    │        │
	│  └──────────────┬──────────┘ └───────────────────────┘        │
	│                 │                                             │
	│  ┌──────────────▼──────────┐                                 │
	│  │       stmtCache          │                                 │
	│  │  SQL text -> *sql.Stmt   │                                 │
	│  └──────────────────────────┘                                 │
	└──────────────────────────────────────────────────────────────┘

# Core Components

Engine:
  - Orchestrates manifest and blobStore for every public operation
  - Single database file + data/trash directories per instance
  - Not safe for concurrent use; shard across instances for concurrency

manifest:
  - SQLite table `manifest`, indexed on last_access_time
  - All query/update primitives: save, delete, LRU-ordered select,
    aggregate count/size, filename lookup
  - Reopen/recovery: bounded retry with backoff, see Recovery below

blobStore:
  - data/ holds one file per out-of-line value
  - trash/ holds subtrees awaiting background deletion
  - move_all_to_trash renames data/ wholesale for a near-instant
    remove_all, then a single serial worker drains the trash directory

stmtCache:
  - Maps SQL text to a prepared *sql.Stmt on the current handle
  - Invalidated wholesale by a reopen; never reused across one

# Usage

Opening an engine and storing a value:

	eng, ok := diskcache.Open(diskcache.Options{
		Path:        "/var/cache/tandem",
		StorageType: diskcache.Mixed,
		LogErrors:   true,
	})
	if !ok {
		// handle failure
	}
	defer eng.Close()

	eng.Save("user:42", payload, "", nil)
	value, ok := eng.GetValue("user:42")

Storing a large value out-of-line:

	eng.Save("blob:large", bytes, "blob-large.bin", nil)

Trimming to a byte budget:

	eng.TrimToSize(50 * 1024 * 1024)

# Recovery

If opening the manifest or initializing its schema fails, Open treats
this as corrupt state: it resets (deletes the database files, moves the
data directory to trash, schedules the drain) and retries exactly once.
A second failure is terminal — Open returns false.

During runtime, any manifest operation that finds its handle unusable
may reopen it, but only if fewer than 8 reopen failures have
accumulated and at least 2 seconds have passed since the last one;
otherwise the operation fails immediately without attempting a reopen,
to avoid hammering a database that is not coming back.

# Self-Healing Reads

If a manifest row references a file that no longer exists on disk, the
next read for that key deletes the row and reports a miss rather than
surfacing an I/O error. This keeps the manifest converging toward
"matches what's actually on disk" without an explicit repair pass.

# Error Handling

Every public operation reports failure as a boolean or an empty/`-1`
result — never a Go error. When Options.LogErrors is true, failures are
additionally logged through pkg/log with the operation name and key;
when false, failures are silent. This mirrors the calling convention
used throughout this codebase's storage layer, adapted here to the
bool/ok idiom the cache engine's contract requires instead of a typed
error return.

# See Also

  - pkg/memcache for the in-memory tier this engine typically backs
  - pkg/tandem for a composite façade wiring both tiers together
*/
package diskcache
