/*
Package memcache provides a thread-safe in-process LRU cache tier.

Values are arbitrary, caller-typed objects held in memory, capacity
-managed by item count, total caller-assigned cost, and maximum item
age, with least-recently-used eviction. This tier is typically placed
in front of pkg/diskcache to absorb repeat reads, but has no dependency
on it.

# Architecture

	┌──────────────────── MEMORY ENGINE ─────────────────────────┐
	│                                                               │
	│  ┌─────────────────────────────────────────────┐            │
	│  │                  Engine                       │            │
	│  │  - sync.Mutex guards linkedMap + aggregates   │            │
	│  │  - Contains/Get/Set/Remove/RemoveAll          │            │
	│  │  - TrimToCount/Cost/Age                        │            │
	│  └─────────────────┬──────────────┬──────────────┘            │
	│                    │              │                            │
	│   ┌────────────────▼───┐   ┌──────▼───────────────┐           │
	│   │     linkedMap        │   │    releasePolicy      │           │
	│   │  container/list +    │   │  sync / async /       │           │
	│   │  map[key]*Element    │   │  main-thread disposal │           │
	│   └──────────────────────┘   └────────────────────────┘         │
	│                    │                                            │
	│   ┌────────────────▼──────────────────────────────┐            │
	│   │         background goroutines (errgroup)        │            │
	│   │  - trimLoop: ticker-driven periodic trim        │            │
	│   │  - release worker: drains async disposal queue  │            │
	│   └──────────────────────────────────────────────────┘          │
	└───────────────────────────────────────────────────────────────┘

# Usage

	eng := memcache.New(memcache.DefaultOptions())
	defer eng.Close()

	eng.Set("user:42", userRecord, 1)
	if v, ok := eng.Get("user:42"); ok {
		record := v.(*User)
		_ = record
	}

Capping by count:

	opts := memcache.DefaultOptions()
	opts.CountLimit = 1000
	eng := memcache.New(opts)

# Concurrency

All public operations acquire a single mutex guarding the linked map
and its aggregates. The mutex is held only for structural mutation —
value disposal for evicted entries happens outside the lock, through
releasePolicy, so a slow destructor on one goroutine's evicted value
cannot stall another goroutine's Get or Set.

# Lifecycle Hooks

OnMemoryPressure and OnEnterBackground are not generated internally;
a host integration invokes them in response to platform signals this
package has no way to observe on its own. Each clears the cache only if
its corresponding Options flag is set.

# See Also

  - pkg/diskcache for the on-disk tier this cache typically backs
  - pkg/tandem for a composite façade wiring both tiers together
*/
package memcache
