package memcache

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, mutate func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	e := New(opts)
	t.Cleanup(e.Close)
	return e
}

func TestSetAndGetRoundTrip(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Set("k", "v", 1)
	v, ok := e.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestGetMissReturnsFalse(t *testing.T) {
	e := newTestEngine(t, nil)
	_, ok := e.Get("nope")
	require.False(t, ok)
}

func TestRemoveDeletesEntry(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Set("k", "v", 1)
	require.True(t, e.Remove("k"))
	require.False(t, e.Contains("k"))
	require.False(t, e.Remove("k"))
}

// Property P2: after each operation, aggregates match live entries.
func TestAggregatesTrackLiveEntries(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.AutoTrimInterval = time.Hour })
	e.Set("a", "v", 3)
	e.Set("b", "v", 4)
	stats := e.Stats()
	require.EqualValues(t, 2, stats.Items)
	require.EqualValues(t, 7, stats.Cost)

	e.Remove("a")
	stats = e.Stats()
	require.EqualValues(t, 1, stats.Items)
	require.EqualValues(t, 4, stats.Cost)
}

// Boundary scenario 5: trim-on-set with a count limit of 3.
func TestTrimOnSetEvictsLRU(t *testing.T) {
	e := newTestEngine(t, func(o *Options) {
		o.CountLimit = 3
		o.AutoTrimInterval = time.Hour
	})

	e.Set("a", 1, 1)
	e.Set("b", 2, 1)
	e.Set("c", 3, 1)
	e.Set("d", 4, 1)

	require.False(t, e.Contains("a"))

	_, ok := e.Get("b")
	require.True(t, ok)

	e.Set("e", 5, 1)
	require.False(t, e.Contains("c"))
	require.True(t, e.Contains("b"))
}

// Property P3/P4: TrimToCount/Cost/Age enforce their budgets, LRU order
// decides who survives.
func TestTrimToCountEnforcesBudget(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.AutoTrimInterval = time.Hour })
	for i := 0; i < 10; i++ {
		e.Set(fmt.Sprintf("k%d", i), i, 1)
	}
	e.TrimToCount(4)
	require.LessOrEqual(t, e.Stats().Items, int64(4))
}

func TestTrimToAgeEvictsStaleEntries(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.AutoTrimInterval = time.Hour })
	e.Set("old", 1, 1)
	time.Sleep(20 * time.Millisecond)
	e.Set("new", 2, 1)

	e.TrimToAge(10 * time.Millisecond)
	require.False(t, e.Contains("old"))
	require.True(t, e.Contains("new"))
}

func TestOnMemoryPressureClearsWhenEnabled(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Set("a", 1, 1)
	e.OnMemoryPressure()
	require.EqualValues(t, 0, e.Stats().Items)
}

func TestOnMemoryPressureNoopWhenDisabled(t *testing.T) {
	e := newTestEngine(t, func(o *Options) { o.ShouldRemoveAllOnMemoryWarning = false })
	e.Set("a", 1, 1)
	e.OnMemoryPressure()
	require.EqualValues(t, 1, e.Stats().Items)
}

// Boundary scenario 6: concurrent access from many workers.
func TestConcurrentAccessHoldsInvariants(t *testing.T) {
	e := newTestEngine(t, func(o *Options) {
		o.CountLimit = 500
		o.AutoTrimInterval = time.Hour
	})

	const workers = 8
	const opsPerWorker = 10000
	keys := make([]string, 200)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < opsPerWorker; i++ {
				key := keys[r.Intn(len(keys))]
				switch r.Intn(3) {
				case 0:
					e.Set(key, i, 1)
				case 1:
					e.Get(key)
				case 2:
					e.Remove(key)
				}
			}
		}(int64(w))
	}
	wg.Wait()

	stats := e.Stats()
	require.LessOrEqual(t, stats.Items, int64(500))
	require.GreaterOrEqual(t, stats.Items, int64(0))
}
