package tandem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/tandem/pkg/diskcache"
	"github.com/cuemby/tandem/pkg/memcache"
)

func TestCacheReadThroughPopulatesMemory(t *testing.T) {
	c, ok := Open(Options{
		Disk:   diskcache.Options{Path: t.TempDir(), StorageType: diskcache.Mixed, LogErrors: true},
		Memory: memcache.DefaultOptions(),
	})
	require.True(t, ok)
	defer c.Close()

	require.True(t, c.Set("k", []byte("v"), "", nil))

	// Drop it from memory only, to force a disk read-through.
	c.Memory().Remove("k")

	value, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)

	_, ok = c.Memory().Get("k")
	require.True(t, ok)
}

func TestCacheRemoveClearsBothTiers(t *testing.T) {
	c, ok := Open(Options{
		Disk:   diskcache.Options{Path: t.TempDir(), StorageType: diskcache.Mixed, LogErrors: true},
		Memory: memcache.DefaultOptions(),
	})
	require.True(t, ok)
	defer c.Close()

	require.True(t, c.Set("k", []byte("v"), "", nil))
	require.True(t, c.Remove("k"))

	_, ok = c.Get("k")
	require.False(t, ok)
}

func TestCacheStartsAndStopsMetricsCollector(t *testing.T) {
	c, ok := Open(Options{
		Disk:            diskcache.Options{Path: t.TempDir(), StorageType: diskcache.Mixed, LogErrors: true},
		Memory:          memcache.DefaultOptions(),
		MetricsInterval: 10 * time.Millisecond,
	})
	require.True(t, ok)
	require.NotNil(t, c.coll)

	require.True(t, c.Set("k", []byte("v"), "", nil))
	time.Sleep(30 * time.Millisecond)

	// Close must stop the collector goroutine cleanly alongside both
	// tiers; a panic inside Close would fail the test.
	c.Close()
}
