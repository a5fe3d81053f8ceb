package tandem

import (
	"time"

	"github.com/cuemby/tandem/pkg/collector"
	"github.com/cuemby/tandem/pkg/diskcache"
	"github.com/cuemby/tandem/pkg/memcache"
)

// Options configures a Cache's two tiers together.
type Options struct {
	Disk   diskcache.Options
	Memory memcache.Options

	// MetricsInterval, if positive, starts a pkg/collector poller that
	// republishes both tiers' stats to pkg/metrics on that cadence. Zero
	// disables metrics polling.
	MetricsInterval time.Duration
}

// Cache is a thin composite façade wiring a memcache.Engine in front of
// a diskcache.Engine. It is not part of either tier's hard engineering
// — both are fully usable on their own — it exists to give callers a
// single type for the common "fast tier over a durable tier" shape.
type Cache struct {
	mem  *memcache.Engine
	disk *diskcache.Engine
	coll *collector.Collector
}

// Open constructs both tiers. If the disk tier fails to open, the
// memory tier is not started and Open reports false.
func Open(opts Options) (*Cache, bool) {
	disk, ok := diskcache.Open(opts.Disk)
	if !ok {
		return nil, false
	}
	mem := memcache.New(opts.Memory)

	c := &Cache{mem: mem, disk: disk}
	if opts.MetricsInterval > 0 {
		c.coll = collector.New(disk, mem, opts.MetricsInterval)
		c.coll.Start()
	}
	return c, true
}

// Get checks the memory tier first; on a miss it reads through to the
// disk tier and, on a disk hit, populates the memory tier before
// returning.
func (c *Cache) Get(key string) ([]byte, bool) {
	if v, ok := c.mem.Get(key); ok {
		return v.([]byte), true
	}
	value, ok := c.disk.GetValue(key)
	if !ok {
		return nil, false
	}
	c.mem.Set(key, value, int64(len(value)))
	return value, true
}

// Set writes through to the disk tier and, on success, populates the
// memory tier.
func (c *Cache) Set(key string, value []byte, filename string, extended []byte) bool {
	if !c.disk.Save(key, value, filename, extended) {
		return false
	}
	c.mem.Set(key, value, int64(len(value)))
	return true
}

// Remove deletes key from both tiers.
func (c *Cache) Remove(key string) bool {
	c.mem.Remove(key)
	return c.disk.Remove(key)
}

// Disk returns the underlying disk engine, for callers that need
// operations this façade does not expose (trims, stats).
func (c *Cache) Disk() *diskcache.Engine { return c.disk }

// Memory returns the underlying memory engine.
func (c *Cache) Memory() *memcache.Engine { return c.mem }

// Close shuts down both tiers and any running metrics collector.
func (c *Cache) Close() {
	if c.coll != nil {
		c.coll.Stop()
	}
	c.mem.Close()
	c.disk.Close()
}
