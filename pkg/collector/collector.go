// Package collector polls the cache engines and republishes their
// Stats() snapshots as Prometheus metrics. It is kept separate from
// pkg/metrics so that pkg/metrics stays a leaf package with no
// dependency on the engines whose activity it measures — diskcache and
// memcache both import pkg/metrics to record counters inline, and a
// metrics package that imported them back would be a cycle.
package collector

import (
	"time"

	"github.com/cuemby/tandem/pkg/diskcache"
	"github.com/cuemby/tandem/pkg/memcache"
	"github.com/cuemby/tandem/pkg/metrics"
)

// Collector polls a disk engine and a memory engine on a ticker and
// republishes their Stats() snapshots as Prometheus gauges. Either
// engine may be nil if the caller only runs one tier.
type Collector struct {
	disk     *diskcache.Engine
	memory   *memcache.Engine
	interval time.Duration
	stopCh   chan struct{}
}

// New creates a metrics collector for the given engines, polling every
// interval. A zero interval defaults to 15 seconds.
func New(disk *diskcache.Engine, memory *memcache.Engine, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		disk:     disk,
		memory:   memory,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics on a dedicated goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectDiskMetrics()
	c.collectMemoryMetrics()
}

func (c *Collector) collectDiskMetrics() {
	if c.disk == nil {
		return
	}
	stats := c.disk.Stats()
	metrics.DiskItemsTotal.Set(float64(stats.Items))
	metrics.DiskBytesTotal.Set(float64(stats.Bytes))
	metrics.DiskTrashDepth.Set(float64(stats.TrashDepth))
}

func (c *Collector) collectMemoryMetrics() {
	if c.memory == nil {
		return
	}
	stats := c.memory.Stats()
	metrics.MemoryItemsTotal.Set(float64(stats.Items))
	metrics.MemoryCostTotal.Set(float64(stats.Cost))
}
