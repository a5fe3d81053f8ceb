/*
Package metrics provides Prometheus metrics collection and exposition
for the two cache tiers.

The package defines and registers gauges, counters, and histograms
covering disk-tier occupancy and eviction activity and memory-tier
occupancy and eviction activity, using the Prometheus client library.
Values are set directly from engine code on the hot path (counters,
histograms) or periodically snapshotted from pkg/collector (gauges
that mirror a point-in-time Stats() read).

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (item count, bytes)  │          │
	│  │  Counter: Monotonic increases (evictions)   │          │
	│  │  Histogram: Distributions (trim duration)   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Disk: items, bytes, evictions, trash depth │          │
	│  │  Memory: items, cost, evictions, queue depth│          │
	│  └──────────────────────────────────────────────┘          │
	│                                                            │
	└────────────────────────────────────────────────────────────┘

# Core Metrics

Disk tier (set inline by pkg/diskcache, or periodically by
pkg/collector):

  - tandem_disk_items_total (gauge): live manifest rows
  - tandem_disk_bytes_total (gauge): sum of stored value sizes
  - tandem_disk_evictions_total{reason} (counter): entries removed by
    TrimToSize/TrimToCount/TrimOlderThan/TrimLargerThan, labeled by
    which trim triggered the removal
  - tandem_disk_trash_depth (gauge): subtrees waiting to be drained
  - tandem_disk_open_failures_total (counter): manifest reopen attempts
    that failed
  - tandem_disk_trim_duration_seconds{kind} (histogram): wall time of a
    trim pass, labeled by trim kind

Memory tier (items and cost set by pkg/collector, the rest inline by
pkg/memcache):

  - tandem_memory_items_total (gauge): live entries
  - tandem_memory_cost_total (gauge): sum of caller-assigned cost
  - tandem_memory_evictions_total{reason} (counter): entries evicted,
    labeled "set" (trim-on-set), "trim_count", "trim_cost", "trim_age",
    or "remove_all"
  - tandem_memory_trim_cycle_duration_seconds (histogram): wall time of
    an automatic trim pass
  - tandem_memory_release_queue_depth (gauge): pending async value
    disposals

# Usage

Engines record their own counters and histograms directly:

	metrics.DiskEvictionsTotal.WithLabelValues("size").Add(float64(len(evicted)))
	timer := metrics.NewTimer()
	// ... trim work ...
	timer.ObserveDurationVec(metrics.DiskTrimDuration, "size")

A pkg/collector.Collector polling both engines' Stats() methods on a
ticker sets the occupancy gauges (item count, byte total, trash depth,
memory cost). pkg/diskcache also sets the disk item gauge inline after
every Save and Remove, and both disk gauges after every trim;
pkg/memcache does not set its occupancy gauges inline.

# Exposition

Handler returns an http.Handler wrapping promhttp.Handler, for mounting
under /metrics in a process that embeds these engines. cmd/cachectl
does not mount this endpoint itself — it is a one-shot CLI, not a
long-running process — but the handler is exported for embedders that
are.

# See Also

See pkg/collector for the poller that republishes engine Stats() as
these gauges, and pkg/diskcache and pkg/memcache for the call sites
that record counters and histograms inline.
*/
package metrics
