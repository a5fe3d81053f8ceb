package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Disk tier metrics
	DiskItemsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tandem_disk_items_total",
			Help: "Total number of rows currently in the disk manifest",
		},
	)

	DiskBytesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tandem_disk_bytes_total",
			Help: "Total bytes currently accounted for in the disk manifest",
		},
	)

	DiskEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_disk_evictions_total",
			Help: "Total number of disk-tier entries evicted, by trim reason",
		},
		[]string{"reason"},
	)

	DiskTrashDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tandem_disk_trash_depth",
			Help: "Number of subtrees currently pending deletion in the trash directory",
		},
	)

	DiskOpenFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tandem_disk_open_failures_total",
			Help: "Total number of database reopen attempts that failed",
		},
	)

	DiskTrimDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tandem_disk_trim_duration_seconds",
			Help:    "Time taken to run a disk-tier trim operation, by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	TrashDrainDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tandem_trash_drain_duration_seconds",
			Help:    "Time taken for a single trash-drain pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Memory tier metrics
	MemoryItemsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tandem_memory_items_total",
			Help: "Total number of live entries in the memory engine",
		},
	)

	MemoryCostTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tandem_memory_cost_total",
			Help: "Sum of caller-assigned cost across live memory entries",
		},
	)

	MemoryEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tandem_memory_evictions_total",
			Help: "Total number of memory-tier entries evicted, by trim reason",
		},
		[]string{"reason"},
	)

	MemoryTrimDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tandem_memory_trim_cycle_duration_seconds",
			Help:    "Time taken for one periodic memory-tier trim cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	MemoryReleaseQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tandem_memory_release_queue_depth",
			Help: "Number of evicted values currently queued for asynchronous release",
		},
	)
)

func init() {
	prometheus.MustRegister(DiskItemsTotal)
	prometheus.MustRegister(DiskBytesTotal)
	prometheus.MustRegister(DiskEvictionsTotal)
	prometheus.MustRegister(DiskTrashDepth)
	prometheus.MustRegister(DiskOpenFailuresTotal)
	prometheus.MustRegister(DiskTrimDuration)
	prometheus.MustRegister(TrashDrainDuration)

	prometheus.MustRegister(MemoryItemsTotal)
	prometheus.MustRegister(MemoryCostTotal)
	prometheus.MustRegister(MemoryEvictionsTotal)
	prometheus.MustRegister(MemoryTrimDuration)
	prometheus.MustRegister(MemoryReleaseQueueDepth)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
