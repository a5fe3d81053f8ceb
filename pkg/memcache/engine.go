package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cuemby/tandem/pkg/log"
	"github.com/cuemby/tandem/pkg/metrics"
)

// NoLimit disables the corresponding capacity knob.
const NoLimit = -1

// Options configures a MemoryEngine. Start from DefaultOptions and
// override only the fields that need to change — the zero value of
// this struct does not mean "the documented default" for every field
// (in particular the limits default to NoLimit, and ReleaseAsync and both
// lifecycle triggers default to true).
type Options struct {
	// CountLimit caps the number of live entries. NoLimit disables it.
	CountLimit int64
	// CostLimit caps the sum of caller-assigned cost. NoLimit disables it.
	CostLimit int64
	// AgeLimit caps how long an entry may go unaccessed. Zero disables it.
	AgeLimit time.Duration
	// AutoTrimInterval is how often the periodic trim task runs.
	AutoTrimInterval time.Duration

	ShouldRemoveAllOnMemoryWarning   bool
	ShouldRemoveAllOnEnterBackground bool

	ReleaseOnMainThread bool
	ReleaseAsync        bool
	// MainThreadFn receives disposal thunks when ReleaseOnMainThread is
	// set; required in that case.
	MainThreadFn func(func())

	LogErrors bool
}

// DefaultOptions returns the documented defaults: no capacity limits, a
// 5-second auto-trim interval, both lifecycle triggers enabled, and
// asynchronous (not main-thread) release.
func DefaultOptions() Options {
	return Options{
		CountLimit:                       NoLimit,
		CostLimit:                        NoLimit,
		AgeLimit:                         0,
		AutoTrimInterval:                 5 * time.Second,
		ShouldRemoveAllOnMemoryWarning:   true,
		ShouldRemoveAllOnEnterBackground: true,
		ReleaseOnMainThread:              false,
		ReleaseAsync:                     true,
	}
}

// Engine is the in-memory tier: a thread-safe LRU cache over an
// intrusive linked map, enforcing count/cost/age limits with
// background trimming and policy-controlled value disposal.
type Engine struct {
	mu   sync.Mutex
	lm   *linkedMap
	opts Options

	policy *releasePolicy
	logger zerolog.Logger

	cancel context.CancelFunc
	g      *errgroup.Group
}

// New constructs and starts a MemoryEngine: the periodic trim task and,
// if ReleaseAsync is set, the background release worker each run on
// their own goroutine, coordinated for shutdown via errgroup.
func New(opts Options) *Engine {
	if opts.AutoTrimInterval <= 0 {
		opts.AutoTrimInterval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	e := &Engine{
		lm:     newLinkedMap(),
		opts:   opts,
		policy: newReleasePolicy(opts.ReleaseAsync, opts.ReleaseOnMainThread, opts.MainThreadFn, 1024),
		logger: log.WithComponent("memcache"),
		cancel: cancel,
		g:      g,
	}

	g.Go(func() error {
		e.trimLoop(ctx)
		return nil
	})
	if opts.ReleaseAsync {
		g.Go(func() error {
			e.policy.drain(func() {
				metrics.MemoryReleaseQueueDepth.Set(float64(len(e.policy.queue)))
			})
			return nil
		})
	}

	return e
}

func (e *Engine) trimLoop(ctx context.Context) {
	ticker := time.NewTicker(e.opts.AutoTrimInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runAutoTrim()
		}
	}
}

func (e *Engine) runAutoTrim() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MemoryTrimDuration)

	if e.opts.CountLimit != NoLimit {
		e.TrimToCount(e.opts.CountLimit)
	}
	if e.opts.CostLimit != NoLimit {
		e.TrimToCost(e.opts.CostLimit)
	}
	if e.opts.AgeLimit > 0 {
		e.TrimToAge(e.opts.AgeLimit)
	}
}

// Contains reports whether key is present, without affecting its
// recency.
func (e *Engine) Contains(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.lm.get(key)
	return ok
}

// Get returns key's value and moves it to most-recently-used.
func (e *Engine) Get(key string) (interface{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.lm.get(key)
	if !ok {
		return nil, false
	}
	n.time = time.Now()
	e.lm.moveToHead(key)
	return n.value, true
}

// Set stores value under key with the given cost, creating or updating
// the entry and moving it to most-recently-used. If the new aggregate
// exceeds CostLimit or CountLimit, a trim from the tail runs
// immediately, synchronously with respect to the lock but with value
// disposal happening outside it per the release policy.
func (e *Engine) Set(key string, value interface{}, cost int64) {
	e.mu.Lock()
	now := time.Now()
	if _, ok := e.lm.get(key); ok {
		e.lm.update(key, value, cost, now)
	} else {
		e.lm.insertAtHead(&node{key: key, value: value, cost: cost, time: now})
	}

	var evicted []*node
	if e.opts.CostLimit != NoLimit {
		evicted = append(evicted, e.evictToCostLocked(e.opts.CostLimit)...)
	}
	if e.opts.CountLimit != NoLimit {
		evicted = append(evicted, e.evictToCountLocked(e.opts.CountLimit)...)
	}
	e.mu.Unlock()

	e.releaseAll(evicted, "set")
}

// Remove deletes key if present, releasing its value per policy.
func (e *Engine) Remove(key string) bool {
	e.mu.Lock()
	n, ok := e.lm.remove(key)
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.policy.release(n.value)
	return true
}

// RemoveAll clears every entry, releasing values per policy.
func (e *Engine) RemoveAll() {
	e.mu.Lock()
	nodes := e.lm.removeAll()
	e.mu.Unlock()
	e.releaseAll(nodes, "remove_all")
}

func (e *Engine) releaseAll(nodes []*node, reason string) {
	if len(nodes) == 0 {
		return
	}
	metrics.MemoryEvictionsTotal.WithLabelValues(reason).Add(float64(len(nodes)))
	for _, n := range nodes {
		e.policy.release(n.value)
	}
}

func (e *Engine) evictToCountLocked(max int64) []*node {
	var evicted []*node
	for e.lm.len() > max {
		n, ok := e.lm.removeTail()
		if !ok {
			break
		}
		evicted = append(evicted, n)
	}
	return evicted
}

func (e *Engine) evictToCostLocked(max int64) []*node {
	var evicted []*node
	for e.lm.cost() > max {
		n, ok := e.lm.removeTail()
		if !ok {
			break
		}
		evicted = append(evicted, n)
	}
	return evicted
}

func (e *Engine) evictToAgeLocked(max time.Duration) []*node {
	var evicted []*node
	cutoff := time.Now().Add(-max)
	for {
		n, ok := e.lm.tail()
		if !ok || n.time.After(cutoff) {
			break
		}
		removed, _ := e.lm.removeTail()
		evicted = append(evicted, removed)
	}
	return evicted
}

// TrimToCount evicts from the tail until total_count <= max.
func (e *Engine) TrimToCount(max int64) {
	e.mu.Lock()
	evicted := e.evictToCountLocked(max)
	e.mu.Unlock()
	e.releaseAll(evicted, "trim_count")
}

// TrimToCost evicts from the tail until total_cost <= max.
func (e *Engine) TrimToCost(max int64) {
	e.mu.Lock()
	evicted := e.evictToCostLocked(max)
	e.mu.Unlock()
	e.releaseAll(evicted, "trim_cost")
}

// TrimToAge evicts from the tail every entry whose time since last
// access exceeds max.
func (e *Engine) TrimToAge(max time.Duration) {
	e.mu.Lock()
	evicted := e.evictToAgeLocked(max)
	e.mu.Unlock()
	e.releaseAll(evicted, "trim_age")
}

// OnMemoryPressure is the explicit platform-callback entry point for a
// memory-warning notification; host integration invokes it. It clears
// the cache only if ShouldRemoveAllOnMemoryWarning is set.
func (e *Engine) OnMemoryPressure() {
	if e.opts.ShouldRemoveAllOnMemoryWarning {
		e.RemoveAll()
	}
}

// OnEnterBackground is the explicit platform-callback entry point for
// an application-backgrounding transition; host integration invokes
// it. It clears the cache only if ShouldRemoveAllOnEnterBackground is
// set.
func (e *Engine) OnEnterBackground() {
	if e.opts.ShouldRemoveAllOnEnterBackground {
		e.RemoveAll()
	}
}

// Stats is a point-in-time snapshot for metrics collection.
type Stats struct {
	Items int64
	Cost  int64
}

// Stats returns the current count and cost aggregates.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{Items: e.lm.len(), Cost: e.lm.cost()}
}

// Close stops the periodic trim task and the release worker, waiting
// for both to exit. The periodic trim timer stops as part of this;
// there is no way to cancel a single in-flight trim once started, only
// to stop scheduling new ones.
func (e *Engine) Close() {
	e.cancel()
	e.policy.close()
	e.g.Wait()
}
