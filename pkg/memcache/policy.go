package memcache

// releasePolicy takes ownership of an evicted node's value and disposes
// of it without blocking the caller that triggered the eviction. Which
// disposal path runs is controlled by Options.ReleaseAsync and
// Options.ReleaseOnMainThread: drop inline, post to a background
// worker, or post to a caller-supplied main-thread scheduler. These
// knobs exist because some embedded values have affinity to a specific
// thread for destruction.
type releasePolicy struct {
	async        bool
	onMainThread bool
	mainThreadFn func(func())
	queue        chan interface{}
}

func newReleasePolicy(async, onMainThread bool, mainThreadFn func(func()), queueDepth int) *releasePolicy {
	p := &releasePolicy{
		async:        async,
		onMainThread: onMainThread,
		mainThreadFn: mainThreadFn,
	}
	if async {
		p.queue = make(chan interface{}, queueDepth)
	}
	return p
}

// release disposes of value per the configured policy. It never blocks
// the caller for longer than an async queue send (bounded by queueDepth
// in steady state; the worker goroutine started by MemoryEngine drains
// it).
func (p *releasePolicy) release(value interface{}) {
	if p.onMainThread && p.mainThreadFn != nil {
		p.mainThreadFn(func() { _ = value })
		return
	}
	if p.async {
		p.queue <- value
		return
	}
	_ = value
}

// drain runs on the dedicated release worker, dropping values as they
// arrive until the queue is closed.
func (p *releasePolicy) drain(onDrop func()) {
	for range p.queue {
		if onDrop != nil {
			onDrop()
		}
	}
}

func (p *releasePolicy) close() {
	if p.queue != nil {
		close(p.queue)
	}
}
