package flume

import (
	"sync"
	"time"
)

// periodicFlusher drives registry-wide flushes on a fixed interval.
// One timer is re-armed after every pass, so a registry carries at
// most one background flush trigger regardless of how many loggers
// it holds.
type periodicFlusher struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	stopped  bool

	flush func()
}

func newPeriodicFlusher(interval time.Duration, flush func()) *periodicFlusher {
	f := &periodicFlusher{interval: interval, flush: flush}
	f.timer = time.AfterFunc(interval, f.fire)
	return f
}

// fire runs one flush pass and re-arms the timer. The flush callback
// runs outside the lock; it walks the registry and must not find the
// flusher's lock held.
func (f *periodicFlusher) fire() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	f.flush()

	f.mu.Lock()
	if !f.stopped {
		f.timer.Reset(f.interval)
	}
	f.mu.Unlock()
}

// stop disarms the flusher. A pass already in flight finishes; no new
// pass starts after stop returns.
func (f *periodicFlusher) stop() {
	f.mu.Lock()
	f.stopped = true
	f.timer.Stop()
	f.mu.Unlock()
}
