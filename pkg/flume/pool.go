package flume

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/millrace/flume/internal/metrics"
	"github.com/millrace/flume/internal/queue"
	"github.com/millrace/flume/pkg/types"
)

// MaxWorkers bounds the worker count accepted by NewPool.
const MaxWorkers = 1000

// dequeueWait bounds a worker's idle wait. A worker sitting on an
// empty queue wakes at least this often, so shutdown is never delayed
// longer than this by a parked worker.
const dequeueWait = 10 * time.Second

// postWait bounds a blocked producer's wait between shutdown checks.
// A blocking post waits for queue space in slices of this length and
// re-checks the stopped flag after each one.
const postWait = 250 * time.Millisecond

// OverflowPolicy selects what a post does when the queue is full.
type OverflowPolicy int

const (
	// OverflowBlock blocks the producer until space frees up. While
	// the pool is running nothing is ever dropped.
	OverflowBlock OverflowPolicy = iota

	// OverflowDropOldest evicts the oldest queued message to make
	// room and never blocks. Evictions are counted by the overrun
	// counter; they are backpressure, not errors.
	OverflowDropOldest
)

// String returns the policy name.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBlock:
		return "block"
	case OverflowDropOldest:
		return "drop_oldest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Target is the backend dispatch contract between pool workers and a
// logger. Implementations must be safe to call from any worker
// goroutine, concurrently with the application's direct use of the
// logger; the pool does not serialize access beyond handing over one
// message at a time per worker.
type Target interface {
	// ProcessRecord performs the actual formatting and sink writes
	// for one record. It may block on I/O.
	ProcessRecord(rec types.Record)

	// ProcessFlush forces buffered output down to the sinks.
	ProcessFlush()
}

// Pool owns the bounded queue and the workers that drain it.
//
// Producers hand records over through PostLog and PostFlush and
// return without waiting for I/O; workers dequeue and dispatch to the
// record's target. One pool is typically shared by every asynchronous
// logger in a process.
type Pool struct {
	q       *queue.Queue[envelope]
	workers int
	wg      sync.WaitGroup

	startHook func()
	onError   func(error)

	stopOnce sync.Once
	stopped  atomic.Bool
	done     chan struct{}

	collector *metrics.Collector
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithStartHook runs fn once at the start of every worker goroutine,
// before it begins draining.
func WithStartHook(fn func()) PoolOption {
	return func(p *Pool) { p.startHook = fn }
}

// WithPoolErrorHandler receives failures recovered inside workers,
// such as a panicking sink. fn is called from worker goroutines.
func WithPoolErrorHandler(fn func(error)) PoolOption {
	return func(p *Pool) { p.onError = fn }
}

// NewPool validates the configuration, spawns the workers, and
// returns a running pool. capacity is the fixed queue size; workers
// must be between 1 and MaxWorkers. On error no goroutines are
// started and no partial pool is left behind.
func NewPool(capacity, workers int, opts ...PoolOption) (*Pool, error) {
	if workers < 1 || workers > MaxWorkers {
		return nil, errors.Wrapf(ErrInvalidWorkerCount, "flume: %d requested, want 1..%d", workers, MaxWorkers)
	}
	if capacity < 1 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "flume: %d requested", capacity)
	}

	p := &Pool{
		q:         queue.New[envelope](capacity),
		workers:   workers,
		done:      make(chan struct{}),
		collector: metrics.NewCollector(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p, nil
}

// PostLog captures rec into an owned envelope and enqueues it under
// policy. It returns as soon as the queue accepts the envelope (under
// OverflowBlock that can mean waiting for space); it never waits for
// the worker to dispatch. rec and its buffers may be reused
// immediately after PostLog returns. Posting to a stopped pool is a
// counted no-op.
func (p *Pool) PostLog(target Target, rec types.Record, policy OverflowPolicy) {
	if p.stopped.Load() {
		p.collector.TrackDropped()
		return
	}
	if p.post(newLogEnvelope(target, rec), policy) {
		p.collector.TrackEnqueue(rec.Level)
	}
}

// PostFlush enqueues a flush signal for target under policy. Flush is
// eventually applied; callers that need to wait use Logger.Sync.
func (p *Pool) PostFlush(target Target, policy OverflowPolicy) {
	if p.stopped.Load() {
		p.collector.TrackDropped()
		return
	}
	p.post(newFlushEnvelope(target), policy)
}

// post enqueues env under policy and reports whether the queue took
// it. Policies other than OverflowDropOldest behave as OverflowBlock.
//
// A blocking post can race Stop: the entry check in PostLog/PostFlush
// passes, then the pool stops before the enqueue. Waiting in postWait
// slices and re-checking the stopped flag keeps such a producer from
// parking forever on a full queue nobody drains; the envelope is
// counted as dropped instead.
func (p *Pool) post(env envelope, policy OverflowPolicy) bool {
	if policy == OverflowDropOldest {
		p.q.EnqueueNowait(env)
		return true
	}
	for !p.q.EnqueueFor(env, postWait) {
		if p.stopped.Load() {
			p.collector.TrackDropped()
			return false
		}
	}
	return true
}

// QueueSize reports the number of envelopes currently queued,
// lock-consistent with the queue at the instant of the call.
func (p *Pool) QueueSize() int {
	return p.q.Len()
}

// QueueCapacity reports the fixed capacity of the queue.
func (p *Pool) QueueCapacity() int {
	return p.q.Cap()
}

// OverrunCounter reports the total messages evicted under
// OverflowDropOldest since construction or the last reset. It never
// decreases otherwise.
func (p *Pool) OverrunCounter() uint64 {
	return p.q.OverrunCount()
}

// ResetOverrunCounter zeroes the overrun counter.
func (p *Pool) ResetOverrunCounter() {
	p.q.ResetOverrunCount()
}

// WorkerCount reports the number of workers the pool was built with.
func (p *Pool) WorkerCount() int {
	return p.workers
}

// Stop shuts the pool down: it posts one terminate envelope per
// worker using the blocking policy, so shutdown can never be dropped
// by an overrun, then waits for every worker to drain up to its
// terminate and exit. Messages already queued ahead of the terminates
// are dispatched before the workers go; messages posted concurrently
// with Stop may be left undispatched.
//
// Stop is idempotent and safe to call concurrently. It never panics;
// teardown runs under a recover boundary because it must complete
// unconditionally.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		defer close(p.done)
		defer func() {
			_ = recover()
		}()
		for i := 0; i < p.workers; i++ {
			p.q.Enqueue(newTerminateEnvelope())
		}
		p.wg.Wait()
	})
}

// worker is one drain loop. It runs the optional start hook, then
// processes envelopes until it consumes a terminate.
func (p *Pool) worker(id int) {
	defer p.wg.Done()
	if p.startHook != nil {
		p.startHook()
	}
	for p.processNext(id) {
	}
}

// processNext drains one envelope and reports whether the worker
// should keep going. A timed-out dequeue keeps the loop alive; only a
// terminate envelope stops it.
func (p *Pool) processNext(id int) bool {
	env, ok := p.q.DequeueFor(dequeueWait)
	if !ok {
		return true
	}
	switch env.kind {
	case kindLog:
		p.dispatchRecord(env)
		return true
	case kindFlush:
		p.dispatchFlush(env)
		return true
	case kindTerminate:
		return false
	default:
		// Unreachable through any valid call sequence.
		panic(fmt.Sprintf("flume: worker %d: unknown envelope kind %d", id, env.kind))
	}
}

// dispatchRecord hands the record to its target. The envelope is
// already out of shared state, so sink I/O here never blocks
// producers or other workers.
func (p *Pool) dispatchRecord(env envelope) {
	defer p.recoverDispatch()
	start := time.Now()
	env.target.ProcessRecord(env.rec)
	p.collector.TrackDispatch(time.Since(start))
}

func (p *Pool) dispatchFlush(env envelope) {
	defer p.recoverDispatch()
	env.target.ProcessFlush()
	p.collector.TrackFlush()
}

// recoverDispatch keeps a panicking target from taking the worker
// down. The failure is counted and reported; the drain loop goes on.
func (p *Pool) recoverDispatch() {
	if r := recover(); r != nil {
		p.collector.TrackError("dispatch")
		if p.onError != nil {
			p.onError(errors.Errorf("flume: dispatch panic: %v", r))
		}
	}
}
