package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates counters for the asynchronous pipeline. All
// methods are safe for concurrent use from producers and workers.
type Collector struct {
	// Message counts by level
	messagesByLevel sync.Map // map[int]*atomic.Uint64
	messagesDropped uint64

	// Pipeline counters
	enqueued   uint64
	dispatched uint64
	flushes    uint64

	// Sink write counters
	writeCount   uint64
	bytesWritten uint64

	// Error metrics
	errorCount        uint64
	errorsByOperation sync.Map // map[string]*atomic.Uint64

	// Dispatch latency
	totalDispatchTime int64 // nanoseconds
	maxDispatchTime   int64 // nanoseconds
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Stats is a point-in-time snapshot of a collector.
type Stats struct {
	MessagesByLevel map[int]uint64 `json:"messages_by_level"`
	Dropped         uint64         `json:"dropped"`

	Enqueued   uint64 `json:"enqueued"`
	Dispatched uint64 `json:"dispatched"`
	Flushes    uint64 `json:"flushes"`

	WriteCount   uint64 `json:"write_count"`
	BytesWritten uint64 `json:"bytes_written"`

	ErrorCount        uint64            `json:"error_count"`
	ErrorsByOperation map[string]uint64 `json:"errors_by_operation"`

	AverageDispatchTime time.Duration `json:"average_dispatch_time"`
	MaxDispatchTime     time.Duration `json:"max_dispatch_time"`
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Stats {
	stats := Stats{
		MessagesByLevel:   make(map[int]uint64),
		Dropped:           atomic.LoadUint64(&c.messagesDropped),
		Enqueued:          atomic.LoadUint64(&c.enqueued),
		Dispatched:        atomic.LoadUint64(&c.dispatched),
		Flushes:           atomic.LoadUint64(&c.flushes),
		WriteCount:        atomic.LoadUint64(&c.writeCount),
		BytesWritten:      atomic.LoadUint64(&c.bytesWritten),
		ErrorCount:        atomic.LoadUint64(&c.errorCount),
		ErrorsByOperation: make(map[string]uint64),
	}

	c.messagesByLevel.Range(func(key, value interface{}) bool {
		count := value.(*atomic.Uint64).Load()
		if count > 0 {
			stats.MessagesByLevel[key.(int)] = count
		}
		return true
	})

	c.errorsByOperation.Range(func(key, value interface{}) bool {
		count := value.(*atomic.Uint64).Load()
		if count > 0 {
			stats.ErrorsByOperation[key.(string)] = count
		}
		return true
	})

	if dispatched := stats.Dispatched; dispatched > 0 {
		stats.AverageDispatchTime = time.Duration(atomic.LoadInt64(&c.totalDispatchTime)) / time.Duration(dispatched)
	}
	stats.MaxDispatchTime = time.Duration(atomic.LoadInt64(&c.maxDispatchTime))

	return stats
}

// Reset zeroes every counter.
func (c *Collector) Reset() {
	c.messagesByLevel.Range(func(key, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})
	c.errorsByOperation.Range(func(key, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})

	atomic.StoreUint64(&c.messagesDropped, 0)
	atomic.StoreUint64(&c.enqueued, 0)
	atomic.StoreUint64(&c.dispatched, 0)
	atomic.StoreUint64(&c.flushes, 0)
	atomic.StoreUint64(&c.writeCount, 0)
	atomic.StoreUint64(&c.bytesWritten, 0)
	atomic.StoreUint64(&c.errorCount, 0)
	atomic.StoreInt64(&c.totalDispatchTime, 0)
	atomic.StoreInt64(&c.maxDispatchTime, 0)
}

// TrackEnqueue records a message handed to the queue at a level.
func (c *Collector) TrackEnqueue(level int) {
	atomic.AddUint64(&c.enqueued, 1)
	val, _ := c.messagesByLevel.LoadOrStore(level, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// TrackDispatch records one completed backend dispatch.
func (c *Collector) TrackDispatch(duration time.Duration) {
	atomic.AddUint64(&c.dispatched, 1)
	atomic.AddInt64(&c.totalDispatchTime, int64(duration))

	for {
		oldMax := atomic.LoadInt64(&c.maxDispatchTime)
		if int64(duration) <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt64(&c.maxDispatchTime, oldMax, int64(duration)) {
			break
		}
	}
}

// TrackFlush records one dispatched flush signal.
func (c *Collector) TrackFlush() {
	atomic.AddUint64(&c.flushes, 1)
}

// TrackDropped records a message refused by the pipeline.
func (c *Collector) TrackDropped() {
	atomic.AddUint64(&c.messagesDropped, 1)
}

// TrackWrite records a successful sink write.
func (c *Collector) TrackWrite(bytes int) {
	atomic.AddUint64(&c.writeCount, 1)
	atomic.AddUint64(&c.bytesWritten, uint64(bytes))
}

// TrackError increments the error counter for an operation
// ("write", "flush", "format", "dispatch").
func (c *Collector) TrackError(operation string) {
	atomic.AddUint64(&c.errorCount, 1)
	val, _ := c.errorsByOperation.LoadOrStore(operation, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// MessageCount returns the number of messages recorded at a level.
func (c *Collector) MessageCount(level int) uint64 {
	if val, ok := c.messagesByLevel.Load(level); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}

// ErrorCount returns the total error count.
func (c *Collector) ErrorCount() uint64 {
	return atomic.LoadUint64(&c.errorCount)
}

// ErrorCountByOperation returns the error count for one operation.
func (c *Collector) ErrorCountByOperation(operation string) uint64 {
	if val, ok := c.errorsByOperation.Load(operation); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}
