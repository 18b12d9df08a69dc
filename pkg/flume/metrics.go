package flume

import (
	"time"

	"github.com/millrace/flume/pkg/types"
)

// PoolStats contains runtime metrics for a worker pool.
type PoolStats struct {
	// Shape
	Workers       int // Drain goroutines
	QueueCapacity int // Fixed slot count
	QueueSize     int // Envelopes waiting right now

	// Flow counters
	Enqueued   uint64 // Log envelopes accepted
	Dispatched uint64 // Log envelopes handed to their target
	Flushes    uint64 // Flush envelopes handed to their target
	Dropped    uint64 // Posts refused because the pool had stopped
	Overrun    uint64 // Oldest envelopes evicted under OverflowDropOldest

	// Dispatch health
	DispatchErrors      uint64        // Target calls that panicked
	AverageDispatchTime time.Duration // Mean time inside targets
	MaxDispatchTime     time.Duration // Worst time inside targets
}

// Stats returns a snapshot of the pool's counters. Counters keep
// moving while the snapshot is taken, so related fields can be off by
// in-flight envelopes.
func (p *Pool) Stats() PoolStats {
	snap := p.collector.Snapshot()
	return PoolStats{
		Workers:             p.workers,
		QueueCapacity:       p.q.Cap(),
		QueueSize:           p.q.Len(),
		Enqueued:            snap.Enqueued,
		Dispatched:          snap.Dispatched,
		Flushes:             snap.Flushes,
		Dropped:             snap.Dropped,
		Overrun:             p.q.OverrunCount(),
		DispatchErrors:      snap.ErrorsByOperation["dispatch"],
		AverageDispatchTime: snap.AverageDispatchTime,
		MaxDispatchTime:     snap.MaxDispatchTime,
	}
}

// LoggerStats contains runtime metrics for a single logger.
type LoggerStats struct {
	Name  string // Logger name
	Level int    // Current minimum level

	// Messages accepted by this logger, by level. Counted at the
	// producer call, before any queueing.
	MessagesByLevel map[int]uint64

	// Sink writes
	WriteCount   uint64 // Successful sink writes
	BytesWritten uint64 // Bytes across all sinks

	// Error tracking
	ErrorCount        uint64            // Pipeline failures
	ErrorsByOperation map[string]uint64 // Failures keyed by operation

	// Per-sink statistics for sinks that report them.
	Sinks map[string]types.SinkStats
}

// Stats returns a snapshot of the logger's counters.
func (l *Logger) Stats() LoggerStats {
	snap := l.collector.Snapshot()
	st := LoggerStats{
		Name:              l.name,
		Level:             l.Level(),
		MessagesByLevel:   snap.MessagesByLevel,
		WriteCount:        snap.WriteCount,
		BytesWritten:      snap.BytesWritten,
		ErrorCount:        snap.ErrorCount,
		ErrorsByOperation: snap.ErrorsByOperation,
		Sinks:             make(map[string]types.SinkStats),
	}
	for _, s := range l.Sinks() {
		if r, ok := s.(types.StatsReporter); ok {
			st.Sinks[s.Name()] = r.Stats()
		}
	}
	return st
}
