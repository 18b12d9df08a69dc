// Package sinks provides the built-in output destinations: plain
// writers, locked buffered files, size-rotated files, syslog, NATS,
// and Redis. Every sink is safe for concurrent use; pool workers and
// synchronous loggers write to the same instances.
package sinks

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/millrace/flume/pkg/types"
)

// WriterSink adapts any io.Writer into a sink. It owns no resources:
// Close marks the sink rejected but never closes the underlying
// writer, so wrapping os.Stdout is safe.
type WriterSink struct {
	mu     sync.Mutex
	w      io.Writer
	name   string
	closed bool
	stats  types.SinkStats
}

// NewWriterSink wraps w under the given diagnostic name.
func NewWriterSink(w io.Writer, name string) *WriterSink {
	return &WriterSink{w: w, name: name}
}

// NewStdoutSink returns a sink writing to standard output.
func NewStdoutSink() *WriterSink {
	return NewWriterSink(os.Stdout, "stdout")
}

// NewStderrSink returns a sink writing to standard error.
func NewStderrSink() *WriterSink {
	return NewWriterSink(os.Stderr, "stderr")
}

// Write writes one formatted log line.
func (s *WriterSink) Write(entry []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.stats.ErrorCount++
		return 0, errors.Errorf("sink %s is closed", s.name)
	}

	n, err := s.w.Write(entry)
	if err != nil {
		s.stats.ErrorCount++
		return n, err
	}

	s.stats.WriteCount++
	s.stats.BytesWritten += uint64(n)
	s.stats.LastWrite = time.Now()
	return n, nil
}

// Flush flushes the writer when it supports flushing.
func (s *WriterSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close marks the sink closed. The wrapped writer stays open; the
// sink does not own it.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Name identifies the sink in error reports.
func (s *WriterSink) Name() string {
	return s.name
}

// Stats returns write statistics.
func (s *WriterSink) Stats() types.SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
