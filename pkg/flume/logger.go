package flume

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/millrace/flume/internal/metrics"
	"github.com/millrace/flume/pkg/formatters"
	"github.com/millrace/flume/pkg/sinks"
	"github.com/millrace/flume/pkg/types"
)

// closeTimeout bounds how long Close waits for pending output.
const closeTimeout = 5 * time.Second

// Logger writes leveled records through a formatter to a set of
// sinks. Built without a pool it writes synchronously on the calling
// goroutine; built with one (WithPool) every log call posts an owned
// envelope to the pool and returns without touching I/O.
//
// All methods are safe for concurrent use.
type Logger struct {
	name string

	level  atomic.Int32
	closed atomic.Bool

	mu           sync.RWMutex // guards sinks, formatter, errorHandler
	sinks        []types.Sink
	formatter    types.Formatter
	errorHandler ErrorHandler

	pool   *Pool
	policy OverflowPolicy

	captureSource bool

	collector *metrics.Collector
}

// New creates a logger. Without options it logs at LevelInfo in text
// format to no sinks; use WithSinks or AddSink to attach output.
func New(name string, opts ...Option) (*Logger, error) {
	l := &Logger{
		name:         name,
		formatter:    formatters.NewTextFormatter(),
		errorHandler: defaultErrorHandler(),
		policy:       OverflowBlock,
		collector:    metrics.NewCollector(),
	}
	l.level.Store(types.LevelInfo)
	for _, opt := range opts {
		opt(l)
	}
	if lvl := l.Level(); lvl < types.LevelTrace || lvl > types.LevelOff {
		return nil, errors.Wrapf(ErrInvalidLevel, "flume: level %d", lvl)
	}
	return l, nil
}

// NewFileLogger creates a synchronous text logger appending to path.
func NewFileLogger(name, path string) (*Logger, error) {
	sink, err := sinks.NewFileSink(path)
	if err != nil {
		return nil, err
	}
	return New(name, WithSinks(sink))
}

// NewConsoleLogger creates a synchronous text logger on stdout.
func NewConsoleLogger(name string) (*Logger, error) {
	return New(name, WithSinks(sinks.NewStdoutSink()))
}

// Name returns the logger's name.
func (l *Logger) Name() string {
	return l.name
}

// SetLevel sets the minimum severity this logger writes.
func (l *Logger) SetLevel(level int) {
	l.level.Store(int32(level))
}

// Level returns the minimum severity this logger writes.
func (l *Logger) Level() int {
	return int(l.level.Load())
}

// IsLevelEnabled reports whether records at level would be written.
func (l *Logger) IsLevelEnabled(level int) bool {
	return l.shouldLog(level)
}

// IsClosed reports whether Close has been called.
func (l *Logger) IsClosed() bool {
	return l.closed.Load()
}

// AddSink attaches another sink.
func (l *Logger) AddSink(s types.Sink) {
	if s == nil {
		return
	}
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

// Sinks returns the attached sinks.
func (l *Logger) Sinks() []types.Sink {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]types.Sink, len(l.sinks))
	copy(out, l.sinks)
	return out
}

// SetFormatter replaces the formatter. A nil formatter is ignored.
func (l *Logger) SetFormatter(f types.Formatter) {
	if f == nil {
		return
	}
	l.mu.Lock()
	l.formatter = f
	l.mu.Unlock()
}

// SetErrorHandler replaces the error handler. Pass SilentErrorHandler
// to discard pipeline errors.
func (l *Logger) SetErrorHandler(h ErrorHandler) {
	l.mu.Lock()
	l.errorHandler = h
	l.mu.Unlock()
}

// Flush pushes buffered output toward the sinks. An asynchronous
// logger enqueues a flush signal under its overflow policy and
// returns immediately; flush is eventually applied. A synchronous
// logger flushes inline. Use Sync to wait for completion.
func (l *Logger) Flush() {
	if l.pool != nil {
		l.pool.PostFlush(l, l.policy)
		return
	}
	l.ProcessFlush()
}

// Sync flushes and waits until the flush has been dispatched or ctx
// is done. Records posted before Sync by this goroutine are written
// before it returns; with more than one worker, records still in
// flight on other workers can land after. If the pool has stopped,
// Sync flushes the sinks inline.
func (l *Logger) Sync(ctx context.Context) error {
	if l.pool == nil || l.pool.stopped.Load() {
		l.ProcessFlush()
		return nil
	}
	ack := &flushAck{logger: l, done: make(chan struct{})}
	l.pool.PostFlush(ack, OverflowBlock)
	select {
	case <-ack.done:
		return nil
	case <-l.pool.done:
		// The pool stopped before dispatching our flush.
		l.ProcessFlush()
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "flume: sync")
	}
}

// Close drains pending output, then closes every sink. The pool is
// left running: pools are shared between loggers and shut down
// separately. Close is idempotent; log calls after Close are dropped.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	_ = l.Sync(ctx)

	l.mu.Lock()
	sinks := l.sinks
	l.sinks = nil
	l.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, errors.Wrapf(err, "close %s", s.Name()))
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("flume: closing logger %q: %v", l.name, errs)
	}
	return nil
}

// ProcessRecord implements Target: it formats rec once and writes the
// result to every sink. Failures go to the error handler, never back
// to the producer. Workers call this; a synchronous logger calls it
// inline.
func (l *Logger) ProcessRecord(rec types.Record) {
	l.mu.RLock()
	f := l.formatter
	sinks := l.sinks
	l.mu.RUnlock()

	line, err := f.Format(rec)
	if err != nil {
		l.reportError("format", "", err, ErrorLevelMedium)
		return
	}
	for _, s := range sinks {
		n, err := s.Write(line)
		if err != nil {
			l.reportError("write", s.Name(), err, ErrorLevelHigh)
			continue
		}
		l.collector.TrackWrite(n)
	}
}

// ProcessFlush implements Target: it flushes every sink.
func (l *Logger) ProcessFlush() {
	l.mu.RLock()
	sinks := l.sinks
	l.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Flush(); err != nil {
			l.reportError("flush", s.Name(), err, ErrorLevelMedium)
		}
	}
}

// flushAck wraps a logger so a posted flush can signal completion.
// It is the wait mechanism layered outside the pool core.
type flushAck struct {
	logger *Logger
	done   chan struct{}
}

func (a *flushAck) ProcessRecord(rec types.Record) {
	a.logger.ProcessRecord(rec)
}

func (a *flushAck) ProcessFlush() {
	a.logger.ProcessFlush()
	close(a.done)
}

// shouldLog gates a record by level and logger state.
func (l *Logger) shouldLog(level int) bool {
	return !l.closed.Load() && level >= l.Level()
}

// emit builds the record and hands it to the pipeline. msg may view a
// pooled buffer; the synchronous path writes it before returning and
// the asynchronous path deep-copies it into the envelope, so either
// way the caller can reuse the buffer afterwards.
//
// emit is always two frames below the exported logging method, which
// keeps the captured call site stable.
func (l *Logger) emit(level int, msg []byte, fields map[string]interface{}) {
	l.collector.TrackEnqueue(level)
	rec := types.Record{
		Logger: l.name,
		Level:  level,
		Time:   time.Now(),
		Msg:    msg,
		Fields: fields,
	}
	if l.captureSource {
		if pc, file, line, ok := runtime.Caller(3); ok {
			src := types.Source{File: file, Line: line}
			if fn := runtime.FuncForPC(pc); fn != nil {
				src.Function = fn.Name()
			}
			rec.Source = src
		}
	}
	if l.pool != nil {
		l.pool.PostLog(l, rec, l.policy)
		return
	}
	l.ProcessRecord(rec)
}

// reportError routes a pipeline failure to the error handler and the
// collector.
func (l *Logger) reportError(op, sink string, err error, level ErrorLevel) {
	l.collector.TrackError(op)
	l.mu.RLock()
	h := l.errorHandler
	l.mu.RUnlock()
	if h == nil {
		return
	}
	h(LogError{
		Time:      time.Now(),
		Logger:    l.name,
		Operation: op,
		Sink:      sink,
		Err:       err,
		Level:     level,
	})
}
