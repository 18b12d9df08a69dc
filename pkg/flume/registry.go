package flume

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Defaults for the registry's lazily created pool.
const (
	DefaultQueueSize = 8192
	DefaultWorkers   = 1
)

// Registry tracks loggers by name and owns the process-wide worker
// pool they share. The zero value is not usable; call NewRegistry, or
// use the package-level functions backed by a default registry.
type Registry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	def     *Logger
	pool    *Pool
	flusher *periodicFlusher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loggers: make(map[string]*Logger)}
}

// Register adds a logger under its name. Registering a second logger
// with the same name returns ErrLoggerExists.
func (r *Registry) Register(l *Logger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loggers[l.Name()]; ok {
		return errors.Wrapf(ErrLoggerExists, "flume: %q", l.Name())
	}
	r.loggers[l.Name()] = l
	return nil
}

// Get returns the registered logger with the given name.
func (r *Registry) Get(name string) (*Logger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loggers[name]
	return l, ok
}

// Drop removes a logger from the registry. The logger itself is left
// open; dropping is deregistration, not teardown.
func (r *Registry) Drop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.loggers, name)
	if r.def != nil && r.def.Name() == name {
		r.def = nil
	}
}

// DropAll removes every logger, including the default.
func (r *Registry) DropAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggers = make(map[string]*Logger)
	r.def = nil
}

// SetDefault registers l if needed and makes it the default logger.
// An existing registration under the same name is replaced.
func (r *Registry) SetDefault(l *Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggers[l.Name()] = l
	r.def = l
}

// Default returns the default logger, or nil if none was set.
func (r *Registry) Default() *Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Each calls fn for every registered logger. fn must not call back
// into registry methods that take the write lock.
func (r *Registry) Each(fn func(*Logger)) {
	r.mu.RLock()
	loggers := make([]*Logger, 0, len(r.loggers))
	for _, l := range r.loggers {
		loggers = append(loggers, l)
	}
	r.mu.RUnlock()
	for _, l := range loggers {
		fn(l)
	}
}

// SetLevel sets the minimum level on every registered logger.
func (r *Registry) SetLevel(level int) {
	r.Each(func(l *Logger) { l.SetLevel(level) })
}

// InitPool replaces the shared pool with one of the given shape. An
// existing pool is stopped first, draining whatever it still holds.
func (r *Registry) InitPool(capacity, workers int, opts ...PoolOption) error {
	pool, err := NewPool(capacity, workers, opts...)
	if err != nil {
		return err
	}
	r.mu.Lock()
	old := r.pool
	r.pool = pool
	r.mu.Unlock()
	if old != nil {
		old.Stop()
	}
	return nil
}

// Pool returns the shared pool, creating one with DefaultQueueSize
// and DefaultWorkers on first use.
func (r *Registry) Pool() *Pool {
	r.mu.RLock()
	p := r.pool
	r.mu.RUnlock()
	if p != nil {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pool == nil {
		// Defaults cannot fail validation.
		pool, err := NewPool(DefaultQueueSize, DefaultWorkers)
		if err != nil {
			panic(err)
		}
		r.pool = pool
	}
	return r.pool
}

// FlushEvery flushes every registered logger each interval, bounding
// how long a record can sit in sink buffers without an explicit
// Flush. Asynchronous loggers enqueue their flush like any other;
// synchronous loggers flush on the timer goroutine. An interval of
// zero or less stops periodic flushing; calling FlushEvery again
// replaces the previous interval.
func (r *Registry) FlushEvery(interval time.Duration) {
	r.mu.Lock()
	old := r.flusher
	r.flusher = nil
	if interval > 0 {
		r.flusher = newPeriodicFlusher(interval, func() {
			r.Each(func(l *Logger) { l.Flush() })
		})
	}
	r.mu.Unlock()
	if old != nil {
		old.stop()
	}
}

// Shutdown stops periodic flushing, closes every registered logger,
// stops the shared pool, and empties the registry. It returns early
// with ctx.Err() if ctx expires first; teardown keeps running in the
// background so sinks still end up closed.
func (r *Registry) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)

	go func() {
		r.mu.Lock()
		flusher := r.flusher
		r.flusher = nil
		r.mu.Unlock()
		if flusher != nil {
			flusher.stop()
		}

		var errs []error
		r.Each(func(l *Logger) {
			if err := l.Close(); err != nil {
				errs = append(errs, err)
			}
		})

		r.mu.Lock()
		pool := r.pool
		r.pool = nil
		r.loggers = make(map[string]*Logger)
		r.def = nil
		r.mu.Unlock()

		if pool != nil {
			pool.Stop()
		}

		if len(errs) > 0 {
			done <- errors.Errorf("flume: shutdown: %v", errs)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// defaultRegistry backs the package-level functions.
var defaultRegistry = NewRegistry()

// Register adds a logger to the default registry.
func Register(l *Logger) error {
	return defaultRegistry.Register(l)
}

// Get returns a logger from the default registry.
func Get(name string) (*Logger, bool) {
	return defaultRegistry.Get(name)
}

// Drop removes a logger from the default registry.
func Drop(name string) {
	defaultRegistry.Drop(name)
}

// DropAll removes every logger from the default registry.
func DropAll() {
	defaultRegistry.DropAll()
}

// SetDefault sets the default registry's default logger.
func SetDefault(l *Logger) {
	defaultRegistry.SetDefault(l)
}

// Default returns the default registry's default logger.
func Default() *Logger {
	return defaultRegistry.Default()
}

// InitPool replaces the default registry's shared pool.
func InitPool(capacity, workers int, opts ...PoolOption) error {
	return defaultRegistry.InitPool(capacity, workers, opts...)
}

// SharedPool returns the default registry's pool, creating it with
// defaults on first use.
func SharedPool() *Pool {
	return defaultRegistry.Pool()
}

// FlushEvery enables periodic flushing on the default registry.
func FlushEvery(interval time.Duration) {
	defaultRegistry.FlushEvery(interval)
}

// Shutdown tears down the default registry.
func Shutdown(ctx context.Context) error {
	return defaultRegistry.Shutdown(ctx)
}
