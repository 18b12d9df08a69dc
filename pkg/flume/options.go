package flume

import (
	"github.com/millrace/flume/pkg/formatters"
	"github.com/millrace/flume/pkg/types"
)

// Option configures a Logger at construction. Invalid combinations
// surface as an error from New rather than from the option itself.
type Option func(*Logger)

// WithSinks attaches the given sinks. Nil entries are skipped.
func WithSinks(sinks ...types.Sink) Option {
	return func(l *Logger) {
		for _, s := range sinks {
			if s != nil {
				l.sinks = append(l.sinks, s)
			}
		}
	}
}

// WithFormatter sets the formatter. A nil formatter keeps the default.
func WithFormatter(f types.Formatter) Option {
	return func(l *Logger) {
		if f != nil {
			l.formatter = f
		}
	}
}

// WithJSONFormat switches output to the JSON formatter.
func WithJSONFormat() Option {
	return WithFormatter(formatters.NewJSONFormatter())
}

// WithTextFormat switches output to the text formatter. Text is the
// default; the option exists for symmetry with WithJSONFormat.
func WithTextFormat() Option {
	return WithFormatter(formatters.NewTextFormatter())
}

// WithLevel sets the minimum severity. New rejects values outside
// LevelTrace through LevelOff.
func WithLevel(level int) Option {
	return func(l *Logger) {
		l.level.Store(int32(level))
	}
}

// WithPool makes the logger asynchronous: log calls post to pool and
// return without touching sinks. Several loggers may share one pool.
func WithPool(pool *Pool) Option {
	return func(l *Logger) {
		l.pool = pool
	}
}

// WithOverflowPolicy sets how posts behave when the pool's queue is
// full. It has no effect on a synchronous logger.
func WithOverflowPolicy(policy OverflowPolicy) Option {
	return func(l *Logger) {
		l.policy = policy
	}
}

// WithErrorHandler sets the handler invoked for pipeline failures.
// A nil handler keeps the default.
func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Logger) {
		if h != nil {
			l.errorHandler = h
		}
	}
}

// WithSourceInfo enables capture of the caller's file, line, and
// function on every record. Capture costs a runtime.Caller per log
// call, so it is off by default.
func WithSourceInfo() Option {
	return func(l *Logger) {
		l.captureSource = true
	}
}
