package types

import (
	"fmt"
	"strings"
	"time"
)

// Severity levels, lowest to highest. A logger writes records at or
// above its configured level; LevelOff disables it entirely.
const (
	LevelTrace = 0
	LevelDebug = 1
	LevelInfo  = 2
	LevelWarn  = 3
	LevelError = 4
	LevelOff   = 5
)

// LevelName returns the display name for a severity level.
func LevelName(level int) string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}

// ParseLevel converts a level name to its numeric value. Matching is
// case-insensitive and accepts the common aliases "warning" and "err".
func ParseLevel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	case "off", "none":
		return LevelOff, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// Source identifies the call site that produced a record.
type Source struct {
	File     string
	Line     int
	Function string
}

// Empty reports whether no call site was captured.
func (s Source) Empty() bool {
	return s.Line == 0 && s.File == ""
}

// Record is one logging event on its way through the pipeline.
//
// Msg may be a view into a caller-owned or pooled buffer: a Record is
// valid only for the duration of the synchronous call it was passed
// to, and must never be retained or read after that call returns. The
// asynchronous pipeline deep-copies every field it keeps.
type Record struct {
	Logger string
	Level  int
	Time   time.Time
	Source Source
	Msg    []byte
	Fields map[string]interface{}
}

// Sink is a byte-oriented output destination. Implementations must be
// safe for concurrent use: records are written from pool workers and
// from application goroutines running synchronous loggers.
type Sink interface {
	// Write writes one formatted log line.
	Write(entry []byte) (int, error)

	// Flush pushes buffered data down to the destination.
	Flush() error

	// Close releases the destination. A closed sink rejects writes.
	Close() error

	// Name identifies the sink in error reports and diagnostics.
	Name() string
}

// Formatter turns a record into the bytes a sink writes.
type Formatter interface {
	Format(rec Record) ([]byte, error)
}

// SinkStats represents statistics for a sink.
type SinkStats struct {
	WriteCount   uint64
	BytesWritten uint64
	ErrorCount   uint64
	LastWrite    time.Time
}

// StatsReporter is implemented by sinks that track write statistics.
type StatsReporter interface {
	Stats() SinkStats
}
