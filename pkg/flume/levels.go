package flume

import (
	"fmt"

	"github.com/millrace/flume/internal/buffer"
	"github.com/millrace/flume/pkg/types"
)

// Severity levels, shared with pkg/types.
const (
	LevelTrace = types.LevelTrace
	LevelDebug = types.LevelDebug
	LevelInfo  = types.LevelInfo
	LevelWarn  = types.LevelWarn
	LevelError = types.LevelError
	LevelOff   = types.LevelOff
)

// log renders args in fmt.Sprint style into a pooled buffer and
// emits the record. The helpers below keep a fixed call depth above
// emit so source capture lands on the caller's line.
func (l *Logger) log(level int, args ...interface{}) {
	buf := buffer.Get()
	defer buffer.Put(buf)
	fmt.Fprint(buf, args...)
	l.emit(level, buf.Bytes(), nil)
}

// logf renders a printf-style message. With no args the format string
// is written verbatim, so logger.Infof("50% done") is safe.
func (l *Logger) logf(level int, format string, args ...interface{}) {
	buf := buffer.Get()
	defer buffer.Put(buf)
	if len(args) == 0 {
		buf.WriteString(format)
	} else {
		fmt.Fprintf(buf, format, args...)
	}
	l.emit(level, buf.Bytes(), nil)
}

// logFields renders a plain message carrying structured fields.
func (l *Logger) logFields(level int, msg string, fields map[string]interface{}) {
	buf := buffer.Get()
	defer buffer.Put(buf)
	buf.WriteString(msg)
	l.emit(level, buf.Bytes(), fields)
}

// Trace logs a message at TRACE level.
// The message is constructed by concatenating the arguments, similar to fmt.Sprint.
// Trace messages are typically used for very detailed diagnostic information.
//
// Example:
//
//	logger.Trace("entering handler with id ", id)
func (l *Logger) Trace(args ...interface{}) {
	if l.shouldLog(LevelTrace) {
		l.log(LevelTrace, args...)
	}
}

// Tracef logs a formatted message at TRACE level.
// The message is constructed using fmt.Sprintf with the provided format string.
//
// Example:
//
//	logger.Tracef("cache lookup key=%s hit=%t", key, hit)
func (l *Logger) Tracef(format string, args ...interface{}) {
	if l.shouldLog(LevelTrace) {
		l.logf(LevelTrace, format, args...)
	}
}

// TraceWithFields logs a message at TRACE level with structured fields.
// The field map is copied before the call returns, so the caller may
// reuse it.
func (l *Logger) TraceWithFields(msg string, fields map[string]interface{}) {
	if l.shouldLog(LevelTrace) {
		l.logFields(LevelTrace, msg, fields)
	}
}

// Debug logs a message at DEBUG level.
// The message is constructed by concatenating the arguments, similar to fmt.Sprint.
// Debug messages are typically used for detailed diagnostic information.
//
// Example:
//
//	logger.Debug("retry count: ", retries)
func (l *Logger) Debug(args ...interface{}) {
	if l.shouldLog(LevelDebug) {
		l.log(LevelDebug, args...)
	}
}

// Debugf logs a formatted message at DEBUG level.
// The message is constructed using fmt.Sprintf with the provided format string.
//
// Example:
//
//	logger.Debugf("processing user %d with options %+v", userID, opts)
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.shouldLog(LevelDebug) {
		l.logf(LevelDebug, format, args...)
	}
}

// DebugWithFields logs a message at DEBUG level with structured fields.
func (l *Logger) DebugWithFields(msg string, fields map[string]interface{}) {
	if l.shouldLog(LevelDebug) {
		l.logFields(LevelDebug, msg, fields)
	}
}

// Info logs a message at INFO level.
// The message is constructed by concatenating the arguments, similar to fmt.Sprint.
// Info messages are typically used for general informational messages about
// application flow.
//
// Example:
//
//	logger.Info("server started on port ", port)
func (l *Logger) Info(args ...interface{}) {
	if l.shouldLog(LevelInfo) {
		l.log(LevelInfo, args...)
	}
}

// Infof logs a formatted message at INFO level.
// The message is constructed using fmt.Sprintf with the provided format string.
//
// Example:
//
//	logger.Infof("connected to %s with %d connections", dbName, poolSize)
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.shouldLog(LevelInfo) {
		l.logf(LevelInfo, format, args...)
	}
}

// InfoWithFields logs a message at INFO level with structured fields.
//
// Example:
//
//	logger.InfoWithFields("request served", map[string]interface{}{
//		"method": "GET",
//		"status": 200,
//	})
func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	if l.shouldLog(LevelInfo) {
		l.logFields(LevelInfo, msg, fields)
	}
}

// Warn logs a message at WARN level.
// The message is constructed by concatenating the arguments, similar to fmt.Sprint.
// Warning messages indicate potentially harmful situations that should be
// investigated.
func (l *Logger) Warn(args ...interface{}) {
	if l.shouldLog(LevelWarn) {
		l.log(LevelWarn, args...)
	}
}

// Warnf logs a formatted message at WARN level.
// The message is constructed using fmt.Sprintf with the provided format string.
//
// Example:
//
//	logger.Warnf("request took %dms, exceeding threshold of %dms", elapsed, limit)
func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.shouldLog(LevelWarn) {
		l.logf(LevelWarn, format, args...)
	}
}

// WarnWithFields logs a message at WARN level with structured fields.
func (l *Logger) WarnWithFields(msg string, fields map[string]interface{}) {
	if l.shouldLog(LevelWarn) {
		l.logFields(LevelWarn, msg, fields)
	}
}

// Error logs a message at ERROR level.
// The message is constructed by concatenating the arguments, similar to fmt.Sprint.
// Error messages indicate serious problems that require attention.
//
// Example:
//
//	logger.Error("failed to connect: ", err)
func (l *Logger) Error(args ...interface{}) {
	if l.shouldLog(LevelError) {
		l.log(LevelError, args...)
	}
}

// Errorf logs a formatted message at ERROR level.
// The message is constructed using fmt.Sprintf with the provided format string.
//
// Example:
//
//	logger.Errorf("request failed after %d retries: %v", retries, err)
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.shouldLog(LevelError) {
		l.logf(LevelError, format, args...)
	}
}

// ErrorWithFields logs a message at ERROR level with structured fields.
func (l *Logger) ErrorWithFields(msg string, fields map[string]interface{}) {
	if l.shouldLog(LevelError) {
		l.logFields(LevelError, msg, fields)
	}
}
