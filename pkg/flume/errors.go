package flume

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Configuration errors returned by constructors. Wrapped values stay
// matchable with errors.Is.
var (
	// ErrInvalidWorkerCount reports a worker count outside [1, MaxWorkers].
	ErrInvalidWorkerCount = errors.New("worker count out of range")

	// ErrInvalidCapacity reports a queue capacity below 1.
	ErrInvalidCapacity = errors.New("queue capacity out of range")

	// ErrInvalidLevel reports a level outside the known range.
	ErrInvalidLevel = errors.New("unknown log level")

	// ErrLoggerExists reports a duplicate name at registration.
	ErrLoggerExists = errors.New("logger already registered")
)

// ErrorLevel represents additional error severity levels beyond the standard log levels
type ErrorLevel int

const (
	// ErrorLevelLow represents minor errors that don't significantly impact operation
	ErrorLevelLow ErrorLevel = iota
	// ErrorLevelWarn represents warning-level errors
	ErrorLevelWarn
	// ErrorLevelMedium represents important errors that may degrade functionality
	ErrorLevelMedium
	// ErrorLevelHigh represents critical errors that significantly impact operation
	ErrorLevelHigh
	// ErrorLevelCritical represents fatal errors that require immediate attention
	ErrorLevelCritical
)

// String returns the display name of the error level.
func (e ErrorLevel) String() string {
	switch e {
	case ErrorLevelLow:
		return "low"
	case ErrorLevelWarn:
		return "warn"
	case ErrorLevelMedium:
		return "medium"
	case ErrorLevelHigh:
		return "high"
	case ErrorLevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int(e))
	}
}

// LogError represents an error that occurred inside the logging
// pipeline. Pipeline failures never propagate to the goroutine that
// logged; they are delivered to the logger's ErrorHandler instead.
type LogError struct {
	Time      time.Time  // When the error occurred
	Logger    string     // The logger the failure belongs to
	Operation string     // The operation that failed: write, flush, format, dispatch
	Sink      string     // The sink involved, if any
	Err       error      // The underlying error
	Level     ErrorLevel // Severity of the failure
}

// Error implements the error interface.
func (e LogError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	if e.Sink != "" {
		b.WriteString(" ")
		b.WriteString(e.Sink)
	}
	if e.Logger != "" {
		b.WriteString(" (logger ")
		b.WriteString(e.Logger)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e LogError) Unwrap() error {
	return e.Err
}

// ErrorHandler defines a function type for handling logger errors.
// Handlers are invoked from worker goroutines and from application
// goroutines running synchronous loggers; they must be safe for
// concurrent use and must not log back into the same pipeline.
type ErrorHandler func(err LogError)

// SilentErrorHandler discards all errors.
var SilentErrorHandler ErrorHandler = func(err LogError) {
	// Do nothing
}

// StderrErrorHandler writes errors to stderr.
var StderrErrorHandler ErrorHandler = func(err LogError) {
	fmt.Fprintf(os.Stderr, "flume: [%s] %s\n", err.Level, err.Error())
}

// defaultErrorHandler keeps test runs quiet and everything else loud.
func defaultErrorHandler() ErrorHandler {
	if isTestMode() {
		return SilentErrorHandler
	}
	return StderrErrorHandler
}

// isTestMode reports whether this binary was built by "go test".
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return false
}
