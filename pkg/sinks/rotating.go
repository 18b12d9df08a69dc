package sinks

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/millrace/flume/pkg/types"
)

// RotationConfig controls size-based rotation of a log file.
type RotationConfig struct {
	MaxSizeMB  int  // Rotate after the file exceeds this many megabytes
	MaxBackups int  // Rotated files to keep, 0 keeps all
	MaxAgeDays int  // Days to keep rotated files, 0 keeps forever
	Compress   bool // Gzip rotated files
}

// DefaultRotationConfig keeps files under 100 MB with three
// compressed backups for a week.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// RotatingFileSink appends to a file and rotates it by size,
// delegating the rotation mechanics to lumberjack. Unlike FileSink it
// takes no cross-process lock; lumberjack assumes one process owns
// the file.
type RotatingFileSink struct {
	mu     sync.Mutex
	lj     *lumberjack.Logger
	path   string
	closed bool
	stats  types.SinkStats
}

// NewRotatingFileSink opens path for appending with the given
// rotation settings, creating parent directories as needed.
func NewRotatingFileSink(path string, cfg RotationConfig) (*RotatingFileSink, error) {
	if path == "" {
		return nil, errors.New("rotating sink: path cannot be empty")
	}
	if cfg.MaxSizeMB <= 0 {
		return nil, errors.Errorf("rotating sink: max size %d MB", cfg.MaxSizeMB)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create directory")
	}

	return &RotatingFileSink{
		lj: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,  // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   cfg.Compress,
		},
		path: path,
	}, nil
}

// Write appends one formatted log line, rotating first if the line
// would push the file over its size limit.
func (s *RotatingFileSink) Write(entry []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.stats.ErrorCount++
		return 0, errors.Errorf("sink %s is closed", s.path)
	}

	n, err := s.lj.Write(entry)
	if err != nil {
		s.stats.ErrorCount++
		return n, err
	}

	s.stats.WriteCount++
	s.stats.BytesWritten += uint64(n)
	s.stats.LastWrite = time.Now()
	return n, nil
}

// Flush is a no-op; lumberjack writes through to the file.
func (s *RotatingFileSink) Flush() error {
	return nil
}

// Rotate forces a rotation regardless of size.
func (s *RotatingFileSink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.Errorf("sink %s is closed", s.path)
	}
	return s.lj.Rotate()
}

// Close closes the current log file.
func (s *RotatingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.lj.Close()
}

// Name identifies the sink in error reports.
func (s *RotatingFileSink) Name() string {
	return s.path
}

// Stats returns write statistics.
func (s *RotatingFileSink) Stats() types.SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
