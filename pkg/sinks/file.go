package sinks

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/millrace/flume/pkg/types"
)

// DefaultBufferSize for buffered file writes.
const DefaultBufferSize = 32 * 1024 // 32 KB

// FileSink appends formatted lines to a file through a buffered
// writer. An flock advisory lock is held around each write so
// multiple processes can share one log file without interleaving
// entries. The mutex serializes the pool's workers within this
// process; the flock serializes processes.
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	lock   *flock.Flock
	path   string
	size   int64
	closed bool
	stats  types.SinkStats
}

// NewFileSink opens path for appending, creating parent directories
// as needed.
func NewFileSink(path string) (*FileSink, error) {
	dir := filepath.Dir(path)
	// #nosec G301 - log directories need to be accessible by other processes
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create directory")
	}

	// Clean the path to prevent directory traversal
	cleanPath := filepath.Clean(path)

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) // #nosec G302 - log files need to be readable
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "stat file")
	}

	return &FileSink{
		file:   file,
		writer: bufio.NewWriterSize(file, DefaultBufferSize),
		lock:   flock.New(cleanPath),
		path:   cleanPath,
		size:   info.Size(),
	}, nil
}

// Write appends one formatted log line under the file lock.
func (s *FileSink) Write(entry []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.stats.ErrorCount++
		return 0, errors.Errorf("sink %s is closed", s.path)
	}

	if err := s.lock.Lock(); err != nil {
		s.stats.ErrorCount++
		return 0, errors.Wrap(err, "acquire lock")
	}
	defer func() {
		_ = s.lock.Unlock()
	}()

	n, err := s.writer.Write(entry)
	if err != nil {
		s.stats.ErrorCount++
		return n, err
	}

	s.size += int64(n)
	s.stats.WriteCount++
	s.stats.BytesWritten += uint64(n)
	s.stats.LastWrite = time.Now()
	return n, nil
}

// Flush writes buffered data down to the file.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.writer == nil {
		return nil
	}
	return s.writer.Flush()
}

// Sync flushes and forces the file contents to stable storage.
func (s *FileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close flushes, releases the lock, and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error

	if err := s.writer.Flush(); err != nil {
		errs = append(errs, errors.Wrap(err, "flush"))
	}

	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil {
			errs = append(errs, errors.Wrap(err, "unlock"))
		}
	}

	if err := s.file.Close(); err != nil {
		errs = append(errs, errors.Wrap(err, "close file"))
	}

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}

// Name identifies the sink in error reports.
func (s *FileSink) Name() string {
	return s.path
}

// Path returns the cleaned file path.
func (s *FileSink) Path() string {
	return s.path
}

// Size returns the current file size including buffered bytes.
func (s *FileSink) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Stats returns write statistics.
func (s *FileSink) Stats() types.SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
