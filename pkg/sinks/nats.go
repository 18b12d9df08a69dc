package sinks

import (
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"github.com/millrace/flume/pkg/types"
)

// NATSSink publishes each formatted line as one NATS message on a
// fixed subject. Subscribers see log lines in publish order per
// connection.
type NATSSink struct {
	mu       sync.Mutex
	conn     *nats.Conn
	subject  string
	ownsConn bool
	closed   bool
	stats    types.SinkStats
}

// NewNATSSink connects to a NATS server and publishes to subject.
// The connection reconnects indefinitely; extra options are applied
// after the defaults and may override them.
func NewNATSSink(url, subject string, opts ...nats.Option) (*NATSSink, error) {
	if subject == "" {
		return nil, errors.New("nats sink: subject cannot be empty")
	}

	options := []nats.Option{
		nats.Name("flume"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	options = append(options, opts...)

	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}

	return &NATSSink{
		conn:     conn,
		subject:  subject,
		ownsConn: true,
	}, nil
}

// NewNATSSinkWithConn publishes over a caller-owned connection, which
// Close leaves open.
func NewNATSSinkWithConn(conn *nats.Conn, subject string) (*NATSSink, error) {
	if conn == nil {
		return nil, errors.New("nats sink: connection cannot be nil")
	}
	if subject == "" {
		return nil, errors.New("nats sink: subject cannot be empty")
	}
	return &NATSSink{
		conn:    conn,
		subject: subject,
	}, nil
}

// Write publishes one log entry.
func (s *NATSSink) Write(entry []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.stats.ErrorCount++
		return 0, errors.Errorf("sink %s is closed", s.Name())
	}

	if err := s.conn.Publish(s.subject, entry); err != nil {
		s.stats.ErrorCount++
		return 0, errors.Wrap(err, "publish")
	}

	s.stats.WriteCount++
	s.stats.BytesWritten += uint64(len(entry))
	s.stats.LastWrite = time.Now()
	return len(entry), nil
}

// Flush waits until published messages have been processed by the
// server.
func (s *NATSSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	return s.conn.Flush()
}

// Close flushes and, if the sink made the connection, closes it.
func (s *NATSSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if !s.ownsConn {
		return nil
	}

	err := s.conn.Flush()
	s.conn.Close()
	return errors.Wrap(err, "flush on close")
}

// Name identifies the sink in error reports.
func (s *NATSSink) Name() string {
	return "nats://" + s.subject
}

// Stats returns write statistics.
func (s *NATSSink) Stats() types.SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
