package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/millrace/flume/pkg/types"
)

// redisTimeout bounds every Redis round trip so a dead server cannot
// wedge a pool worker.
const redisTimeout = 5 * time.Second

// RedisSink appends formatted lines to a Redis list and trims it to a
// maximum length, giving a capped in-memory tail of recent log lines
// that any process can read with LRANGE.
type RedisSink struct {
	mu         sync.Mutex
	client     *redis.Client
	key        string
	maxLen     int64
	ownsClient bool
	closed     bool
	stats      types.SinkStats
}

// NewRedisSink connects to a Redis server and appends to the list at
// key, keeping at most maxLen entries. maxLen <= 0 keeps the list
// unbounded.
func NewRedisSink(addr, key string, maxLen int64) (*RedisSink, error) {
	if key == "" {
		return nil, errors.New("redis sink: key cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return &RedisSink{
		client:     client,
		key:        key,
		maxLen:     maxLen,
		ownsClient: true,
	}, nil
}

// NewRedisSinkWithClient appends over a caller-owned client, which
// Close leaves open.
func NewRedisSinkWithClient(client *redis.Client, key string, maxLen int64) (*RedisSink, error) {
	if client == nil {
		return nil, errors.New("redis sink: client cannot be nil")
	}
	if key == "" {
		return nil, errors.New("redis sink: key cannot be empty")
	}
	return &RedisSink{
		client: client,
		key:    key,
		maxLen: maxLen,
	}, nil
}

// Write appends one log entry to the list and trims the tail.
func (s *RedisSink) Write(entry []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.stats.ErrorCount++
		return 0, errors.Errorf("sink %s is closed", s.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.RPush(ctx, s.key, entry).Err(); err != nil {
		s.stats.ErrorCount++
		return 0, errors.Wrap(err, "rpush")
	}

	if s.maxLen > 0 {
		if err := s.client.LTrim(ctx, s.key, -s.maxLen, -1).Err(); err != nil {
			s.stats.ErrorCount++
			return 0, errors.Wrap(err, "ltrim")
		}
	}

	s.stats.WriteCount++
	s.stats.BytesWritten += uint64(len(entry))
	s.stats.LastWrite = time.Now()
	return len(entry), nil
}

// Flush is a no-op; every write is committed on return.
func (s *RedisSink) Flush() error {
	return nil
}

// Close releases the client if the sink made it.
func (s *RedisSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

// Name identifies the sink in error reports.
func (s *RedisSink) Name() string {
	return "redis://" + s.key
}

// Stats returns write statistics.
func (s *RedisSink) Stats() types.SinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
