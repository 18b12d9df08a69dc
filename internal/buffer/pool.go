// Package buffer recycles the byte buffers used to render log
// messages, keeping allocation pressure off the hot logging path.
package buffer

import (
	"bytes"
	"sync"
)

const (
	// DefaultCapacity is the initial capacity of pooled buffers,
	// sized for a typical log line.
	DefaultCapacity = 512

	// maxPooledSize bounds what goes back into the pool; buffers
	// grown beyond it are dropped so one huge message cannot pin
	// memory for the life of the process.
	maxPooledSize = 32 * 1024
)

// Pool hands out reusable byte buffers.
type Pool struct {
	pool sync.Pool
}

// NewPool creates a pool whose buffers start at capacity bytes.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{}
	p.pool.New = func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, capacity))
	}
	return p
}

// Get returns an empty buffer ready for use. Return it with Put.
func (p *Pool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool. Oversized buffers are discarded.
func (p *Pool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledSize {
		return
	}
	p.pool.Put(buf)
}

var defaultPool = NewPool(DefaultCapacity)

// Get returns a buffer from the shared default pool.
func Get() *bytes.Buffer {
	return defaultPool.Get()
}

// Put returns a buffer to the shared default pool.
func Put(buf *bytes.Buffer) {
	defaultPool.Put(buf)
}
