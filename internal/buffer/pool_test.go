package buffer

import (
	"strings"
	"testing"
)

func TestGetReturnsCleanBuffer(t *testing.T) {
	p := NewPool(64)
	buf := p.Get()
	buf.WriteString("leftover")
	p.Put(buf)

	again := p.Get()
	if again.Len() != 0 {
		t.Errorf("pooled buffer not reset, len = %d", again.Len())
	}
}

func TestPutDiscardsOversized(t *testing.T) {
	p := NewPool(64)
	buf := p.Get()
	buf.WriteString(strings.Repeat("x", maxPooledSize+1))
	p.Put(buf)

	got := p.Get()
	if got.Cap() > maxPooledSize {
		t.Errorf("oversized buffer was pooled, cap = %d", got.Cap())
	}
}

func TestPutNil(t *testing.T) {
	p := NewPool(64)
	p.Put(nil)
}

func TestDefaultPool(t *testing.T) {
	buf := Get()
	if buf.Cap() < DefaultCapacity {
		t.Errorf("default buffer cap = %d, want at least %d", buf.Cap(), DefaultCapacity)
	}
	buf.WriteString("hello")
	Put(buf)
}

func TestZeroCapacityFallsBack(t *testing.T) {
	p := NewPool(0)
	buf := p.Get()
	if buf.Cap() != DefaultCapacity {
		t.Errorf("cap = %d, want %d", buf.Cap(), DefaultCapacity)
	}
}
