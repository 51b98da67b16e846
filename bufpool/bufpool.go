// File: bufpool/bufpool.go
// Package bufpool implements the pooled byte-slice reuse (C11) backing
// the reactor's per-read scratch buffers. See numa_linux.go /
// numa_other.go for the NUMA-sharded variant.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package bufpool

import "sync"

// ByteGetPutter is the shape both Pool and NUMAPool satisfy, letting a
// Reactor accept either without depending on the concrete type.
type ByteGetPutter interface {
	Get(n int) []byte
	Put(buf []byte)
}

// sizeClasses buckets requested sizes into a fixed set of classes to
// bound sync.Pool fragmentation.
var sizeClasses = [...]int{64, 256, 1024, 4096, 16384, 65536, 262144}

// Pool hands out []byte buffers sized to the nearest class at or above
// the request, and returns them to a per-class sync.Pool on Put.
type Pool struct {
	classes []*sync.Pool

	mu      sync.Mutex
	alloc   int64
	free    int64
	inUse   int64
}

// New constructs a Pool with the default size classes.
func New() *Pool {
	p := &Pool{classes: make([]*sync.Pool, len(sizeClasses))}
	for i, sz := range sizeClasses {
		size := sz
		p.classes[i] = &sync.Pool{New: func() any {
			b := make([]byte, size)
			return &b
		}}
	}
	return p
}

// Stats summarizes cumulative pool usage.
type Stats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
}

func classFor(n int) int {
	for i, sz := range sizeClasses {
		if n <= sz {
			return i
		}
	}
	return -1
}

// Get returns a buffer of at least n bytes, length-truncated to n. Oversized
// requests bypass the pool entirely and allocate directly.
func (p *Pool) Get(n int) []byte {
	idx := classFor(n)
	if idx < 0 {
		p.mu.Lock()
		p.alloc++
		p.inUse++
		p.mu.Unlock()
		return make([]byte, n)
	}
	bp := p.classes[idx].Get().(*[]byte)
	p.mu.Lock()
	p.alloc++
	p.inUse++
	p.mu.Unlock()
	return (*bp)[:n]
}

// Put returns buf to its size class pool. Buffers from oversized
// allocations (not matching any class capacity) are simply dropped.
func (p *Pool) Put(buf []byte) {
	c := cap(buf)
	idx := -1
	for i, sz := range sizeClasses {
		if c == sz {
			idx = i
			break
		}
	}
	p.mu.Lock()
	p.free++
	p.inUse--
	p.mu.Unlock()
	if idx < 0 {
		return
	}
	full := buf[:cap(buf)]
	p.classes[idx].Put(&full)
}

// Stats returns a point-in-time snapshot of allocation counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{TotalAlloc: p.alloc, TotalFree: p.free, InUse: p.inUse}
}

// Default is a package-level pool shared by callers that do not need
// per-reactor isolation.
var Default = New()

var _ ByteGetPutter = (*Pool)(nil)
