// File: bufpool/numa_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build !linux

package bufpool

import "sync/atomic"

// NUMAPool on non-Linux platforms degrades to plain round-robin
// sharding: there is no portable getcpu/getnode syscall wrapped by
// golang.org/x/sys outside Linux, so node affinity is unavailable.
type NUMAPool struct {
	shards []*Pool
	rr     uint64
}

func NewNUMAPool(nodeCount int) *NUMAPool {
	if nodeCount < 1 {
		nodeCount = 1
	}
	shards := make([]*Pool, nodeCount)
	for i := range shards {
		shards[i] = New()
	}
	return &NUMAPool{shards: shards}
}

func (n *NUMAPool) shardFor() *Pool {
	idx := atomic.AddUint64(&n.rr, 1) % uint64(len(n.shards))
	return n.shards[idx]
}

func (n *NUMAPool) Get(size int) []byte { return n.shardFor().Get(size) }
func (n *NUMAPool) Put(buf []byte)      { n.shardFor().Put(buf) }

func (n *NUMAPool) Stats() Stats {
	var total Stats
	for _, s := range n.shards {
		st := s.Stats()
		total.TotalAlloc += st.TotalAlloc
		total.TotalFree += st.TotalFree
		total.InUse += st.InUse
	}
	return total
}

var _ ByteGetPutter = (*NUMAPool)(nil)
