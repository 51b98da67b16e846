// File: bufpool/numa_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux NUMA-aware buffer pool variant: shards the default Pool across
// NUMA nodes using the calling goroutine's current CPU/node, queried via
// golang.org/x/sys/unix.Getcpu rather than a CGO+libnuma allocator.

//go:build linux

package bufpool

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// NUMAPool shards a Pool per NUMA node, reducing cross-node contention
// for workers pinned (or naturally scheduled) on distinct nodes.
type NUMAPool struct {
	shards []*Pool
	rr     uint64
}

// NewNUMAPool builds a NUMAPool with one Pool shard per node, where
// nodeCount is typically derived from the topology the caller already
// knows (e.g. from an affinity/config layer); callers unsure of node
// count should pass 1.
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

// shardFor picks the node-local shard for the calling goroutine's
// current CPU, falling back to round-robin if the getcpu syscall fails
// (e.g. inside restrictive sandboxes).
func (n *NUMAPool) shardFor() *Pool {
	if len(n.shards) == 1 {
		return n.shards[0]
	}
	var cpu, node uint32
	if err := unix.Getcpu(&cpu, &node); err == nil && int(node) < len(n.shards) {
		return n.shards[node]
	}
	idx := atomic.AddUint64(&n.rr, 1) % uint64(len(n.shards))
	return n.shards[idx]
}

// Get returns a buffer of at least n bytes from the node-local shard.
func (n *NUMAPool) Get(size int) []byte { return n.shardFor().Get(size) }

// Put returns buf to the node-local shard. Pool shards are fungible
// (each holds plain heap-backed slices), so returning to a different
// shard than Get used is safe, only suboptimal.
func (n *NUMAPool) Put(buf []byte) { n.shardFor().Put(buf) }

// Stats aggregates counters across all shards.
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
