// File: wsserver/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wsserver

import (
	"time"

	"github.com/momentics/wscore/env"
)

// Config collects every tunable the base server needs to assemble its
// reactor, queues, slot pool and worker pool. DefaultConfig returns one
// with every tunable set; New does not substitute those defaults for
// zero-valued fields.
type Config struct {
	// NumWorkers is the fixed worker-goroutine pool size.
	NumWorkers int

	// ListenBacklog is advisory only: Go's net package does not expose
	// backlog tuning portably, so this is retained for documentation
	// and for callers constructing their own net.ListenConfig.
	ListenBacklog int

	// QueueCapacity bounds both the request and response queues.
	QueueCapacity int

	// InitialSlotCapacity, SlotGrowthFactor and MaxSlotCapacity
	// configure the connection registry (slotpool.Pool).
	InitialSlotCapacity int
	SlotGrowthFactor    int
	MaxSlotCapacity     int

	// ReadTimeout is the per-socket inbound read deadline; 0 disables it.
	ReadTimeout time.Duration

	// TraceLevel selects the ambient logger's verbosity: env.LevelDebug
	// through env.LevelCrit (0..3). Any other value logs at info level.
	TraceLevel env.Level

	// InetdMode, when true, expects a single already-accepted
	// connection via Base.ServeConn instead of a listener via
	// Base.Serve; Base.Serve rejects the call with ErrInetdServe.
	InetdMode bool

	// NUMANodes, when greater than zero, shards the reactor's read
	// buffer pool across this many bufpool.NUMAPool nodes instead of
	// using the shared bufpool.Default pool.
	NUMANodes int

	// Processor handles reassembled inbound messages. Required.
	Processor Processor

	OnConnect    ConnectHook
	OnDisconnect DisconnectHook
}

// DefaultConfig returns a Config with reasonable default tunables: 4
// workers, 128 backlog, 1024-deep queues, a 16-slot initial pool
// doubling up to 65536, a 10s read timeout and warn-level tracing.
func DefaultConfig() Config {
	return Config{
		NumWorkers:          4,
		ListenBacklog:       128,
		QueueCapacity:       1024,
		InitialSlotCapacity: 16,
		SlotGrowthFactor:    2,
		MaxSlotCapacity:     65536,
		ReadTimeout:         10 * time.Second,
		TraceLevel:          env.LevelWarn,
	}
}
