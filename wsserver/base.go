// File: wsserver/base.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package wsserver

import (
	"errors"
	"net"

	"github.com/momentics/wscore/bufpool"
	"github.com/momentics/wscore/env"
	"github.com/momentics/wscore/queue"
	"github.com/momentics/wscore/reactor"
	"github.com/momentics/wscore/slotpool"
	"github.com/momentics/wscore/worker"
)

// ErrNoProcessor is returned by New when Config.Processor is nil.
var ErrNoProcessor = errors.New("wsserver: Config.Processor must not be nil")

// ErrInetdServe is returned by Serve when Config.InetdMode is set; use
// ServeConn with the single pre-accepted connection instead.
var ErrInetdServe = errors.New("wsserver: Config.InetdMode is set, call ServeConn instead of Serve")

// Base is the assembled runtime: one Reactor goroutine-set, one bounded
// request queue, one bounded response queue, one slot pool, and a
// fixed worker pool. Reactor and Worker are exported so callers that
// need finer control (custom hooks, direct queue inspection) can reach
// past the facade.
type Base struct {
	Env     *env.Environment
	Pool    *slotpool.Pool
	ReqQ    *queue.Queue
	RespQ   *queue.Queue
	Reactor *reactor.Reactor
	Workers *worker.Pool

	cfg Config
}

// New assembles a Base server from cfg. It does not start accepting
// connections; call Serve or ServeConn to run it.
func New(cfg Config) (*Base, error) {
	if cfg.Processor == nil {
		return nil, ErrNoProcessor
	}
	e := env.New(cfg.TraceLevel)
	pool := slotpool.New(cfg.InitialSlotCapacity, cfg.SlotGrowthFactor, cfg.MaxSlotCapacity)
	reqQ := queue.New("request", cfg.QueueCapacity)
	respQ := queue.New("response", cfg.QueueCapacity)

	rx := reactor.New(e, reqQ, respQ, pool)
	rx.ReadTimeout = cfg.ReadTimeout
	rx.OnConnect = cfg.OnConnect
	rx.OnDisconnect = cfg.OnDisconnect
	if cfg.NUMANodes > 0 {
		rx.BufPool = bufpool.NewNUMAPool(cfg.NUMANodes)
	}

	wp := worker.New(e, reqQ, respQ, cfg.NumWorkers, cfg.Processor)

	return &Base{
		Env:     e,
		Pool:    pool,
		ReqQ:    reqQ,
		RespQ:   respQ,
		Reactor: rx,
		Workers: wp,
		cfg:     cfg,
	}, nil
}

// Serve starts the worker pool and blocks running the reactor's accept
// and dispatch loops against ln, until Shutdown is called. On return it
// stops the worker pool.
func (b *Base) Serve(ln net.Listener) error {
	if b.cfg.InetdMode {
		return ErrInetdServe
	}
	b.Workers.Start()
	defer b.Workers.Stop()
	return b.Reactor.Serve(ln)
}

// ServeConn runs the server against a single pre-accepted connection,
// for inetd-style deployment where the listener itself is managed by
// an external supervisor. It blocks until that connection closes.
func (b *Base) ServeConn(nc net.Conn) error {
	b.Workers.Start()
	defer b.Workers.Stop()
	return b.Reactor.ServeOne(nc)
}

// Shutdown stops the reactor, closing every live connection. The worker
// pool is stopped, draining in-flight work, by Serve or ServeConn as
// they return.
func (b *Base) Shutdown() {
	b.Reactor.Shutdown()
}
