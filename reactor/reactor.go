// File: reactor/reactor.go
// Package reactor implements the single-threaded I/O event loop (C7):
// accept, read, write, close, dispatching bytes into the connection
// state machine (C6) and draining the response queue.
//
// Each connection gets one dedicated reader goroutine whose only job is
// blocking Read and forwarding raw bytes into the reactor's single
// dispatch loop; Go's net package already multiplexes socket readiness
// through the runtime netpoller, so there is no separate epoll/IOCP
// readiness-polling step. The socket state, connection state machine,
// slot pool, and all writes stay touched by exactly one goroutine: the
// dispatch loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package reactor

import (
	"io"
	"net"
	"time"

	"github.com/momentics/wscore/bufpool"
	"github.com/momentics/wscore/connection"
	"github.com/momentics/wscore/env"
	"github.com/momentics/wscore/queue"
	"github.com/momentics/wscore/slotpool"
	"github.com/momentics/wscore/workitem"
)

// DefaultReadTimeout is the per-socket inbound read deadline applied
// before each Read call.
const DefaultReadTimeout = 10 * time.Second

// readBufSize is the size requested from BufPool for each readerLoop
// iteration; bufpool has no 32KB class, so it lands in the 64KB one.
const readBufSize = 32 * 1024

type eventKind int

const (
	evAccept eventKind = iota
	evRead
	evReadErr
	evResponseReady
)

type event struct {
	kind    eventKind
	cid     uint32
	nc      net.Conn
	data    []byte
	err     error
	respItm workitem.ResponseItem
}

type connState struct {
	nc   net.Conn
	conn *connection.Conn
}

// Reactor owns every socket handle and the connection registry. Its
// Serve method blocks until Shutdown is called.
type Reactor struct {
	Env *env.Environment

	RequestQueue  *queue.Queue
	ResponseQueue *queue.Queue
	Pool          *slotpool.Pool

	ReadTimeout time.Duration

	// BufPool supplies the scratch buffers readerLoop reads into. New
	// defaults it to bufpool.Default; callers wanting NUMA-local
	// sharding can replace it with a bufpool.NUMAPool before Serve.
	BufPool bufpool.ByteGetPutter

	OnConnect    workitem.ConnectHook
	OnDisconnect workitem.DisconnectHook

	inbox    chan event
	quit     chan struct{}
	done     chan struct{}
	conns    map[uint32]*connState
	listener net.Listener
}

// New constructs a Reactor. The caller supplies the request/response
// queues and slot pool so higher layers (wsserver.Base) can own their
// lifecycle and shut them down independently of Reactor.Run returning.
func New(e *env.Environment, reqQ, respQ *queue.Queue, pool *slotpool.Pool) *Reactor {
	return &Reactor{
		Env:           e,
		RequestQueue:  reqQ,
		ResponseQueue: respQ,
		Pool:          pool,
		ReadTimeout:   DefaultReadTimeout,
		BufPool:       bufpool.Default,
		inbox:         make(chan event, 256),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		conns:         make(map[uint32]*connState),
	}
}

// Serve runs the accept loop and the single dispatch loop until
// Shutdown is called. It blocks. If Accept fails, the accept loop stops
// taking new connections but the dispatch loop keeps serving the
// existing ones until Shutdown.
func (r *Reactor) Serve(ln net.Listener) error {
	r.listener = ln
	go r.responseDrainLoop()
	go r.acceptLoop(ln)
	return r.dispatchLoop()
}

// ServeOne runs the reactor against a single pre-accepted connection
// (inetd mode): once that connection closes, the reactor stops.
func (r *Reactor) ServeOne(nc net.Conn) error {
	go r.responseDrainLoop()
	r.inbox <- event{kind: evAccept, nc: nc}
	go func() {
		<-r.done
	}()
	return r.dispatchLoop()
}

// Shutdown stops the reactor: closes every live connection and returns
// once the dispatch loop has exited. Idempotent.
func (r *Reactor) Shutdown() {
	select {
	case <-r.quit:
		return
	default:
		close(r.quit)
	}
	if r.listener != nil {
		r.listener.Close()
	}
	<-r.done
}

func (r *Reactor) acceptLoop(ln net.Listener) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-r.quit:
				return
			default:
			}
			r.Env.Tracef("reactor: accept error: %v", err)
			return
		}
		select {
		case r.inbox <- event{kind: evAccept, nc: nc}:
		case <-r.quit:
			nc.Close()
			return
		}
	}
}

func (r *Reactor) readerLoop(cid uint32, nc net.Conn) {
	for {
		buf := r.BufPool.Get(readBufSize)
		if r.ReadTimeout > 0 {
			nc.SetReadDeadline(time.Now().Add(r.ReadTimeout))
		}
		n, err := nc.Read(buf)
		if n > 0 {
			// Copy the bytes out first: Feed runs later on the dispatch
			// goroutine, so the pooled slice can only go back right away
			// because the event carries its own copy.
			data := append([]byte(nil), buf[:n]...)
			r.BufPool.Put(buf)
			select {
			case r.inbox <- event{kind: evRead, cid: cid, data: data}:
			case <-r.quit:
				return
			}
		} else {
			r.BufPool.Put(buf)
		}
		if err != nil {
			select {
			case r.inbox <- event{kind: evReadErr, cid: cid, err: err}:
			case <-r.quit:
			}
			return
		}
	}
}

func (r *Reactor) responseDrainLoop() {
	for {
		item, ok := r.ResponseQueue.Pop()
		if !ok {
			return
		}
		resp := item.(workitem.ResponseItem)
		select {
		case r.inbox <- event{kind: evResponseReady, respItm: resp}:
		case <-r.quit:
			return
		}
	}
}

func (r *Reactor) dispatchLoop() {
	defer close(r.done)
	for {
		select {
		case ev := <-r.inbox:
			r.handle(ev)
		case <-r.quit:
			r.closeAll()
			return
		}
		if len(r.conns) == 0 && r.listener == nil {
			// inetd mode: the single connection closed, stop the loop.
			return
		}
	}
}

func (r *Reactor) handle(ev event) {
	switch ev.kind {
	case evAccept:
		r.handleAccept(ev.nc)
	case evRead:
		r.handleRead(ev.cid, ev.data)
	case evReadErr:
		r.handleClose(ev.cid)
	case evResponseReady:
		r.handleResponse(ev.respItm)
	}
}

func (r *Reactor) handleAccept(nc net.Conn) {
	cs := &connState{nc: nc}
	cid, err := r.Pool.Set(cs)
	if err != nil {
		r.Env.Tracef("reactor: slot pool exhausted, dropping connection: %v", err)
		nc.Close()
		return
	}
	cs.conn = connection.New(cid, r.Env)
	r.conns[cid] = cs
	if r.OnConnect != nil {
		r.OnConnect(cid)
	}
	go r.readerLoop(cid, nc)
}

func (r *Reactor) handleRead(cid uint32, data []byte) {
	cs, ok := r.conns[cid]
	if !ok {
		return
	}
	result := cs.conn.Feed(data)
	for _, out := range result.Outbound {
		if _, err := cs.nc.Write(out); err != nil {
			r.handleClose(cid)
			return
		}
	}
	for _, msg := range result.Messages {
		r.RequestQueue.Push(workitem.RequestItem{CID: cid, Msg: msg})
	}
	if result.Err != nil || result.CloseAfterOutbound {
		r.handleClose(cid)
	}
}

func (r *Reactor) handleResponse(item workitem.ResponseItem) {
	cs, ok := r.conns[item.CID]
	if !ok {
		return // connection is gone; item is simply discarded
	}
	if len(item.Data) > 0 {
		if _, err := cs.nc.Write(item.Data); err != nil {
			r.handleClose(item.CID)
			return
		}
	}
	if item.Flags&workitem.FlagClose != 0 {
		r.handleClose(item.CID)
	}
}

func (r *Reactor) handleClose(cid uint32) {
	cs, ok := r.conns[cid]
	if !ok {
		return
	}
	delete(r.conns, cid)
	r.Pool.Remove(cid)
	cs.nc.Close()
	if r.OnDisconnect != nil {
		r.OnDisconnect(cid)
	}
}

func (r *Reactor) closeAll() {
	for cid, cs := range r.conns {
		cs.nc.Close()
		r.Pool.Remove(cid)
		if r.OnDisconnect != nil {
			r.OnDisconnect(cid)
		}
	}
	r.conns = map[uint32]*connState{}
}

var _ io.Closer = (*Reactor)(nil)

// Close implements io.Closer by calling Shutdown.
func (r *Reactor) Close() error {
	r.Shutdown()
	return nil
}
