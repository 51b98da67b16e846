// File: worker/pool.go
// Package worker implements the fixed-size worker-goroutine pool (C8):
// N goroutines pop RequestItems from the request queue, invoke the
// application Processor, and push any reply onto the response queue.
//
// A fixed worker count and an explicit Stop that halts the source
// queue before returning is the same shape as executor.Executor in
// internal/concurrency/executor.go (fixed-size worker goroutines
// draining a shared queue.Queue, closed to signal shutdown); this adds
// a sync.WaitGroup so Stop can actually wait for in-flight items to
// finish instead of returning as soon as the queue is closed.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package worker

import (
	"errors"
	"sync"

	"github.com/momentics/wscore/env"
	"github.com/momentics/wscore/queue"
	"github.com/momentics/wscore/wsproto"
	"github.com/momentics/wscore/workitem"
)

// Pool runs Count goroutines, each pulling RequestItems from In and
// pushing ResponseItems (built from the Processor's reply) onto Out.
type Pool struct {
	Env   *env.Environment
	In    *queue.Queue
	Out   *queue.Queue
	Count int
	Proc  workitem.Processor

	wg sync.WaitGroup
}

// New constructs a Pool. count is clamped to at least 1.
func New(e *env.Environment, in, out *queue.Queue, count int, proc workitem.Processor) *Pool {
	if count < 1 {
		count = 1
	}
	return &Pool{Env: e, In: in, Out: out, Count: count, Proc: proc}
}

// Start launches the worker goroutines. It returns immediately.
func (p *Pool) Start() {
	for i := 0; i < p.Count; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Stop halts the input queue (waking every blocked Pop) and waits for
// the workers to process every item still queued and exit, then marks
// the input queue Halted.
func (p *Pool) Stop() {
	p.In.Halt()
	p.wg.Wait()
	p.In.MarkHalted()
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for {
		item, ok := p.In.Pop()
		if !ok {
			return
		}
		req := item.(workitem.RequestItem)
		p.process(req)
	}
}

func (p *Pool) process(req workitem.RequestItem) {
	reply, err := p.Proc.Process(req.CID, req.Msg)
	if err != nil {
		p.Env.Tracef("worker: processor error for cid=%d: %v", req.CID, err)
		code := wsproto.CloseInternalError
		var ce *workitem.CloseError
		if errors.As(err, &ce) {
			code = ce.Code
		}
		frame, encErr := wsproto.Encode(&wsproto.Frame{
			Fin:     true,
			Opcode:  wsproto.OpClose,
			Payload: wsproto.ClosePayload(code, ""),
		}, wsproto.RoleServer)
		if encErr == nil {
			p.Out.Push(workitem.ResponseItem{CID: req.CID, Data: frame, Flags: workitem.FlagClose})
		} else {
			p.Out.Push(workitem.ResponseItem{CID: req.CID, Flags: workitem.FlagClose})
		}
		return
	}
	if reply == nil {
		return
	}
	frame, err := wsproto.Encode(&wsproto.Frame{Fin: true, Opcode: reply.Opcode, Payload: reply.Payload}, wsproto.RoleServer)
	if err != nil {
		p.Env.Tracef("worker: encode reply for cid=%d: %v", req.CID, err)
		return
	}
	p.Out.Push(workitem.ResponseItem{CID: req.CID, Data: frame})
}
