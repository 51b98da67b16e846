// File: cmd/wsecho/main.go
// wsecho is a minimal worked example wiring wsserver.Base to an echo
// Processor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/momentics/wscore/env"
	"github.com/momentics/wscore/wsserver"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	workers := flag.Int("workers", 4, "worker pool size")
	trace := flag.Int("trace", int(env.LevelWarn), "trace level 0..3 (debug,info,warn,crit)")
	flag.Parse()

	cfg := wsserver.DefaultConfig()
	cfg.NumWorkers = *workers
	cfg.TraceLevel = env.Level(*trace)
	cfg.Processor = wsserver.ProcessorFunc(func(cid uint32, msg *wsserver.Message) (*wsserver.Message, error) {
		return msg, nil
	})
	cfg.OnConnect = func(cid uint32) { log.Printf("wsecho: connect cid=%d", cid) }
	cfg.OnDisconnect = func(cid uint32) { log.Printf("wsecho: disconnect cid=%d", cid) }

	srv, err := wsserver.New(cfg)
	if err != nil {
		log.Fatalf("wsecho: %v", err)
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("wsecho: listen: %v", err)
	}
	log.Printf("wsecho: listening on %s", ln.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("wsecho: shutting down")
		srv.Shutdown()
	}()

	if err := srv.Serve(ln); err != nil {
		log.Printf("wsecho: serve exited: %v", err)
	}
}
