// File: env/thread_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build linux

package env

import "golang.org/x/sys/unix"

// threadID returns the kernel thread id backing the calling goroutine's
// current OS thread, for the trace line's tid= field. Go does not pin
// goroutines to OS threads, so this is only a best-effort diagnostic
// correlation key, not a scheduling primitive.
func threadID() int {
	return unix.Gettid()
}
