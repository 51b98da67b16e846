// File: env/thread_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build !linux

package env

import "os"

// threadID falls back to the process id on platforms without a cheap
// kernel thread id syscall wired up.
func threadID() int {
	return os.Getpid()
}
