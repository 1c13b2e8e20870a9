package sched

import (
	"runtime"
	"sync"
	"time"
)

// Runtime owns the kernel lock. One Runtime backs one kernel instance, so
// independent kernels (as in tests) never contend with each other.
type Runtime struct {
	mu sync.Mutex
}

// NewRuntime creates an unlocked runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Lock acquires the kernel lock.
func (r *Runtime) Lock() { r.mu.Lock() }

// Unlock releases the kernel lock.
func (r *Runtime) Unlock() { r.mu.Unlock() }

// Yield drops the kernel lock, offers the processor to other goroutines and
// reacquires the lock. It is a scheduling point for long kernel sections.
func (r *Runtime) Yield() {
	r.mu.Unlock()
	runtime.Gosched()
	r.mu.Lock()
}

// Sleep drops the kernel lock for at least d and reacquires it.
func (r *Runtime) Sleep(d time.Duration) {
	r.mu.Unlock()
	time.Sleep(d)
	r.mu.Lock()
}

// Exit terminates the calling kernel thread immediately. Deferred calls on
// its stack still run. The caller must not hold the kernel lock.
func Exit() {
	runtime.Goexit()
}
