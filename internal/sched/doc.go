// Package sched provides the cooperative scheduling primitives the kernel
// is built on: a single kernel lock, condition variables bound to that lock,
// and gated kernel threads backed by goroutines.
//
// # Model
//
// The kernel executes under one big lock. Every system call acquires it on
// entry and releases it on return; blocking points inside the kernel never
// spin, they park on a Cond, which releases the lock while waiting and
// reacquires it before returning. User task code runs with the lock dropped.
//
//	caller goroutine            kernel lock             other threads
//	     │  Lock()  ─────────────────▶│
//	     │  ... mutate tables ...     │
//	     │  cond.Wait() ──────────────┤ released ──────────▶ run
//	     │        (parked)            │◀────────── Signal/Broadcast
//	     │◀───────────────────────────┤ reacquired
//	     │  Unlock() ────────────────▶│
//
// # Threads
//
// Spawn creates a kernel thread in a not-yet-runnable state: the backing
// goroutine exists but is parked on a start gate. Wake releases the gate,
// exactly once, after the creator has finished initializing the structures
// the thread will observe. Exit terminates the calling thread without
// unwinding to its entry function and must be called with the lock dropped.
//
// Cond implements its own waiter queue instead of wrapping sync.Cond because
// the kernel needs a bounded wait (WaitTimeout) for connection timeouts, and
// sync.Cond offers none.
package sched
