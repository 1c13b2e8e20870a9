// Package kernel implements the process, thread and IPC core of the tinyos
// teaching kernel: the process table and tree, the thread-control (PTCB)
// layer, the stream registry with per-process descriptor tables, bounded
// pipes, stream sockets built on top of pipes, and the process-info stream.
//
// # Model
//
// A Kernel is a self-contained instance: its process table, port table and
// stream accounting are local to it, so tests can boot many kernels side by
// side. All kernel state is guarded by the single lock of the kernel's
// sched.Runtime. Every system call acquires that lock on entry; blocking
// calls (pipe I/O, join, wait-for-child, accept, connect) park on a
// sched.Cond, which releases the lock while suspended.
//
// User code runs as tasks. A Task receives a *Sys handle bound to its thread;
// the handle carries the current-process and current-thread lookup and
// exposes the system-call surface:
//
//	task := func(sys *kernel.Sys, args []byte) int {
//		r, w, _ := sys.Pipe()
//		...
//		return 0
//	}
//	k, _ := kernel.New(config.Default(), logger)
//	status, _ := k.Run(task, nil)
//
// Boot installs the two bootstrap slots: pid 0, an idle slot that owns no
// thread and stays alive forever, and pid 1, the init process running the
// supplied task. Orphaned processes are re-parented to init, and init reaps
// every remaining child before it exits, so Run returning means the kernel
// is quiescent.
//
// # Ownership
//
// Streams are reference counted. An open descriptor-table slot owns one
// reference to its file control block; Exec duplicates the parent's open
// descriptors into the child, taking one more reference each. A control
// block's stream is closed exactly once, when the last reference drops.
// Sockets carry their own count so that a blocked Accept or Connect can keep
// a control block alive across a concurrent Close, and thread handles count
// their joiners so a handle is freed only when no one can still observe it.
package kernel
