package sched

// Thread is a kernel thread: a goroutine parked on a start gate until its
// creator wakes it. The gate guarantees the entry function never observes
// the structures of a half-initialized creator.
type Thread struct {
	gate chan struct{}
}

// Spawn creates a kernel thread that will run entry once woken. The thread
// is not runnable until Wake is called.
func (r *Runtime) Spawn(entry func()) *Thread {
	t := &Thread{gate: make(chan struct{})}
	go func() {
		<-t.gate
		entry()
	}()
	return t
}

// Wake makes the thread runnable. It must be called exactly once.
func (t *Thread) Wake() {
	close(t.gate)
}
