package sched

import "time"

// Cond is a condition variable bound to its runtime's kernel lock. Waiters
// queue in FIFO order; Signal wakes the oldest. Unlike sync.Cond it supports
// a bounded wait, which the kernel needs for connection timeouts.
//
// All methods must be called with the kernel lock held.
type Cond struct {
	rt      *Runtime
	waiters []chan struct{}
}

// NewCond creates a condition variable using the runtime's kernel lock.
func (r *Runtime) NewCond() *Cond {
	return &Cond{rt: r}
}

// Wait releases the kernel lock, blocks until the waiter is signaled and
// reacquires the lock before returning. As with every condition variable the
// awaited predicate must be rechecked in a loop.
func (c *Cond) Wait() {
	ch := make(chan struct{}, 1)
	c.waiters = append(c.waiters, ch)
	c.rt.mu.Unlock()
	<-ch
	c.rt.mu.Lock()
}

// WaitTimeout behaves like Wait but gives up after d. It reports whether the
// waiter was signaled; false means the timeout expired first. A non-positive
// d waits without bound.
func (c *Cond) WaitTimeout(d time.Duration) bool {
	if d <= 0 {
		c.Wait()
		return true
	}
	ch := make(chan struct{}, 1)
	c.waiters = append(c.waiters, ch)
	c.rt.mu.Unlock()

	timer := time.NewTimer(d)
	signaled := false
	select {
	case <-ch:
		signaled = true
	case <-timer.C:
	}
	timer.Stop()

	c.rt.mu.Lock()
	if !signaled {
		// A signal may have picked this waiter between the timer firing
		// and the lock being reacquired. Consuming it here keeps the
		// wakeup from being lost.
		if c.remove(ch) {
			return false
		}
		select {
		case <-ch:
		default:
		}
		signaled = true
	}
	return signaled
}

// Signal wakes the oldest waiter, if any.
func (c *Cond) Signal() {
	if len(c.waiters) == 0 {
		return
	}
	ch := c.waiters[0]
	c.waiters = c.waiters[1:]
	ch <- struct{}{}
}

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() {
	for _, ch := range c.waiters {
		ch <- struct{}{}
	}
	c.waiters = nil
}

// remove unqueues the waiter channel. It reports whether the channel was
// still queued; false means a signal already claimed it.
func (c *Cond) remove(ch chan struct{}) bool {
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
