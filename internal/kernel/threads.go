package kernel

import (
	"github.com/akislouk/operating-systems-project/internal/sched"
)

// Tid names a thread handle. Tids are unique within one kernel for its
// whole lifetime; they are never reused.
type Tid int

// NoThread is the sentinel id returned by failed thread calls.
const NoThread Tid = -1

// ptcb is a thread handle: the kernel-side object layered over the raw
// sched.Thread. The pairing with the sched.Thread is set once, at spawn,
// and never changes. A handle leaves its process's thread map when it has
// exited and no joiner still holds a reference, or when its process is
// reaped.
type ptcb struct {
	tid    Tid
	thread *sched.Thread

	task Task
	args []byte

	exited   bool
	detached bool
	exitval  int

	// refcount counts blocked joiners. The last joiner to wake on an
	// exited handle removes it; an exiting detached handle with no
	// joiners removes itself.
	refcount int
	exitCond *sched.Cond
}

// newPTCB allocates a handle with a fresh tid. Lock held.
func (k *Kernel) newPTCB(task Task, args []byte) *ptcb {
	t := &ptcb{
		tid:      k.nextTid,
		task:     task,
		args:     args,
		exitCond: k.rt.NewCond(),
	}
	k.nextTid++
	return t
}

// taskMain is the entry trampoline of every kernel thread. It runs with
// the kernel lock released, calls the task and turns its return value into
// the matching exit call: Exit for a process's root thread, ThreadExit for
// any other. Neither returns.
func (k *Kernel) taskMain(p *pcb, t *ptcb) func() {
	return func() {
		sys := &Sys{k: k, p: p, t: t}
		status := t.task(sys, t.args)
		if t == p.main {
			sys.Exit(status)
		} else {
			sys.ThreadExit(status)
		}
	}
}

// createThread adds a thread to cur running task. The handle is registered
// and counted before the thread is made runnable. Lock held.
func (k *Kernel) createThread(cur *pcb, task Task, args []byte) (Tid, error) {
	if task == nil {
		return NoThread, ErrNilTask
	}
	var argCopy []byte
	if len(args) > 0 {
		argCopy = append([]byte(nil), args...)
	}
	t := k.newPTCB(task, argCopy)
	t.thread = k.rt.Spawn(k.taskMain(cur, t))
	cur.threads[t.tid] = t
	cur.threadCount++
	t.thread.Wake()
	k.procLog.Debug("spawn pid=%d tid=%d", cur.pid, t.tid)
	return t.tid, nil
}

// joinThread blocks self until the target exits or is detached. Joining an
// exited thread succeeds immediately with its exit value. The last joiner
// off an exited handle frees it. Lock held.
func (k *Kernel) joinThread(cur *pcb, self *ptcb, tid Tid) (int, error) {
	t, ok := cur.threads[tid]
	if !ok {
		return 0, ErrNoThread
	}
	if t == self {
		return 0, ErrSelfJoin
	}
	if t.detached {
		return 0, ErrDetached
	}

	t.refcount++
	for !t.exited && !t.detached {
		t.exitCond.Wait()
	}
	t.refcount--

	// Whatever the outcome, an exited handle with no joiners left is gone.
	if t.exited && t.refcount == 0 {
		delete(cur.threads, tid)
	}
	if t.detached {
		return 0, ErrDetached
	}
	return t.exitval, nil
}

// detachThread marks the target detached and wakes its joiners, who then
// observe the detach and fail. Lock held.
func (k *Kernel) detachThread(cur *pcb, tid Tid) error {
	t, ok := cur.threads[tid]
	if !ok {
		return ErrNoThread
	}
	if t.exited {
		return ErrExited
	}
	t.detached = true
	t.exitCond.Broadcast()
	return nil
}

// threadExit terminates the calling thread. When it is the last thread of
// its process the process itself exits: children are re-parented to init,
// open descriptors are released and the slot turns zombie for the parent
// to reap. The function releases the kernel lock and never returns. Lock
// held on entry.
func (k *Kernel) threadExit(cur *pcb, t *ptcb, code int) {
	cur.threadCount--

	if cur.threadCount == 0 {
		k.exitProcess(cur)
	}

	t.exited = true
	t.exitval = code
	t.exitCond.Broadcast()
	// A detached handle has no joiner now and can never gain one.
	if t.detached && t.refcount == 0 {
		delete(cur.threads, t.tid)
	}

	k.procLog.Debug("thread exit pid=%d tid=%d code=%d", cur.pid, t.tid, code)
	k.rt.Unlock()
	sched.Exit()
}

// exitProcess runs the last-thread teardown of cur: init drains its
// children first, everyone else hands children and zombies over to init
// and queues itself on its parent's exited list. Lock held.
func (k *Kernel) exitProcess(cur *pcb) {
	if cur.pid == InitPid {
		// Init reaps every remaining child before going down, so the
		// kernel is quiescent when Run returns.
		for {
			if _, _, err := k.waitAnyChild(cur); err != nil {
				break
			}
		}
	} else {
		init := k.table[InitPid]
		for _, cpid := range cur.children {
			child := k.table[cpid]
			child.parent = InitPid
			init.children = append(init.children, cpid)
		}
		if len(cur.exited) > 0 {
			init.exited = append(init.exited, cur.exited...)
			init.childExit.Broadcast()
		}
		cur.children = nil
		cur.exited = nil

		parent := k.table[cur.parent]
		parent.exited = append(parent.exited, cur.pid)
		parent.childExit.Broadcast()
	}

	cur.args = nil
	for i, f := range cur.fidt {
		if f != nil {
			cur.fidt[i] = nil
			if err := k.decref(f); err != nil {
				k.streamLog.Warn("close on exit pid=%d fid=%d: %v", cur.pid, i, err)
			}
		}
	}
	cur.main = nil
	cur.state = procZombie
	k.procLog.Debug("zombie pid=%d status=%d", cur.pid, cur.exitval)

	if cur.pid == InitPid {
		k.initExit.Broadcast()
	}
}
