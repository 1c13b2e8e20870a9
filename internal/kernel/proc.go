package kernel

import "github.com/akislouk/operating-systems-project/internal/sched"

// Pid names a slot in the process table.
type Pid int

// Process id sentinels and the two bootstrap slots.
const (
	// NoProc is the sentinel id returned by failed process calls.
	NoProc Pid = -1

	// AnyChild asks WaitChild to reap whichever child exits first.
	AnyChild Pid = NoProc

	// IdlePid is the idle slot: no task, no threads, alive forever.
	IdlePid Pid = 0

	// InitPid is the init process. Orphans are re-parented to it, and it
	// reaps every remaining child before it exits.
	InitPid Pid = 1
)

// Task is the entry point of a process or thread. It runs with the kernel
// lock released and reports an exit status.
type Task func(sys *Sys, args []byte) int

type procState int

const (
	procFree procState = iota
	procAlive
	procZombie
)

// pcb is one slot of the process table. A free slot holds no references of
// any kind: release clears every owning field before the pid returns to the
// free stack.
type pcb struct {
	pid    Pid
	state  procState
	parent Pid // NoProc for the bootstrap slots and free slots

	// children holds live and zombie children; a reaped child is removed.
	// exited holds the zombie subset in exit order, oldest first.
	children []Pid
	exited   []Pid

	fidt []*fcb

	task    Task
	args    []byte
	exitval int

	threads     map[Tid]*ptcb
	threadCount int
	main        *ptcb

	// childExit is signaled whenever a child of this process turns zombie.
	childExit *sched.Cond
}

// allocProc pops a free slot and marks it alive, or returns nil when the
// table is full. Lock held.
func (k *Kernel) allocProc() *pcb {
	if len(k.free) == 0 {
		return nil
	}
	pid := k.free[len(k.free)-1]
	k.free = k.free[:len(k.free)-1]

	p := k.table[pid]
	p.state = procAlive
	p.parent = NoProc
	p.fidt = make([]*fcb, k.profile.MaxFiles)
	p.threads = make(map[Tid]*ptcb)
	k.procCount++
	return p
}

// releaseProc returns a reaped slot to the free stack. Any leftover thread
// handles are dropped with the map. Lock held.
func (k *Kernel) releaseProc(p *pcb) {
	p.state = procFree
	p.parent = NoProc
	p.children = nil
	p.exited = nil
	p.fidt = nil
	p.task = nil
	p.args = nil
	p.exitval = 0
	p.threads = nil
	p.threadCount = 0
	p.main = nil
	k.free = append(k.free, p.pid)
	k.procCount--
}

// execProc creates a new process as a child of cur. Slots 0 and 1 are the
// parentless bootstrap slots; everything else inherits cur's open
// descriptors, one extra reference each. The root thread is woken only after
// the slot is fully initialized. A nil task installs a threadless process
// that never exits, which is how the idle slot is built. Lock held.
func (k *Kernel) execProc(cur *pcb, task Task, args []byte) (Pid, error) {
	p := k.allocProc()
	if p == nil {
		return NoProc, ErrNoFreeProcess
	}

	if p.pid > 1 {
		p.parent = cur.pid
		cur.children = append(cur.children, p.pid)
		for i, f := range cur.fidt {
			if f != nil {
				f.incref()
				p.fidt[i] = f
			}
		}
	}

	p.task = task
	if len(args) > 0 {
		p.args = append([]byte(nil), args...)
	}

	if task != nil {
		t := k.newPTCB(task, p.args)
		t.thread = k.rt.Spawn(k.taskMain(p, t))
		p.main = t
		p.threads[t.tid] = t
		p.threadCount++
		t.thread.Wake()
	}

	k.procLog.Debug("exec pid=%d parent=%d argl=%d", p.pid, p.parent, len(p.args))
	return p.pid, nil
}

// waitChild reaps a child of cur: a specific one, or with AnyChild whichever
// exits first. It blocks until the chosen child is a zombie and returns its
// pid and exit status. Lock held.
func (k *Kernel) waitChild(cur *pcb, cpid Pid) (Pid, int, error) {
	if cpid == AnyChild {
		return k.waitAnyChild(cur)
	}
	return k.waitSpecificChild(cur, cpid)
}

func (k *Kernel) waitSpecificChild(cur *pcb, cpid Pid) (Pid, int, error) {
	if cpid < 0 || int(cpid) >= len(k.table) {
		return NoProc, 0, ErrNoChild
	}
	child := k.table[cpid]
	for {
		// Re-validated after every wakeup: another thread of cur may have
		// reaped the child first, after which the slot can be reused.
		if child.state == procFree || child.parent != cur.pid {
			return NoProc, 0, ErrNoChild
		}
		if child.state == procZombie {
			break
		}
		cur.childExit.Wait()
	}
	status := k.reapZombie(cur, child)
	return cpid, status, nil
}

func (k *Kernel) waitAnyChild(cur *pcb) (Pid, int, error) {
	for {
		if len(cur.children) == 0 {
			return NoProc, 0, ErrNoChild
		}
		if len(cur.exited) > 0 {
			break
		}
		cur.childExit.Wait()
	}
	child := k.table[cur.exited[0]]
	status := k.reapZombie(cur, child)
	return child.pid, status, nil
}

// reapZombie unlinks child from cur's children and exited lists, frees the
// slot and returns the exit status. Lock held.
func (k *Kernel) reapZombie(cur *pcb, child *pcb) int {
	status := child.exitval
	cur.children = removePid(cur.children, child.pid)
	cur.exited = removePid(cur.exited, child.pid)
	k.procLog.Debug("reap pid=%d parent=%d status=%d", child.pid, cur.pid, status)
	k.releaseProc(child)
	return status
}

func removePid(list []Pid, pid Pid) []Pid {
	for i, p := range list {
		if p == pid {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
