package kernel

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/akislouk/operating-systems-project/internal/config"
	"github.com/akislouk/operating-systems-project/internal/klog"
	"github.com/akislouk/operating-systems-project/internal/sched"
)

// Kernel is one self-contained kernel instance: a process table, a socket
// port table and stream accounting, all guarded by the single lock of its
// sched.Runtime.
type Kernel struct {
	rt      *sched.Runtime
	profile config.Profile
	id      string

	log       *klog.Logger
	procLog   *klog.Logger
	pipeLog   *klog.Logger
	sockLog   *klog.Logger
	streamLog *klog.Logger

	table     []*pcb
	free      []Pid
	procCount int
	nextTid   Tid

	ports []*socketCB

	streamCount int

	booted bool
	// initExit is broadcast when the init process turns zombie.
	initExit *sched.Cond
}

// New creates an unbooted kernel sized by the profile. A nil logger
// discards all output.
func New(profile config.Profile, log *klog.Logger) (*Kernel, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("kernel profile: %w", err)
	}
	if log == nil {
		log = klog.Null
	}

	rt := sched.NewRuntime()
	k := &Kernel{
		rt:        rt,
		profile:   profile,
		id:        uuid.NewString(),
		log:       log,
		procLog:   log.WithComponent("proc"),
		pipeLog:   log.WithComponent("pipe"),
		sockLog:   log.WithComponent("socket"),
		streamLog: log.WithComponent("stream"),
		table:     make([]*pcb, profile.MaxProc),
		free:      make([]Pid, 0, profile.MaxProc),
		ports:     make([]*socketCB, profile.MaxPort+1),
		initExit:  rt.NewCond(),
	}
	for i := range k.table {
		k.table[i] = &pcb{
			pid:       Pid(i),
			parent:    NoProc,
			childExit: rt.NewCond(),
		}
	}
	// The free stack is popped from the back, so push pids in descending
	// order: the first two allocations yield the idle and init slots.
	for i := profile.MaxProc - 1; i >= 0; i-- {
		k.free = append(k.free, Pid(i))
	}
	return k, nil
}

// ID returns the boot id of this kernel instance.
func (k *Kernel) ID() string { return k.id }

// Profile returns the profile the kernel was created with.
func (k *Kernel) Profile() config.Profile { return k.profile }

// Boot installs the two bootstrap slots: pid 0, the threadless idle slot,
// and pid 1, the init process running task. Booting twice fails.
func (k *Kernel) Boot(task Task, args []byte) error {
	if task == nil {
		return ErrNilTask
	}
	k.rt.Lock()
	defer k.rt.Unlock()

	if k.booted {
		return ErrBooted
	}
	k.booted = true
	k.log.Info("boot id=%s procs=%d files=%d", k.id, k.profile.MaxProc, k.profile.MaxFiles)

	if pid, err := k.execProc(nil, nil, nil); err != nil || pid != IdlePid {
		return fmt.Errorf("booting idle slot: %w", err)
	}
	if pid, err := k.execProc(nil, task, args); err != nil || pid != InitPid {
		return fmt.Errorf("booting init: %w", err)
	}
	return nil
}

// Run boots the kernel with task as init and blocks until init exits,
// returning its exit status. Init reaps every remaining child before it
// exits, so Run returning means the kernel is quiescent: only the idle
// slot is still occupied.
func (k *Kernel) Run(task Task, args []byte) (int, error) {
	if err := k.Boot(task, args); err != nil {
		return 0, err
	}
	k.rt.Lock()
	defer k.rt.Unlock()

	init := k.table[InitPid]
	for init.state != procZombie {
		k.initExit.Wait()
	}
	status := init.exitval
	k.releaseProc(init)
	k.log.Info("halt id=%s status=%d", k.id, status)
	return status, nil
}

// Snapshot returns one info record per occupied process-table slot. It is
// safe to call from outside any kernel thread; the monitor polls it.
func (k *Kernel) Snapshot() []ProcInfo {
	k.rt.Lock()
	defer k.rt.Unlock()

	var infos []ProcInfo
	for _, p := range k.table {
		if p.state == procFree {
			continue
		}
		infos = append(infos, k.infoFor(p))
	}
	return infos
}
