package kernel

import "time"

// Sys is the system-call handle passed to every task. It is bound to one
// kernel thread and carries the current-process and current-thread lookup;
// each method takes the kernel lock for its duration, releasing it across
// any blocking wait.
type Sys struct {
	k *Kernel
	p *pcb
	t *ptcb
}

// Exec creates a new process running task, inheriting the caller's open
// descriptors, and returns its pid without waiting for it.
func (s *Sys) Exec(task Task, args []byte) (Pid, error) {
	if task == nil {
		return NoProc, ErrNilTask
	}
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.execProc(s.p, task, args)
}

// Exit records the process exit status and terminates the calling thread.
// When the caller is the last thread of its process the process turns
// zombie. Exit does not return.
func (s *Sys) Exit(code int) {
	s.k.rt.Lock()
	s.p.exitval = code
	// threadExit releases the lock and never returns.
	s.k.threadExit(s.p, s.t, code)
}

// WaitChild reaps a zombie child: a specific pid, or with AnyChild
// whichever child exits first. It blocks until the chosen child has
// exited and returns its pid and exit status.
func (s *Sys) WaitChild(pid Pid) (Pid, int, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.waitChild(s.p, pid)
}

// GetPid returns the calling process's pid.
func (s *Sys) GetPid() Pid { return s.p.pid }

// GetPPid returns the pid of the calling process's parent, or NoProc for
// the parentless bootstrap processes.
func (s *Sys) GetPPid() Pid {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.p.parent
}

// CreateThread adds a thread to the calling process and returns its tid.
func (s *Sys) CreateThread(task Task, args []byte) (Tid, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.createThread(s.p, task, args)
}

// ThreadSelf returns the calling thread's tid.
func (s *Sys) ThreadSelf() Tid { return s.t.tid }

// ThreadJoin blocks until the target thread exits and returns its exit
// value. It fails if the target is unknown, is the caller itself, or is
// (or becomes) detached.
func (s *Sys) ThreadJoin(tid Tid) (int, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.joinThread(s.p, s.t, tid)
}

// ThreadDetach marks the target thread detached; current and future
// joiners fail.
func (s *Sys) ThreadDetach(tid Tid) error {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.detachThread(s.p, tid)
}

// ThreadExit terminates the calling thread with the given status. It does
// not return.
func (s *Sys) ThreadExit(code int) {
	s.k.rt.Lock()
	// threadExit releases the lock and never returns.
	s.k.threadExit(s.p, s.t, code)
}

// Pipe creates a pipe and returns its read and write descriptors.
func (s *Sys) Pipe() (r Fid, w Fid, err error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysPipe(s.p)
}

// Socket creates an unbound socket on port.
func (s *Sys) Socket(port Port) (Fid, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysSocket(s.p, port)
}

// Listen turns the socket into the listener for its port.
func (s *Sys) Listen(fid Fid) error {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysListen(s.p, fid)
}

// Accept blocks until a connection request arrives on the listener and
// returns the descriptor of the new server-side peer socket.
func (s *Sys) Accept(fid Fid) (Fid, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysAccept(s.p, fid)
}

// Connect requests a connection to the listener on port and blocks until
// it is admitted or the timeout expires. A non-positive timeout waits
// without bound.
func (s *Sys) Connect(fid Fid, port Port, timeout time.Duration) error {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysConnect(s.p, fid, port, timeout)
}

// ShutDown closes one or both directions of a connected socket.
func (s *Sys) ShutDown(fid Fid, mode ShutdownMode) error {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysShutDown(s.p, fid, mode)
}

// OpenInfo opens a read-only stream of process-table records. Each read
// yields one encoded ProcInfo until the table is exhausted, then io.EOF.
func (s *Sys) OpenInfo() (Fid, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysOpenInfo(s.p)
}

// Read reads from the stream behind the descriptor. It blocks according
// to the stream's semantics and reports end of stream as io.EOF.
func (s *Sys) Read(fid Fid, p []byte) (int, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysRead(s.p, fid, p)
}

// Write writes to the stream behind the descriptor.
func (s *Sys) Write(fid Fid, p []byte) (int, error) {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysWrite(s.p, fid, p)
}

// Close empties the descriptor slot and releases its stream reference.
func (s *Sys) Close(fid Fid) error {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysClose(s.p, fid)
}

// Dup2 retargets newf at the stream behind oldf.
func (s *Sys) Dup2(oldf, newf Fid) error {
	s.k.rt.Lock()
	defer s.k.rt.Unlock()
	return s.k.sysDup2(s.p, oldf, newf)
}
