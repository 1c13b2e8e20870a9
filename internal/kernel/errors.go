package kernel

import "errors"

// Resource exhaustion errors. These are never fatal to the kernel; the
// failed call reports a sentinel id alongside them.
var (
	// ErrNoFreeProcess indicates the process table is full.
	ErrNoFreeProcess = errors.New("no free process slot")

	// ErrNoFreeDescriptor indicates the caller's descriptor table or the
	// system-wide stream table cannot hold the requested streams.
	ErrNoFreeDescriptor = errors.New("no free file descriptor")
)

// Protocol misuse errors. The failed call has no side effects.
var (
	// ErrNilTask indicates a process or thread was created without an entry
	// task.
	ErrNilTask = errors.New("nil entry task")

	// ErrBooted indicates a second Boot on an already-booted kernel.
	ErrBooted = errors.New("kernel already booted")

	// ErrNoChild indicates the id does not name a live or zombied child of
	// the caller, or that a wait-for-any caller has no children at all.
	ErrNoChild = errors.New("no such child process")

	// ErrNoThread indicates the id does not name a thread of the caller's
	// process.
	ErrNoThread = errors.New("no such thread")

	// ErrSelfJoin indicates a thread tried to join itself.
	ErrSelfJoin = errors.New("thread cannot join itself")

	// ErrDetached indicates a join target that is, or became, detached.
	ErrDetached = errors.New("thread is detached")

	// ErrExited indicates a detach target that has already exited.
	ErrExited = errors.New("thread has already exited")

	// ErrBadFid indicates a descriptor outside the table or an empty slot.
	ErrBadFid = errors.New("invalid file descriptor")

	// ErrNotReadable indicates a read on a stream with no read side.
	ErrNotReadable = errors.New("stream is not readable")

	// ErrNotWritable indicates a write on a stream with no write side.
	ErrNotWritable = errors.New("stream is not writable")

	// ErrNotSocket indicates a socket call on a descriptor that does not
	// name a socket.
	ErrNotSocket = errors.New("descriptor is not a socket")

	// ErrBadPort indicates a port outside [0, MaxPort], or port 0 where a
	// real port is required.
	ErrBadPort = errors.New("invalid port")

	// ErrNotUnbound indicates a Listen or Connect on a socket that has
	// already become a listener or a peer.
	ErrNotUnbound = errors.New("socket is not unbound")

	// ErrPortBusy indicates the port already hosts a listener.
	ErrPortBusy = errors.New("port already has a listener")

	// ErrNotListener indicates an Accept on a socket that is not listening.
	ErrNotListener = errors.New("socket is not a listener")

	// ErrNoListener indicates a Connect to a port with no listener.
	ErrNoListener = errors.New("no listener on port")

	// ErrNotPeer indicates data or shutdown operations on a socket that is
	// not connected.
	ErrNotPeer = errors.New("socket is not a connected peer")

	// ErrBadShutdownMode indicates an unknown shutdown mode value.
	ErrBadShutdownMode = errors.New("invalid shutdown mode")
)

// Broken-peer errors. Read-side end of stream is reported as io.EOF, not as
// an error in this taxonomy.
var (
	// ErrBrokenPipe indicates a write whose reading end is closed.
	ErrBrokenPipe = errors.New("write on pipe with closed read end")

	// ErrPipeClosed indicates an operation on a pipe end that is already
	// closed.
	ErrPipeClosed = errors.New("pipe end already closed")

	// ErrListenerClosed indicates the listener was closed while Accept was
	// blocked on it.
	ErrListenerClosed = errors.New("listener closed while accepting")

	// ErrConnectFailed indicates a connection request that was not admitted
	// before it was abandoned: the timeout elapsed or the listener closed.
	ErrConnectFailed = errors.New("connection not admitted")
)
