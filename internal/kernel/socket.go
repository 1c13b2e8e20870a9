package kernel

import (
	"time"

	"github.com/akislouk/operating-systems-project/internal/sched"
)

// Port numbers socket endpoints. NoPort never binds a listener.
type Port int

// NoPort is the unbound port number.
const NoPort Port = 0

// ShutdownMode selects which direction ShutDown closes.
type ShutdownMode int

// Shutdown modes.
const (
	ShutdownRead ShutdownMode = iota + 1
	ShutdownWrite
	ShutdownBoth
)

// socketCB is a socket control block. The state transitions one way:
// unbound (both payloads nil) to listener or to peer, never back. The
// count starts at 1 for the owning file control block; a blocked Accept
// or Connect takes one more so a concurrent Close cannot pull the socket
// out from under it. The block is dead when the count reaches zero.
type socketCB struct {
	k        *Kernel
	refcount int
	port     Port

	listener *listenerState
	peer     *peerState
}

// listenerState is the payload of a listening socket.
type listenerState struct {
	// queue holds pending connection requests, oldest first.
	queue        []*connRequest
	reqAvailable *sched.Cond
}

// peerState is the payload of a connected socket. A shut-down direction
// has its pipe reference forgotten.
type peerState struct {
	peer      *socketCB
	readPipe  *pipeCB
	writePipe *pipeCB
}

// connRequest is a pending connection, owned jointly by the blocked
// Connect call and the listener queue until popped. The Connect side
// reports success iff admitted is set when it resumes.
type connRequest struct {
	admitted  bool
	peer      *socketCB
	connected *sched.Cond
}

func (s *socketCB) incref() { s.refcount++ }

// decref drops one reference. At zero the block is dead; there is nothing
// left to release beyond letting it go.
func (s *socketCB) decref() {
	s.refcount--
}

// read delegates to the peer's read pipe. Lock held.
func (s *socketCB) read(p []byte) (int, error) {
	if s.peer == nil {
		return 0, ErrNotPeer
	}
	if s.peer.readPipe == nil {
		return 0, ErrPipeClosed
	}
	return s.peer.readPipe.read(p)
}

// write delegates to the peer's write pipe. Lock held.
func (s *socketCB) write(p []byte) (int, error) {
	if s.peer == nil {
		return 0, ErrNotPeer
	}
	if s.peer.writePipe == nil {
		return 0, ErrPipeClosed
	}
	return s.peer.writePipe.write(p)
}

// close runs when the owning file control block's last reference drops.
// A peer closes both pipe ends; a listener fails every pending connector,
// unbinds its port and wakes blocked Accept callers. Lock held.
func (s *socketCB) close() error {
	k := s.k
	switch {
	case s.peer != nil:
		if s.peer.readPipe != nil {
			_ = s.peer.readPipe.closeReader()
			s.peer.readPipe = nil
		}
		if s.peer.writePipe != nil {
			_ = s.peer.writePipe.closeWriter()
			s.peer.writePipe = nil
		}
	case s.listener != nil:
		for _, req := range s.listener.queue {
			// admitted stays false; the connector wakes and fails.
			req.connected.Signal()
		}
		s.listener.queue = nil
		k.ports[s.port] = nil
		s.listener.reqAvailable.Broadcast()
		k.sockLog.Debug("listener closed port=%d", s.port)
	}
	s.decref()
	return nil
}

// sysSocket creates an unbound socket on port. Port 0 is legal here; such
// a socket can connect but never listen. Lock held.
func (k *Kernel) sysSocket(cur *pcb, port Port) (Fid, error) {
	if port < NoPort || int(port) > k.profile.MaxPort {
		return NoFile, ErrBadPort
	}
	fids, fcbs, ok := k.reserve(cur, 1)
	if !ok {
		return NoFile, ErrNoFreeDescriptor
	}
	fcbs[0].obj = &socketCB{k: k, refcount: 1, port: port}
	return fids[0], nil
}

// getSocket resolves a descriptor to its socket control block. Lock held.
func (k *Kernel) getSocket(cur *pcb, fid Fid) (*socketCB, error) {
	f := k.getFCB(cur, fid)
	if f == nil {
		return nil, ErrBadFid
	}
	s, ok := f.obj.(*socketCB)
	if !ok {
		return nil, ErrNotSocket
	}
	return s, nil
}

// sysListen turns an unbound socket into the sole listener of its port.
// Lock held.
func (k *Kernel) sysListen(cur *pcb, fid Fid) error {
	s, err := k.getSocket(cur, fid)
	if err != nil {
		return err
	}
	if s.listener != nil || s.peer != nil {
		return ErrNotUnbound
	}
	if s.port == NoPort {
		return ErrBadPort
	}
	if k.ports[s.port] != nil {
		return ErrPortBusy
	}
	s.listener = &listenerState{reqAvailable: k.rt.NewCond()}
	k.ports[s.port] = s
	k.sockLog.Debug("listen pid=%d port=%d", cur.pid, s.port)
	return nil
}

// sysAccept blocks until a connection request arrives, pairs a brand-new
// server socket with the requesting client and returns the server
// descriptor. The listener is pinned by a reference for the whole wait so
// a concurrent Close cannot free it. Lock held.
func (k *Kernel) sysAccept(cur *pcb, fid Fid) (Fid, error) {
	s, err := k.getSocket(cur, fid)
	if err != nil {
		return NoFile, err
	}
	if s.listener == nil {
		return NoFile, ErrNotListener
	}

	s.incref()
	for len(s.listener.queue) == 0 && k.ports[s.port] == s {
		s.listener.reqAvailable.Wait()
	}
	if k.ports[s.port] != s {
		s.decref()
		return NoFile, ErrListenerClosed
	}

	req := s.listener.queue[0]
	s.listener.queue = s.listener.queue[1:]

	serverFid, err := k.sysSocket(cur, s.port)
	if err != nil {
		// The connector still wakes; admitted stays false.
		req.connected.Signal()
		s.decref()
		return NoFile, err
	}
	server, _ := k.getSocket(cur, serverFid)
	client := req.peer

	req.admitted = true
	forward := k.newPipe()
	backward := k.newPipe()
	server.peer = &peerState{peer: client, readPipe: forward, writePipe: backward}
	client.peer = &peerState{peer: server, readPipe: backward, writePipe: forward}

	req.connected.Signal()
	s.decref()
	k.sockLog.Debug("accept pid=%d port=%d fid=%d", cur.pid, s.port, serverFid)
	return serverFid, nil
}

// sysConnect queues a connection request on the listener of port and
// blocks until it is admitted or the timeout expires. A non-positive
// timeout waits without bound. Lock held.
func (k *Kernel) sysConnect(cur *pcb, fid Fid, port Port, timeout time.Duration) error {
	if port < NoPort || int(port) > k.profile.MaxPort {
		return ErrBadPort
	}
	s, err := k.getSocket(cur, fid)
	if err != nil {
		return err
	}
	if s.listener != nil || s.peer != nil {
		return ErrNotUnbound
	}
	l := k.ports[port]
	if l == nil || l.listener == nil {
		return ErrNoListener
	}

	s.incref()
	req := &connRequest{peer: s, connected: k.rt.NewCond()}
	l.listener.queue = append(l.listener.queue, req)
	l.listener.reqAvailable.Signal()

	k.sockLog.Debug("connect pid=%d port=%d timeout=%v", cur.pid, port, timeout)
	req.connected.WaitTimeout(timeout)
	s.decref()

	// The request may still be queued (timeout) or already popped by the
	// listener. Whichever way the race went, the admitted flag as seen
	// now is the outcome.
	if l.listener != nil {
		for i, qr := range l.listener.queue {
			if qr == req {
				l.listener.queue = append(l.listener.queue[:i], l.listener.queue[i+1:]...)
				break
			}
		}
	}
	if !req.admitted {
		return ErrConnectFailed
	}
	return nil
}

// sysShutDown closes one or both directions of a connected socket. A
// second shutdown of the same direction reports the pipe layer's
// already-closed error. Lock held.
func (k *Kernel) sysShutDown(cur *pcb, fid Fid, mode ShutdownMode) error {
	s, err := k.getSocket(cur, fid)
	if err != nil {
		return err
	}
	if s.peer == nil {
		return ErrNotPeer
	}
	switch mode {
	case ShutdownRead:
		return k.shutdownRead(s)
	case ShutdownWrite:
		return k.shutdownWrite(s)
	case ShutdownBoth:
		rerr := k.shutdownRead(s)
		werr := k.shutdownWrite(s)
		if rerr != nil {
			return rerr
		}
		return werr
	default:
		return ErrBadShutdownMode
	}
}

func (k *Kernel) shutdownRead(s *socketCB) error {
	if s.peer.readPipe == nil {
		return ErrPipeClosed
	}
	err := s.peer.readPipe.closeReader()
	s.peer.readPipe = nil
	return err
}

func (k *Kernel) shutdownWrite(s *socketCB) error {
	if s.peer.writePipe == nil {
		return ErrPipeClosed
	}
	err := s.peer.writePipe.closeWriter()
	s.peer.writePipe = nil
	return err
}
