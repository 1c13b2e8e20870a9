package kernel

import (
	"io"

	"github.com/akislouk/operating-systems-project/internal/sched"
)

// pipeCB is the bounded circular byte buffer both pipes and peer sockets
// are built on. The two ends are tracked as open flags; a closed end is
// the signal the other end uses to detect end-of-stream or a broken pipe.
type pipeCB struct {
	buf   []byte
	rpos  int
	wpos  int
	count int

	readerOpen bool
	writerOpen bool

	hasData  *sched.Cond
	hasSpace *sched.Cond
}

// newPipe creates an open pipe with the profile's buffer capacity. Lock
// held.
func (k *Kernel) newPipe() *pipeCB {
	return &pipeCB{
		buf:        make([]byte, k.profile.PipeBuffer),
		readerOpen: true,
		writerOpen: true,
		hasData:    k.rt.NewCond(),
		hasSpace:   k.rt.NewCond(),
	}
}

// write copies p into the buffer byte by byte, blocking on a full buffer
// until a reader drains space. It fails up front if either end is already
// closed, and stops with the partial count and ErrBrokenPipe if the reader
// closes mid-call. Lock held; the waits release it.
func (pi *pipeCB) write(p []byte) (int, error) {
	if !pi.readerOpen || !pi.writerOpen {
		return 0, ErrPipeClosed
	}
	for i := range p {
		for pi.readerOpen && pi.count == len(pi.buf) {
			pi.hasData.Broadcast()
			pi.hasSpace.Wait()
		}
		if !pi.readerOpen {
			pi.hasData.Broadcast()
			return i, ErrBrokenPipe
		}
		pi.buf[pi.wpos] = p[i]
		pi.wpos = (pi.wpos + 1) % len(pi.buf)
		pi.count++
	}
	pi.hasData.Broadcast()
	return len(p), nil
}

// read copies up to len(p) bytes out of the buffer, blocking on an empty
// buffer while the writer is still open. A closed writer stops the read
// early: the bytes gathered so far are returned, or io.EOF if there were
// none. Partial reads are not an error. Lock held; the waits release it.
func (pi *pipeCB) read(p []byte) (int, error) {
	if !pi.readerOpen {
		return 0, ErrPipeClosed
	}
	if !pi.writerOpen && pi.count == 0 {
		return 0, io.EOF
	}
	for i := range p {
		for pi.writerOpen && pi.count == 0 {
			pi.hasSpace.Broadcast()
			pi.hasData.Wait()
		}
		if pi.count == 0 {
			// Writer closed while we waited and nothing is buffered.
			if i == 0 {
				return 0, io.EOF
			}
			return i, nil
		}
		p[i] = pi.buf[pi.rpos]
		pi.rpos = (pi.rpos + 1) % len(pi.buf)
		pi.count--
	}
	pi.hasSpace.Broadcast()
	return len(p), nil
}

// closeReader closes the read end. Both conditions are woken so a writer
// blocked on a full buffer observes the broken pipe at once instead of
// waiting for an unrelated event. Lock held.
func (pi *pipeCB) closeReader() error {
	if !pi.readerOpen {
		return ErrPipeClosed
	}
	pi.readerOpen = false
	pi.hasSpace.Broadcast()
	pi.hasData.Broadcast()
	return nil
}

// closeWriter closes the write end and wakes readers blocked on an empty
// buffer so they observe end-of-stream. Lock held.
func (pi *pipeCB) closeWriter() error {
	if !pi.writerOpen {
		return ErrPipeClosed
	}
	pi.writerOpen = false
	pi.hasData.Broadcast()
	pi.hasSpace.Broadcast()
	return nil
}

// pipeReadEnd is the stream registered on the read descriptor of a pipe.
type pipeReadEnd struct {
	pipe *pipeCB
}

func (e *pipeReadEnd) read(p []byte) (int, error)  { return e.pipe.read(p) }
func (e *pipeReadEnd) write(p []byte) (int, error) { return 0, ErrNotWritable }
func (e *pipeReadEnd) close() error                { return e.pipe.closeReader() }

// pipeWriteEnd is the stream registered on the write descriptor of a pipe.
type pipeWriteEnd struct {
	pipe *pipeCB
}

func (e *pipeWriteEnd) read(p []byte) (int, error)  { return 0, ErrNotReadable }
func (e *pipeWriteEnd) write(p []byte) (int, error) { return e.pipe.write(p) }
func (e *pipeWriteEnd) close() error                { return e.pipe.closeWriter() }

// sysPipe reserves two descriptors in cur and wires a fresh pipe between
// them, read end first. Lock held.
func (k *Kernel) sysPipe(cur *pcb) (Fid, Fid, error) {
	fids, fcbs, ok := k.reserve(cur, 2)
	if !ok {
		return NoFile, NoFile, ErrNoFreeDescriptor
	}
	pi := k.newPipe()
	fcbs[0].obj = &pipeReadEnd{pipe: pi}
	fcbs[1].obj = &pipeWriteEnd{pipe: pi}
	k.pipeLog.Debug("pipe pid=%d r=%d w=%d cap=%d", cur.pid, fids[0], fids[1], len(pi.buf))
	return fids[0], fids[1], nil
}
