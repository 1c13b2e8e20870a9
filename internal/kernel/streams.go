package kernel

// Fid names a slot in a process's file descriptor table.
type Fid int

// NoFile is the sentinel descriptor returned by failed stream calls.
const NoFile Fid = -1

// stream is the polymorphic endpoint a file control block dispatches to.
// Pipes register one implementation per end, sockets and the info stream
// register themselves. close is invoked exactly once, when the owning
// control block's last reference drops.
type stream interface {
	read(p []byte) (int, error)
	write(p []byte) (int, error)
	close() error
}

// fcb is a file control block: a reference-counted pairing of a stream with
// the descriptor slots that name it. The slot that reserve fills owns the
// initial reference; Exec inheritance, Dup2 and in-flight reads and writes
// take further ones.
type fcb struct {
	refcount int
	obj      stream
}

func (f *fcb) incref() { f.refcount++ }

// decref releases one reference and closes the stream when the count
// reaches zero. Lock held.
func (k *Kernel) decref(f *fcb) error {
	f.refcount--
	if f.refcount > 0 {
		return nil
	}
	k.streamCount--
	return f.obj.close()
}

// reserve allocates n descriptor slots in cur and n fresh control blocks,
// all or nothing. The control blocks are created with one reference and a
// nil stream; the caller wires the stream before dropping the lock. Lock
// held.
func (k *Kernel) reserve(cur *pcb, n int) ([]Fid, []*fcb, bool) {
	if k.streamCount+n > k.profile.MaxStreams {
		return nil, nil, false
	}
	fids := make([]Fid, 0, n)
	for i, f := range cur.fidt {
		if f != nil {
			continue
		}
		fids = append(fids, Fid(i))
		if len(fids) == n {
			break
		}
	}
	if len(fids) < n {
		return nil, nil, false
	}
	fcbs := make([]*fcb, n)
	for i, fid := range fids {
		fcbs[i] = &fcb{refcount: 1}
		cur.fidt[fid] = fcbs[i]
	}
	k.streamCount += n
	return fids, fcbs, true
}

// getFCB resolves a descriptor to its control block, or nil if the
// descriptor is out of range or the slot is empty. Lock held.
func (k *Kernel) getFCB(cur *pcb, fid Fid) *fcb {
	if fid < 0 || int(fid) >= len(cur.fidt) {
		return nil
	}
	return cur.fidt[fid]
}

// sysRead dispatches a read through the descriptor. The extra reference
// keeps the control block alive while the read blocks, in case another
// thread of the process closes the descriptor meanwhile. Lock held.
func (k *Kernel) sysRead(cur *pcb, fid Fid, p []byte) (int, error) {
	f := k.getFCB(cur, fid)
	if f == nil {
		return 0, ErrBadFid
	}
	f.incref()
	n, err := f.obj.read(p)
	_ = k.decref(f)
	return n, err
}

// sysWrite dispatches a write through the descriptor. Lock held.
func (k *Kernel) sysWrite(cur *pcb, fid Fid, p []byte) (int, error) {
	f := k.getFCB(cur, fid)
	if f == nil {
		return 0, ErrBadFid
	}
	f.incref()
	n, err := f.obj.write(p)
	_ = k.decref(f)
	return n, err
}

// sysClose empties the descriptor slot and releases its reference. Closing
// an already-empty slot is a no-op. Lock held.
func (k *Kernel) sysClose(cur *pcb, fid Fid) error {
	if fid < 0 || int(fid) >= len(cur.fidt) {
		return ErrBadFid
	}
	f := cur.fidt[fid]
	cur.fidt[fid] = nil
	if f == nil {
		return nil
	}
	return k.decref(f)
}

// sysDup2 retargets newf at oldf's control block. The old descriptor's
// reference is taken before the new slot's is dropped, so duplicating a
// descriptor onto itself, or onto the last reference of another stream,
// never closes the stream being duplicated. Lock held.
func (k *Kernel) sysDup2(cur *pcb, oldf, newf Fid) error {
	if oldf < 0 || int(oldf) >= len(cur.fidt) || newf < 0 || int(newf) >= len(cur.fidt) {
		return ErrBadFid
	}
	src := cur.fidt[oldf]
	if src == nil {
		return ErrBadFid
	}
	if oldf == newf {
		return nil
	}
	src.incref()
	if prev := cur.fidt[newf]; prev != nil {
		_ = k.decref(prev)
	}
	cur.fidt[newf] = src
	return nil
}
