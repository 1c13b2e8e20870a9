package kernel

import (
	"encoding/binary"
	"io"
)

// MaxInfoArgs is how many argument bytes an info record carries. Longer
// argument blobs are truncated in the record, never in the process.
const MaxInfoArgs = 64

// ProcInfoSize is the fixed wire size of one encoded info record.
const ProcInfoSize = 4 + 4 + 1 + 4 + 4 + MaxInfoArgs

// ProcInfo is one record of the process-info stream: a point-in-time view
// of one occupied process-table slot.
type ProcInfo struct {
	Pid         Pid
	PPid        Pid
	Alive       bool
	ThreadCount int
	ArgLen      int
	Args        [MaxInfoArgs]byte
}

// Encode writes the record into buf, which must hold ProcInfoSize bytes.
func (pi *ProcInfo) Encode(buf []byte) {
	_ = buf[ProcInfoSize-1]
	binary.BigEndian.PutUint32(buf[0:], uint32(int32(pi.Pid)))
	binary.BigEndian.PutUint32(buf[4:], uint32(int32(pi.PPid)))
	if pi.Alive {
		buf[8] = 1
	} else {
		buf[8] = 0
	}
	binary.BigEndian.PutUint32(buf[9:], uint32(pi.ThreadCount))
	binary.BigEndian.PutUint32(buf[13:], uint32(pi.ArgLen))
	copy(buf[17:], pi.Args[:])
}

// Decode reads the record from buf. It fails with io.ErrShortBuffer when
// buf holds less than one record.
func (pi *ProcInfo) Decode(buf []byte) error {
	if len(buf) < ProcInfoSize {
		return io.ErrShortBuffer
	}
	pi.Pid = Pid(int32(binary.BigEndian.Uint32(buf[0:])))
	pi.PPid = Pid(int32(binary.BigEndian.Uint32(buf[4:])))
	pi.Alive = buf[8] == 1
	pi.ThreadCount = int(binary.BigEndian.Uint32(buf[9:]))
	pi.ArgLen = int(binary.BigEndian.Uint32(buf[13:]))
	copy(pi.Args[:], buf[17:ProcInfoSize])
	return nil
}

// infoFor builds the record for one occupied slot. Lock held.
func (k *Kernel) infoFor(p *pcb) ProcInfo {
	info := ProcInfo{
		Pid:         p.pid,
		PPid:        p.parent,
		Alive:       p.state == procAlive,
		ThreadCount: p.threadCount,
		ArgLen:      len(p.args),
	}
	copy(info.Args[:], p.args)
	return info
}

// infoStream iterates the process table, one encoded record per read. The
// cursor makes each record a point-in-time snapshot; slots that free or
// fill mid-iteration may be missed or picked up, which is fine for an
// informational stream.
type infoStream struct {
	k      *Kernel
	cursor int
}

// read copies the next occupied slot's record into p, or io.EOF once the
// table is exhausted. The buffer must hold a whole record. Lock held.
func (st *infoStream) read(p []byte) (int, error) {
	if len(p) < ProcInfoSize {
		return 0, io.ErrShortBuffer
	}
	for st.cursor < len(st.k.table) {
		slot := st.k.table[st.cursor]
		st.cursor++
		if slot.state == procFree {
			continue
		}
		info := st.k.infoFor(slot)
		info.Encode(p[:ProcInfoSize])
		return ProcInfoSize, nil
	}
	return 0, io.EOF
}

func (st *infoStream) write(p []byte) (int, error) { return 0, ErrNotWritable }
func (st *infoStream) close() error                { return nil }

// sysOpenInfo opens a process-info stream on a fresh descriptor. Lock
// held.
func (k *Kernel) sysOpenInfo(cur *pcb) (Fid, error) {
	fids, fcbs, ok := k.reserve(cur, 1)
	if !ok {
		return NoFile, ErrNoFreeDescriptor
	}
	fcbs[0].obj = &infoStream{k: k}
	return fids[0], nil
}
