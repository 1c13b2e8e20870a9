package kernel

import (
	"errors"
	"io"
	"testing"
)

func TestReadWriteBadDescriptor(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		buf := make([]byte, 1)
		if _, err := sys.Read(NoFile, buf); !errors.Is(err, ErrBadFid) {
			t.Errorf("Read(NoFile): %v, want ErrBadFid", err)
		}
		if _, err := sys.Write(Fid(3), buf); !errors.Is(err, ErrBadFid) {
			t.Errorf("Write on empty slot: %v, want ErrBadFid", err)
		}
		if err := sys.Close(Fid(99)); !errors.Is(err, ErrBadFid) {
			t.Errorf("Close out of range: %v, want ErrBadFid", err)
		}
		// Closing an empty in-range slot is a no-op.
		if err := sys.Close(Fid(3)); err != nil {
			t.Errorf("Close empty slot: %v, want nil", err)
		}
		return 0
	})
}

func TestDirectionChecks(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		if _, err := sys.Write(r, []byte("x")); !errors.Is(err, ErrNotWritable) {
			t.Errorf("Write on read end: %v, want ErrNotWritable", err)
		}
		if _, err := sys.Read(w, make([]byte, 1)); !errors.Is(err, ErrNotReadable) {
			t.Errorf("Read on write end: %v, want ErrNotReadable", err)
		}
		return 0
	})
}

// Dup2 retargets the new slot; the stream only closes when its last
// descriptor reference is gone.
func TestDup2KeepsStreamAlive(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		dup := Fid(10)
		if err := sys.Dup2(w, dup); err != nil {
			t.Errorf("Dup2: %v", err)
			return 1
		}
		// Dropping the original write descriptor must not close the write
		// side: the duplicate still references it.
		if err := sys.Close(w); err != nil {
			t.Errorf("Close(w): %v", err)
		}
		if _, err := sys.Write(dup, []byte("via dup")); err != nil {
			t.Errorf("Write through dup: %v", err)
		}
		buf := make([]byte, 7)
		if _, err := sys.Read(r, buf); err != nil {
			t.Errorf("Read: %v", err)
		}
		if string(buf) != "via dup" {
			t.Errorf("Read = %q, want %q", buf, "via dup")
		}
		// Now the last write reference goes; the reader sees EOF.
		if err := sys.Close(dup); err != nil {
			t.Errorf("Close(dup): %v", err)
		}
		if n, err := sys.Read(r, buf); n != 0 || err != io.EOF {
			t.Errorf("Read after last close = %d, %v, want 0, io.EOF", n, err)
		}
		return 0
	})
}

func TestDup2SelfAndTargetReplacement(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		if err := sys.Dup2(w, w); err != nil {
			t.Errorf("Dup2 onto itself: %v", err)
		}
		if _, err := sys.Write(w, []byte("a")); err != nil {
			t.Errorf("Write after self dup: %v", err)
		}

		// Duplicating over an occupied slot closes what it held.
		r2, w2, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		if err := sys.Dup2(w, w2); err != nil {
			t.Errorf("Dup2 over occupied slot: %v", err)
		}
		if n, err := sys.Read(r2, make([]byte, 1)); n != 0 || err != io.EOF {
			t.Errorf("Read on orphaned pipe = %d, %v, want 0, io.EOF", n, err)
		}

		if err := sys.Dup2(Fid(5), Fid(6)); !errors.Is(err, ErrBadFid) {
			t.Errorf("Dup2 from empty slot: %v, want ErrBadFid", err)
		}
		if err := sys.Dup2(w, Fid(99)); !errors.Is(err, ErrBadFid) {
			t.Errorf("Dup2 to out-of-range slot: %v, want ErrBadFid", err)
		}
		_ = r
		return 0
	})
}

// Exiting a process releases its descriptor references; the stream closes
// only when the other holder is gone too.
func TestExitReleasesDescriptors(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		child := func(sys *Sys, args []byte) int {
			// Inherited r and w; exit releases both references.
			return 0
		}
		pid, err := sys.Exec(child, nil)
		if err != nil {
			t.Errorf("Exec: %v", err)
			return 1
		}
		if _, _, err := sys.WaitChild(pid); err != nil {
			t.Errorf("WaitChild: %v", err)
			return 1
		}
		// Our ends are still open: the pipe must still carry data.
		if _, err := sys.Write(w, []byte("z")); err != nil {
			t.Errorf("Write after child exit: %v", err)
		}
		buf := make([]byte, 1)
		if _, err := sys.Read(r, buf); err != nil {
			t.Errorf("Read after child exit: %v", err)
		}
		return 0
	})
}
