package kernel

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestPipeRoundTrip(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		msg := []byte("hello kernel")
		n, err := sys.Write(w, msg)
		if err != nil || n != len(msg) {
			t.Errorf("Write = %d, %v, want %d, nil", n, err, len(msg))
		}
		got := make([]byte, len(msg))
		n, err = sys.Read(r, got)
		if err != nil || n != len(msg) {
			t.Errorf("Read = %d, %v, want %d, nil", n, err, len(msg))
		}
		if !bytes.Equal(got, msg) {
			t.Errorf("Read bytes = %q, want %q", got, msg)
		}
		return 0
	})
}

// A writer pushing more than the buffer capacity must block until a
// reader drains space, and the reader must observe every byte in order.
func TestPipeWriterBlocksOnFullBuffer(t *testing.T) {
	const total = 100 // well above the 16-byte test buffer

	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}

		writer := func(sys *Sys, args []byte) int {
			buf := make([]byte, total)
			for i := range buf {
				buf[i] = byte(i)
			}
			n, err := sys.Write(args2fid(args), buf)
			if err != nil || n != total {
				t.Errorf("Write = %d, %v, want %d, nil", n, err, total)
			}
			return 0
		}
		tid, err := sys.CreateThread(writer, fid2args(w))
		if err != nil {
			t.Errorf("CreateThread: %v", err)
			return 1
		}

		var got []byte
		chunk := make([]byte, 7)
		for len(got) < total {
			n, err := sys.Read(r, chunk)
			if err != nil {
				t.Errorf("Read: %v", err)
				return 1
			}
			got = append(got, chunk[:n]...)
		}
		for i, b := range got {
			if b != byte(i) {
				t.Errorf("byte %d = %d, want %d", i, b, byte(i))
				break
			}
		}
		if _, err := sys.ThreadJoin(tid); err != nil {
			t.Errorf("ThreadJoin: %v", err)
		}
		return 0
	})
}

func TestPipeReadDrainsThenEOF(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		if _, err := sys.Write(w, []byte("tail")); err != nil {
			t.Errorf("Write: %v", err)
		}
		if err := sys.Close(w); err != nil {
			t.Errorf("Close(w): %v", err)
		}

		got := make([]byte, 16)
		n, err := sys.Read(r, got)
		if err != nil || n != 4 {
			t.Errorf("Read = %d, %v, want 4, nil", n, err)
		}
		if string(got[:n]) != "tail" {
			t.Errorf("Read bytes = %q, want %q", got[:n], "tail")
		}
		if n, err = sys.Read(r, got); n != 0 || err != io.EOF {
			t.Errorf("Read after drain = %d, %v, want 0, io.EOF", n, err)
		}
		// End of stream is sticky.
		if n, err = sys.Read(r, got); n != 0 || err != io.EOF {
			t.Errorf("second Read after drain = %d, %v, want 0, io.EOF", n, err)
		}
		return 0
	})
}

func TestPipeWriteAfterReaderClose(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}
		if err := sys.Close(r); err != nil {
			t.Errorf("Close(r): %v", err)
		}
		if _, err := sys.Write(w, []byte("x")); !errors.Is(err, ErrPipeClosed) {
			t.Errorf("Write after reader close: %v, want ErrPipeClosed", err)
		}
		return 0
	})
}

// A writer blocked on a full buffer must wake and fail as soon as the
// reader closes, not wait for an unrelated event.
func TestPipeReaderCloseUnblocksWriter(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}

		writer := func(sys *Sys, args []byte) int {
			// Twice the buffer: guaranteed to block midway.
			n, err := sys.Write(args2fid(args), make([]byte, 32))
			if !errors.Is(err, ErrBrokenPipe) {
				t.Errorf("blocked Write = %d, %v, want ErrBrokenPipe", n, err)
			}
			if n != 16 {
				t.Errorf("partial Write count = %d, want 16", n)
			}
			return 0
		}
		tid, err := sys.CreateThread(writer, fid2args(w))
		if err != nil {
			t.Errorf("CreateThread: %v", err)
			return 1
		}

		// Let the writer fill the buffer and park, then close under it.
		settle()
		if err := sys.Close(r); err != nil {
			t.Errorf("Close(r): %v", err)
		}
		if _, err := sys.ThreadJoin(tid); err != nil {
			t.Errorf("ThreadJoin: %v", err)
		}
		return 0
	})
}

func TestPipeCrossThreadEcho(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		r, w, err := sys.Pipe()
		if err != nil {
			t.Errorf("Pipe: %v", err)
			return 1
		}

		echo := func(sys *Sys, args []byte) int {
			buf := make([]byte, 4)
			n, err := sys.Read(args2fid(args), buf)
			if err != nil {
				t.Errorf("echo Read: %v", err)
				return 1
			}
			return int(buf[0]) + n
		}
		tid, err := sys.CreateThread(echo, fid2args(r))
		if err != nil {
			t.Errorf("CreateThread: %v", err)
			return 1
		}
		if _, err := sys.Write(w, []byte{9}); err != nil {
			t.Errorf("Write: %v", err)
		}
		status, err := sys.ThreadJoin(tid)
		if err != nil {
			t.Errorf("ThreadJoin: %v", err)
		}
		if status != 10 {
			t.Errorf("echo status = %d, want 10", status)
		}
		return 0
	})
}

func TestPipeDescriptorExhaustion(t *testing.T) {
	runInit(t, func(sys *Sys, args []byte) int {
		var pipes int
		for {
			_, _, err := sys.Pipe()
			if err != nil {
				if !errors.Is(err, ErrNoFreeDescriptor) {
					t.Errorf("Pipe: %v, want ErrNoFreeDescriptor", err)
				}
				break
			}
			pipes++
			if pipes > 16 {
				t.Error("Pipe never exhausted a 16-slot descriptor table")
				break
			}
		}
		if pipes != 8 {
			t.Errorf("created %d pipes before exhaustion, want 8", pipes)
		}
		return 0
	})
}
