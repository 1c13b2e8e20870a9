package kernel

import (
	"errors"
	"testing"
	"time"

	"github.com/akislouk/operating-systems-project/internal/config"
	"github.com/akislouk/operating-systems-project/internal/klog"
)

// testProfile keeps tables small enough to exercise exhaustion paths.
func testProfile() config.Profile {
	return config.Profile{
		MaxProc:    16,
		MaxFiles:   16,
		MaxStreams: 64,
		MaxPort:    64,
		PipeBuffer: 16,
		LogLevel:   "error",
	}
}

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k, err := New(testProfile(), klog.Null)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return k
}

// runInit boots a fresh kernel with task as init and returns init's exit
// status, failing the test if the kernel does not halt.
func runInit(t *testing.T, task Task) int {
	t.Helper()
	return runInitOn(t, newTestKernel(t), task)
}

func runInitOn(t *testing.T, k *Kernel, task Task) int {
	t.Helper()
	type result struct {
		status int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		status, err := k.Run(task, nil)
		done <- result{status, err}
	}()
	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Run: %v", res.err)
		}
		return res.status
	case <-time.After(5 * time.Second):
		t.Fatal("kernel did not halt")
		return 0
	}
}

// fid2args and args2fid smuggle a descriptor through a task's argument
// blob, the way tinyos programs pass descriptors to their threads.
func fid2args(f Fid) []byte { return []byte{byte(f)} }
func args2fid(b []byte) Fid { return Fid(b[0]) }

// settle gives concurrently-spawned kernel threads time to run into their
// blocking points. Task code runs with the kernel lock dropped, so a plain
// sleep never holds anything up.
func settle() { time.Sleep(50 * time.Millisecond) }

// awaitGone polls until tid's handle has been freed. Detached handles free
// themselves at exit, so ErrNoThread is the signal the thread is gone.
func awaitGone(sys *Sys, tid Tid) {
	for i := 0; i < 200; i++ {
		if _, err := sys.ThreadJoin(tid); errors.Is(err, ErrNoThread) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewRejectsBadProfile(t *testing.T) {
	if _, err := New(config.Profile{}, klog.Null); err == nil {
		t.Fatal("New accepted a zero profile")
	}
}

func TestBootTwiceFails(t *testing.T) {
	k := newTestKernel(t)
	status := runInitOn(t, k, func(sys *Sys, args []byte) int { return 0 })
	if status != 0 {
		t.Fatalf("init status = %d, want 0", status)
	}
	if err := k.Boot(func(sys *Sys, args []byte) int { return 0 }, nil); err != ErrBooted {
		t.Fatalf("second Boot error = %v, want ErrBooted", err)
	}
}

func TestBootNilInitFails(t *testing.T) {
	k := newTestKernel(t)
	if err := k.Boot(nil, nil); err != ErrNilTask {
		t.Fatalf("Boot(nil) error = %v, want ErrNilTask", err)
	}
}

func TestRunReturnsInitStatus(t *testing.T) {
	status := runInit(t, func(sys *Sys, args []byte) int { return 42 })
	if status != 42 {
		t.Fatalf("init status = %d, want 42", status)
	}
}

func TestSnapshotAfterHaltShowsOnlyIdle(t *testing.T) {
	k := newTestKernel(t)
	runInitOn(t, k, func(sys *Sys, args []byte) int {
		child := func(sys *Sys, args []byte) int { return 0 }
		pid, err := sys.Exec(child, nil)
		if err != nil {
			t.Errorf("Exec: %v", err)
			return 1
		}
		if _, _, err := sys.WaitChild(pid); err != nil {
			t.Errorf("WaitChild: %v", err)
			return 1
		}
		return 0
	})

	infos := k.Snapshot()
	if len(infos) != 1 || infos[0].Pid != IdlePid {
		t.Fatalf("snapshot after halt = %+v, want only the idle slot", infos)
	}
}
