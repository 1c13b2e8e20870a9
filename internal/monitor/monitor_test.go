package monitor

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/akislouk/operating-systems-project/internal/config"
	"github.com/akislouk/operating-systems-project/internal/kernel"
	"github.com/akislouk/operating-systems-project/internal/klog"
)

func simContents(screen tcell.SimulationScreen) string {
	cells, width, _ := screen.GetContents()
	var sb strings.Builder
	for i, cell := range cells {
		if i > 0 && i%width == 0 {
			sb.WriteByte('\n')
		}
		if len(cell.Runes) > 0 {
			sb.WriteRune(cell.Runes[0])
		} else {
			sb.WriteByte(' ')
		}
	}
	return sb.String()
}

func TestMonitorDrawsTableAndQuits(t *testing.T) {
	k, err := kernel.New(config.Default(), klog.Null)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	release := make(chan struct{})
	done := make(chan int, 1)
	go func() {
		status, err := k.Run(func(sys *kernel.Sys, args []byte) int {
			<-release
			return 0
		}, []byte("boot"))
		if err != nil {
			t.Errorf("Run: %v", err)
		}
		done <- status
	}()

	screen := tcell.NewSimulationScreen("UTF-8")
	m, err := New(k, klog.Null, WithScreen(screen), WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New monitor: %v", err)
	}

	finished := make(chan error, 1)
	go func() { finished <- m.Run() }()

	// Give the monitor a couple of redraw ticks before inspecting.
	deadline := time.After(2 * time.Second)
	for {
		content := simContents(screen)
		if strings.Contains(content, "boot") && strings.Contains(content, "ALIVE") {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("table never rendered, screen:\n%s", content)
		case <-time.After(20 * time.Millisecond):
		}
	}

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("monitor Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not quit on q")
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("kernel did not halt")
	}
}

func TestMonitorQuitKeys(t *testing.T) {
	quits := []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyRune, 'Q', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone),
	}
	for _, ev := range quits {
		if !isQuit(ev) {
			t.Errorf("key %v should quit", ev.Key())
		}
	}
	stays := []*tcell.EventKey{
		tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone),
	}
	for _, ev := range stays {
		if isQuit(ev) {
			t.Errorf("key %v should not quit", ev.Key())
		}
	}
}

func TestFormatRowMarksZombiesAndOrphans(t *testing.T) {
	var info kernel.ProcInfo
	info.Pid = 3
	info.PPid = kernel.NoProc
	info.Alive = false
	copy(info.Args[:], "job\x01")
	info.ArgLen = 4

	row := formatRow(info)
	if !strings.Contains(row, "ZOMBIE") {
		t.Errorf("row %q missing ZOMBIE", row)
	}
	if !strings.Contains(row, "-") {
		t.Errorf("row %q missing orphan parent marker", row)
	}
	if !strings.Contains(row, "job.") {
		t.Errorf("row %q should replace unprintable bytes", row)
	}
}
