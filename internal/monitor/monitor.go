// Package monitor renders a live view of a kernel's process table in the
// terminal. It polls the kernel's info records and redraws on an
// interval; it is a read-only viewer, not a console.
package monitor

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/akislouk/operating-systems-project/internal/kernel"
	"github.com/akislouk/operating-systems-project/internal/klog"
)

// DefaultInterval is the redraw period.
const DefaultInterval = 250 * time.Millisecond

// Monitor displays the process table of one kernel.
type Monitor struct {
	screen   tcell.Screen
	k        *kernel.Kernel
	interval time.Duration
	log      *klog.Logger
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the redraw period.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithScreen supplies the screen to draw on, for tests and embedding. By
// default the monitor opens the real terminal.
func WithScreen(screen tcell.Screen) Option {
	return func(m *Monitor) {
		m.screen = screen
	}
}

// New creates a monitor for the kernel. A nil logger discards output.
func New(k *kernel.Kernel, log *klog.Logger, opts ...Option) (*Monitor, error) {
	if log == nil {
		log = klog.Null
	}
	m := &Monitor{
		k:        k,
		interval: DefaultInterval,
		log:      log.WithComponent("monitor"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("creating screen: %w", err)
		}
		m.screen = screen
	}
	return m, nil
}

// Run draws until the user quits with 'q', Escape or Ctrl-C. It owns the
// screen for its duration and restores the terminal on return.
func (m *Monitor) Run() error {
	if err := m.screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer m.screen.Fini()

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := m.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.log.Info("monitor attached kernel=%s", m.k.ID())
	m.draw()
	for {
		select {
		case <-ticker.C:
			m.draw()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				m.screen.Sync()
				m.draw()
			case *tcell.EventKey:
				if isQuit(ev) {
					m.log.Info("monitor detached")
					return nil
				}
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	default:
		return false
	}
}

func (m *Monitor) draw() {
	m.screen.Clear()

	infos := m.k.Snapshot()
	header := tcell.StyleDefault.Bold(true)
	m.drawText(0, 0, header, fmt.Sprintf("tinyos %s  slots=%d  q quits", m.k.ID(), len(infos)))
	m.drawText(0, 1, header, fmt.Sprintf("%5s %5s %-7s %4s  %s", "PID", "PPID", "STATE", "THR", "ARGS"))

	for i, info := range infos {
		m.drawText(0, 2+i, tcell.StyleDefault, formatRow(info))
	}
	m.screen.Show()
}

func formatRow(info kernel.ProcInfo) string {
	state := "ZOMBIE"
	if info.Alive {
		state = "ALIVE"
	}
	ppid := fmt.Sprintf("%d", info.PPid)
	if info.PPid == kernel.NoProc {
		ppid = "-"
	}
	n := info.ArgLen
	if n > kernel.MaxInfoArgs {
		n = kernel.MaxInfoArgs
	}
	return fmt.Sprintf("%5d %5s %-7s %4d  %s",
		info.Pid, ppid, state, info.ThreadCount, printable(info.Args[:n]))
}

// printable replaces non-printable argument bytes so a binary blob never
// garbles the terminal.
func printable(b []byte) string {
	out := make([]rune, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			out[i] = '.'
		} else {
			out[i] = rune(c)
		}
	}
	return string(out)
}

func (m *Monitor) drawText(x, y int, style tcell.Style, text string) {
	width, height := m.screen.Size()
	if y >= height {
		return
	}
	col := x
	for _, r := range text {
		if col >= width {
			return
		}
		m.screen.SetContent(col, y, r, nil, style)
		col++
	}
}
