package program

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// LoadFile registers the Lua script at path under its base name, so
// "programs/spooler.lua" becomes the program "spooler".
func LoadFile(reg *Registry, path string) error {
	if !strings.HasSuffix(path, ".lua") {
		return fmt.Errorf("%w: %s", ErrNotLua, path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading program %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".lua")
	return reg.Register(name, LuaTask(reg, name, string(source)))
}

// LoadDir registers every .lua file in dir. Non-Lua files are skipped.
func LoadDir(reg *Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading program dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lua") {
			continue
		}
		if err := LoadFile(reg, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Watcher keeps a registry in sync with a directory of Lua programs:
// created or changed scripts are re-registered, removed scripts are
// unregistered.
type Watcher struct {
	reg *Registry
	fsw *fsnotify.Watcher

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// WatchDir loads dir into the registry and starts watching it.
func WatchDir(reg *Registry, dir string) (*Watcher, error) {
	if err := LoadDir(reg, dir); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		reg:  reg,
		fsw:  fsw,
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Close stops the watcher and waits for its event loop to drain.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.reg.log.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".lua") {
		return
	}
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if err := LoadFile(w.reg, event.Name); err != nil {
			w.reg.log.Warn("reload %s: %v", event.Name, err)
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		name := strings.TrimSuffix(filepath.Base(event.Name), ".lua")
		w.reg.Unregister(name)
		w.reg.log.Info("program removed name=%s", name)
	}
}
