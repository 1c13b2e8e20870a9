package program

import (
	"fmt"
	"sort"
	"sync"

	"github.com/akislouk/operating-systems-project/internal/kernel"
	"github.com/akislouk/operating-systems-project/internal/klog"
)

// Registry maps program names to kernel tasks. Registering an existing
// name replaces it, which is what the directory watcher relies on for
// live reload.
type Registry struct {
	mu    sync.RWMutex
	log   *klog.Logger
	progs map[string]kernel.Task
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(log *klog.Logger) *Registry {
	if log == nil {
		log = klog.Null
	}
	return &Registry{
		log:   log.WithComponent("program"),
		progs: make(map[string]kernel.Task),
	}
}

// Register binds name to task, replacing any previous binding.
func (r *Registry) Register(name string, task kernel.Task) error {
	if name == "" {
		return ErrEmptyName
	}
	if task == nil {
		return fmt.Errorf("%w: %s", ErrNilTask, name)
	}
	r.mu.Lock()
	_, replaced := r.progs[name]
	r.progs[name] = task
	r.mu.Unlock()

	if replaced {
		r.log.Info("program replaced name=%s", name)
	} else {
		r.log.Debug("program registered name=%s", name)
	}
	return nil
}

// Unregister removes a name. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	delete(r.progs, name)
	r.mu.Unlock()
}

// Lookup resolves a name to its task.
func (r *Registry) Lookup(name string) (kernel.Task, error) {
	r.mu.RLock()
	task, ok := r.progs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, name)
	}
	return task, nil
}

// Names returns the registered program names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.progs))
	for name := range r.progs {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
