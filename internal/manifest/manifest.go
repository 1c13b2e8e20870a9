// Package manifest loads YAML workload manifests: the list of programs a
// kernel launches at boot. A manifest names registered programs, so it is
// validated against a program registry before use.
//
//	version: 1
//	processes:
//	  - program: spooler
//	    args: "lp0"
//	  - program: shell
package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/akislouk/operating-systems-project/internal/kernel"
	"github.com/akislouk/operating-systems-project/internal/klog"
	"github.com/akislouk/operating-systems-project/internal/program"
)

// Errors returned by manifest loading and validation.
var (
	// ErrNoProcesses indicates a manifest with an empty process list.
	ErrNoProcesses = errors.New("manifest lists no processes")

	// ErrUnknownProgram indicates a manifest entry naming an unregistered
	// program.
	ErrUnknownProgram = errors.New("manifest names unknown program")
)

// Manifest is one boot workload file.
type Manifest struct {
	Version   int       `yaml:"version"`
	Processes []Process `yaml:"processes"`
}

// Process is one entry of the workload: a program name and its argument
// string.
type Process struct {
	Program string `yaml:"program"`
	Args    string `yaml:"args"`
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Validate checks that the manifest is runnable against the registry:
// non-empty, with every named program registered.
func (m *Manifest) Validate(reg *program.Registry) error {
	if len(m.Processes) == 0 {
		return ErrNoProcesses
	}
	for _, proc := range m.Processes {
		if proc.Program == "" {
			return fmt.Errorf("%w: empty name", ErrUnknownProgram)
		}
		if _, err := reg.Lookup(proc.Program); err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownProgram, proc.Program)
		}
	}
	return nil
}

// InitTask builds the init task for this workload: it execs every listed
// process, then reaps children until none remain. It exits with the
// number of children that reported a non-zero status.
func (m *Manifest) InitTask(reg *program.Registry, log *klog.Logger) kernel.Task {
	if log == nil {
		log = klog.Null
	}
	log = log.WithComponent("manifest")

	return func(sys *kernel.Sys, args []byte) int {
		launched := 0
		for _, proc := range m.Processes {
			task, err := reg.Lookup(proc.Program)
			if err != nil {
				log.Error("skipping %s: %v", proc.Program, err)
				continue
			}
			pid, err := sys.Exec(task, []byte(proc.Args))
			if err != nil {
				log.Error("exec %s: %v", proc.Program, err)
				continue
			}
			log.Info("launched program=%s pid=%d", proc.Program, pid)
			launched++
		}

		if launched == 0 {
			return 0
		}
		// Reap until no children remain: orphans re-parented to init are
		// picked up here too, not just the directly launched processes.
		failed := 0
		for {
			pid, status, err := sys.WaitChild(kernel.AnyChild)
			if err != nil {
				break
			}
			log.Info("reaped pid=%d status=%d", pid, status)
			if status != 0 {
				failed++
			}
		}
		return failed
	}
}
