package program

import (
	"errors"
	"testing"

	"github.com/akislouk/operating-systems-project/internal/kernel"
)

func nopTask(sys *kernel.Sys, args []byte) int { return 0 }

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register("idle", nopTask); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := reg.Lookup("idle"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if _, err := reg.Lookup("missing"); !errors.Is(err, ErrUnknownProgram) {
		t.Fatalf("Lookup(missing) = %v, want ErrUnknownProgram", err)
	}
}

func TestRegistryRejectsBadRegistrations(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.Register("", nopTask); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Register empty name: %v, want ErrEmptyName", err)
	}
	if err := reg.Register("broken", nil); !errors.Is(err, ErrNilTask) {
		t.Errorf("Register nil task: %v, want ErrNilTask", err)
	}
}

func TestRegistryReplaceAndUnregister(t *testing.T) {
	reg := NewRegistry(nil)
	first := func(sys *kernel.Sys, args []byte) int { return 1 }
	second := func(sys *kernel.Sys, args []byte) int { return 2 }

	if err := reg.Register("prog", first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register("prog", second); err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	task, err := reg.Lookup("prog")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if status := task(nil, nil); status != 2 {
		t.Errorf("replaced task returned %d, want 2", status)
	}

	reg.Unregister("prog")
	if _, err := reg.Lookup("prog"); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("Lookup after Unregister: %v, want ErrUnknownProgram", err)
	}
	reg.Unregister("prog") // no-op
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry(nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(name, nopTask); err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
	}
	names := reg.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Names() = %v, want %v", names, want)
		}
	}
}
