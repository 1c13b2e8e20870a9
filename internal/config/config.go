// Package config provides the boot profile: the sizing limits and paths the
// kernel and its tooling are booted with. Profiles load from a TOML file,
// may be overlaid from TINYOS_* environment variables and are validated
// before use.
package config

import "fmt"

// Profile holds the boot-time configuration of a kernel instance.
type Profile struct {
	// MaxProc is the capacity of the process table, including the idle
	// and init slots.
	MaxProc int `toml:"max_proc"`
	// MaxFiles is the width of each process's file descriptor table.
	MaxFiles int `toml:"max_files"`
	// MaxStreams is the capacity of the system-wide stream table.
	MaxStreams int `toml:"max_streams"`
	// MaxPort is the highest usable socket port. Port 0 never binds.
	MaxPort int `toml:"max_port"`
	// PipeBuffer is the capacity in bytes of each pipe buffer.
	PipeBuffer int `toml:"pipe_buffer"`
	// LogLevel is the minimum log level: debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	// ProgramDir, if set, is a directory of Lua programs to register at
	// startup.
	ProgramDir string `toml:"program_dir"`
}

// Default returns the profile used when no file and no overrides are given.
func Default() Profile {
	return Profile{
		MaxProc:    1024,
		MaxFiles:   16,
		MaxStreams: 256,
		MaxPort:    1023,
		PipeBuffer: 512,
		LogLevel:   "info",
	}
}

// Validate checks the profile limits.
func (p Profile) Validate() error {
	if p.MaxProc < 2 {
		return fmt.Errorf("%w: max_proc must be at least 2 (idle and init), got %d", ErrInvalidLimit, p.MaxProc)
	}
	if p.MaxFiles < 2 {
		return fmt.Errorf("%w: max_files must be at least 2 (a pipe needs two), got %d", ErrInvalidLimit, p.MaxFiles)
	}
	if p.MaxStreams < p.MaxFiles {
		return fmt.Errorf("%w: max_streams %d is below max_files %d", ErrInvalidLimit, p.MaxStreams, p.MaxFiles)
	}
	if p.MaxPort < 1 {
		return fmt.Errorf("%w: max_port must be at least 1, got %d", ErrInvalidLimit, p.MaxPort)
	}
	if p.PipeBuffer < 1 {
		return fmt.Errorf("%w: pipe_buffer must be at least 1, got %d", ErrInvalidLimit, p.PipeBuffer)
	}
	return nil
}
