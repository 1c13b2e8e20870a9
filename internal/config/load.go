package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Load reads a profile from a TOML file, starting from the defaults. A
// missing file is not an error; the defaults are returned unchanged.
func Load(path string) (Profile, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("reading profile %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return p, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return p, nil
}

// LoadReader reads a profile from an io.Reader, starting from the defaults.
func LoadReader(r io.Reader) (Profile, error) {
	p := Default()
	data, err := io.ReadAll(r)
	if err != nil {
		return p, fmt.Errorf("reading profile: %w", err)
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return p, &ParseError{Path: "<reader>", Message: err.Error(), Err: err}
	}
	return p, nil
}

// envVars maps TINYOS_* environment variables to profile fields.
// Integer-valued variables parse with strconv.Atoi.
var envVars = []struct {
	name string
	set  func(*Profile, string) error
}{
	{"TINYOS_MAX_PROC", func(p *Profile, v string) error { return setInt(&p.MaxProc, v) }},
	{"TINYOS_MAX_FILES", func(p *Profile, v string) error { return setInt(&p.MaxFiles, v) }},
	{"TINYOS_MAX_STREAMS", func(p *Profile, v string) error { return setInt(&p.MaxStreams, v) }},
	{"TINYOS_MAX_PORT", func(p *Profile, v string) error { return setInt(&p.MaxPort, v) }},
	{"TINYOS_PIPE_BUFFER", func(p *Profile, v string) error { return setInt(&p.PipeBuffer, v) }},
	{"TINYOS_LOG_LEVEL", func(p *Profile, v string) error { p.LogLevel = v; return nil }},
	{"TINYOS_PROGRAM_DIR", func(p *Profile, v string) error { p.ProgramDir = v; return nil }},
}

// FromEnv overlays TINYOS_* environment variables onto the profile. Unset
// variables leave their fields untouched.
func FromEnv(p *Profile) error {
	for _, ev := range envVars {
		val, ok := os.LookupEnv(ev.name)
		if !ok {
			continue
		}
		if err := ev.set(p, val); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrBadEnvValue, ev.name, val, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}
