package config

import (
	"errors"
	"fmt"
)

// Errors returned by profile loading and validation.
var (
	// ErrInvalidLimit indicates a profile limit outside its legal range.
	ErrInvalidLimit = errors.New("invalid profile limit")

	// ErrBadEnvValue indicates a TINYOS_* variable that does not parse.
	ErrBadEnvValue = errors.New("bad environment value")
)

// ParseError represents an error while parsing a profile file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
