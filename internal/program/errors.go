package program

import "errors"

// Errors returned by the program registry and loaders.
var (
	// ErrEmptyName indicates a program registered without a name.
	ErrEmptyName = errors.New("empty program name")

	// ErrNilTask indicates a program registered without a task.
	ErrNilTask = errors.New("nil program task")

	// ErrUnknownProgram indicates a lookup for a name never registered.
	ErrUnknownProgram = errors.New("unknown program")

	// ErrNotLua indicates a loaded file without the .lua extension.
	ErrNotLua = errors.New("not a lua program file")
)
