package compute

import (
	"errors"
	"fmt"
)

// Device errors. Backends record them and report the first one from Err.
var (
	// ErrMissingBarrier indicates a field was accessed while a write from an
	// earlier dispatch was still unsynchronised.
	ErrMissingBarrier = errors.New("compute: field accessed without barrier after write")

	// ErrAccessMode indicates a kernel touched a slot against its bound access mode.
	ErrAccessMode = errors.New("compute: access does not match bound mode")

	// ErrUnbound indicates a program used a slot with nothing bound to it.
	ErrUnbound = errors.New("compute: slot not bound")

	// ErrUnknownProgram indicates Compile was asked for a program with no source.
	ErrUnknownProgram = errors.New("compute: unknown program")

	// ErrCompile indicates a program failed to compile or link.
	ErrCompile = errors.New("compute: program compilation failed")

	// ErrBadFormat indicates a field format the operation cannot handle.
	ErrBadFormat = errors.New("compute: unsupported field format")

	// ErrBadSize indicates a non-positive or mismatched field size.
	ErrBadSize = errors.New("compute: invalid field size")

	// ErrDevice wraps errors reported by the native graphics layer.
	ErrDevice = errors.New("compute: device error")
)

// SlotError adds the offending program and slot to a device error.
type SlotError struct {
	Program string
	Slot    int
	Field   string
	Wrapped error
}

func (e *SlotError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s slot %d (%s): %v", e.Program, e.Slot, e.Field, e.Wrapped)
	}
	return fmt.Sprintf("%s slot %d: %v", e.Program, e.Slot, e.Wrapped)
}

func (e *SlotError) Unwrap() error {
	return e.Wrapped
}
