package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrHazard indicates a field access that races with an unsynchronised write.
	ErrHazard = errors.New("pipeline: read-after-write hazard")

	// ErrDuplicateBinding indicates a field or slot bound twice in one pass.
	ErrDuplicateBinding = errors.New("pipeline: duplicate binding in pass")

	// ErrScratchRead indicates a scratch field read before any pass wrote it.
	ErrScratchRead = errors.New("pipeline: scratch field read before written")

	// ErrEmptyPass indicates a pass with no valid program.
	ErrEmptyPass = errors.New("pipeline: pass has no program")
)

// HazardError locates an ordering violation.
type HazardError struct {
	Schedule string
	Pass     string
	Index    int
	Field    string
	Writer   string
	Wrapped  error
}

func (e *HazardError) Error() string {
	if e.Writer != "" {
		return fmt.Sprintf("%s: pass %d (%s) touches %s written by %s without barrier: %v",
			e.Schedule, e.Index, e.Pass, e.Field, e.Writer, e.Wrapped)
	}
	return fmt.Sprintf("%s: pass %d (%s) field %s: %v", e.Schedule, e.Index, e.Pass, e.Field, e.Wrapped)
}

func (e *HazardError) Unwrap() error {
	return e.Wrapped
}
