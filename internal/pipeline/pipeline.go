package pipeline

import (
	"errors"
	"fmt"

	"github.com/san-kum/ripple/internal/compute"
)

// Binding attaches a field to an image slot, or to a texture unit in a draw pass.
type Binding struct {
	Field  compute.Field
	Slot   int
	Access compute.Access
}

// Pass is one dispatch or draw.
type Pass struct {
	Name     string
	Program  compute.Program
	Bindings []Binding
	// Draw passes bind their fields as textures and render the full-screen quad.
	Draw bool
	// Barrier makes every write of this pass visible to later passes.
	Barrier bool
}

// Schedule is an ordered sequence of passes.
type Schedule struct {
	Name   string
	Passes []Pass
	// Scratch lists fields whose contents are meaningless between schedule
	// runs; they must be written before they are read.
	Scratch []compute.Field
}

// Concat joins schedules in order, so whole-frame ordering can be validated.
func Concat(name string, schedules ...Schedule) Schedule {
	out := Schedule{Name: name}
	for _, s := range schedules {
		out.Passes = append(out.Passes, s.Passes...)
		out.Scratch = append(out.Scratch, s.Scratch...)
	}
	return out
}

// Repeat returns s run n times back to back.
func Repeat(s Schedule, n int) Schedule {
	out := Schedule{Name: fmt.Sprintf("%s x%d", s.Name, n), Scratch: s.Scratch}
	for i := 0; i < n; i++ {
		out.Passes = append(out.Passes, s.Passes...)
	}
	return out
}

// Validate checks the schedule as if it ran on a device with no implicit
// synchronisation. Validate Repeat(s, 2) to also catch a trailing pass whose
// writes race with the next run of s.
func (s Schedule) Validate() error {
	var errs []error

	scratch := make(map[uint32]bool, len(s.Scratch))
	for _, f := range s.Scratch {
		scratch[f.ID] = true
	}

	// field id -> name of the pass that wrote it since the last barrier
	unsynced := make(map[uint32]string)
	written := make(map[uint32]bool)

	for i, p := range s.Passes {
		if !p.Program.Valid() {
			errs = append(errs, &HazardError{Schedule: s.Name, Pass: p.Name, Index: i, Wrapped: ErrEmptyPass})
			continue
		}

		fields := make(map[uint32]bool, len(p.Bindings))
		slots := make(map[int]bool, len(p.Bindings))
		for _, b := range p.Bindings {
			id := b.Field.ID
			if fields[id] || slots[b.Slot] {
				errs = append(errs, &HazardError{Schedule: s.Name, Pass: p.Name, Index: i, Field: b.Field.String(), Wrapped: ErrDuplicateBinding})
				continue
			}
			fields[id] = true
			slots[b.Slot] = true

			if writer, ok := unsynced[id]; ok {
				errs = append(errs, &HazardError{Schedule: s.Name, Pass: p.Name, Index: i, Field: b.Field.String(), Writer: writer, Wrapped: ErrHazard})
			}
			if scratch[id] && b.Access.Reads() && !written[id] {
				errs = append(errs, &HazardError{Schedule: s.Name, Pass: p.Name, Index: i, Field: b.Field.String(), Wrapped: ErrScratchRead})
			}
		}

		for _, b := range p.Bindings {
			if !p.Draw && b.Access.Writes() {
				unsynced[b.Field.ID] = p.Name
				written[b.Field.ID] = true
			}
		}
		if p.Barrier {
			unsynced = make(map[uint32]string)
		}
	}

	return errors.Join(errs...)
}

// Reads returns the passes of s that read f, in order.
func (s Schedule) Reads(f compute.Field) []string {
	var names []string
	for _, p := range s.Passes {
		for _, b := range p.Bindings {
			if b.Field.ID == f.ID && (p.Draw || b.Access.Reads()) {
				names = append(names, p.Name)
			}
		}
	}
	return names
}

// Run issues every pass of s on dev over a width x height domain.
func Run(dev compute.Device, s Schedule, width, height int) {
	for _, p := range s.Passes {
		for _, b := range p.Bindings {
			if p.Draw {
				dev.BindTexture(b.Field, b.Slot)
			} else {
				dev.BindImage(b.Field, b.Slot, b.Access)
			}
		}
		if p.Draw {
			dev.Draw(p.Program)
		} else {
			dev.Dispatch(p.Program, width, height, 1)
		}
		if p.Barrier {
			dev.Barrier()
		}
	}
}
