// Package pipeline describes device work as explicit pass records and checks
// their ordering before anything is dispatched.
//
// A [Pass] names a program, the fields it binds with their access modes, and
// whether a memory barrier follows it. A [Schedule] is an ordered list of
// passes. [Schedule.Validate] proves that no pass reads or rewrites a field
// whose last writer has not been followed by a barrier:
//
//	s := pipeline.Schedule{Name: "substep", Passes: []pipeline.Pass{accel, verlet, mouse}}
//	if err := s.Validate(); err != nil {
//	    return err
//	}
//	pipeline.Run(dev, s, w, h)
//	err := dev.Err()
package pipeline
