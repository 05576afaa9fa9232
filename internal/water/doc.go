// Package water simulates a height-field water surface on a compute device
// and composes it over sky and floor images.
//
// Each displayed frame renders the current surface, advances the height
// field by a fixed number of substeps (acceleration, Verlet update, pointer
// force) and then recomputes the derived normal and caustic fields once.
// Every pass is described as a pipeline.Schedule, so the barrier placement
// of a whole frame is validated before the first dispatch.
package water
