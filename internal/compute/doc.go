// Package compute provides the device capability layer the water simulation
// runs on.
//
// A [Device] allocates 2D fields, compiles named programs, binds fields to
// image or texture slots, dispatches compute kernels and draws the
// full-screen quad. Two backends are available:
//
//   - OpenGL: GLSL compute and render programs on a current 4.3 context
//   - CPU: registered Go kernels executed over row chunks on all cores
//
// # Synchronisation
//
// Devices never synchronise implicitly. A dispatch that reads a field written
// by an earlier dispatch must be separated from it by [Device.Barrier]:
//
//	dev.BindImage(acc, 2, compute.Write)
//	dev.Dispatch(accel, w, h, 1)
//	dev.Barrier()
//	dev.BindImage(acc, 2, compute.Read)
//	dev.Dispatch(verlet, w, h, 1)
//
// The CPU backend records [ErrMissingBarrier] when this rule is broken, which
// makes ordering mistakes visible in tests instead of as a corrupted frame.
package compute
