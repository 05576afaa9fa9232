// Package gui shows the water surface in a glfw window, driving it from a
// redraw pacing goroutine and feeding pointer events into the interaction
// state.
package gui
