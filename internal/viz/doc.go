// Package viz renders soft bodies in the terminal.
//
// The live view is a Bubble Tea program that steps a model on every tick
// and draws its edges on a braille [Canvas] through an orthographic
// [Camera]:
//
//   - [Model]: live view of one body
//   - [Picker]: preset menu that opens a live view
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//
// # Key Bindings
//
//	1/2/3 - Switch to distance+volume, FEM or strain based dynamics
//	Space - Pause/Resume simulation
//	N     - Single step while paused
//	R     - Reset to the rest shape
//	[ ]   - Lower/raise stiffness
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// Method changes apply from the next step on. GIF recordings are written
// to Model.GIFPath when recording stops.
package viz
