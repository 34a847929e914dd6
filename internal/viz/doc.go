// Package viz renders completed orbit runs in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas, 2x4 sub-pixels per cell
//   - [Viewport]: maps world coordinates onto canvas sub-pixels
//   - [Model]: Bubble Tea program that replays a trajectory store
//   - [RadiusPlot], [CoordinatePlot]: asciigraph line charts
//
// # Key Bindings
//
//	Space - Pause/Resume replay
//	[ ]   - Step one frame back/forward (pauses)
//	+ -   - Change replay speed
//	Tab   - Select the tracked body
//	R     - Restart from the first sample
//	T     - Cycle color themes
//	?     - Show help overlay
//
// The replay only reads the store, so a run must be complete before it can
// be animated.
package viz
