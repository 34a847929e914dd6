// Package dynamo provides the primitives shared by the orbital simulation.
//
// The package defines the numeric and error vocabulary used by every
// other package:
//
//   - [Vec3]: double-precision 3-vector for positions, velocities and forces
//   - [ErrInvalidConfiguration]: a run that must not start
//   - [ErrNumericDegeneracy]: a step produced a non-finite state
//   - [SimulationError]: step and body context for a failed run
//   - [ParallelFor]: chunked fan-out with a join barrier
//
// # Thread Safety
//
// Nothing in this package holds state. Bodies built on these types are
// owned by a single simulation loop for the duration of a run.
package dynamo
