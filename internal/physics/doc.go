// Package physics provides the gravitating point masses of the simulation.
//
//   - [Body]: an orbiting mass with a precomputed coupling factor
//     G·mass·hostMass, fixed for the lifetime of the body
//   - [CentralBody]: the host star, moved only by the reaction of the
//     bodies orbiting it
//
// Both record their position after every advance into an append-only
// trajectory. A body is mutated in place by exactly one simulation loop;
// none of the types here are safe for concurrent mutation.
//
// # Force Law
//
// For a body at offset r from its host the force is
//
//	F = -coupling * r / |r|^3
//
// and the host receives the negated sum of those forces.
package physics
