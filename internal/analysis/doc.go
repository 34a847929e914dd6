// Package analysis derives orbital quantities from a completed trajectory
// store.
//
//   - [DominantPeriod]: period of the strongest oscillation in a sampled series
//   - [OrbitalPeriod]: period from the angle a body sweeps around the central body
//   - [NewPortrait]: XY projection of a body's path, renderable as ASCII
//
// # Period estimation
//
// The radius of an elliptical orbit oscillates once per revolution, so the
// spectral peak of the radius series gives the orbital period:
//
//	r, _ := store.Radius("Earth")
//	period, err := analysis.DominantPeriod(r, store.Dt())
//
// The swept-angle estimate needs no full revolution and is usually the
// sharper of the two for short runs.
package analysis
