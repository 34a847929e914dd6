package integrators

import (
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

// Euler is the explicit first-order step: every orbiting body advances
// against the central body's pre-step position, then the central body
// reacts to the bodies' updated positions.
type Euler struct {
	// Parallel fans the orbiting-body phase out over goroutines. The join
	// is the barrier before the central body moves.
	Parallel bool
	// MinChunk is the smallest number of bodies handed to one goroutine.
	MinChunk int
}

func NewEuler() *Euler {
	return &Euler{MinChunk: 1}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(central *physics.CentralBody, bodies []*physics.Body, dt float64) error {
	if e.Parallel && len(bodies) > 1 {
		dynamo.ParallelFor(len(bodies), e.MinChunk, func(start, end int) {
			for _, b := range bodies[start:end] {
				b.Advance(central, dt)
			}
		})
	} else {
		for _, b := range bodies {
			b.Advance(central, dt)
		}
	}

	central.AdvanceFromReaction(bodies, dt)

	for _, b := range bodies {
		if !b.Finite() {
			return &dynamo.SimulationError{Body: b.Name(), Wrapped: dynamo.ErrNumericDegeneracy}
		}
	}
	if !central.Finite() {
		return &dynamo.SimulationError{Body: central.Name(), Wrapped: dynamo.ErrNumericDegeneracy}
	}
	return nil
}
