package physics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Positioned is anything a force can be measured against.
type Positioned interface {
	Position() dynamo.Vec3
}

// pointMass holds the state shared by orbiting and central bodies.
type pointMass struct {
	name       string
	mass       float64
	position   dynamo.Vec3
	velocity   dynamo.Vec3
	trajectory []dynamo.Vec3
}

func (p *pointMass) Name() string             { return p.name }
func (p *pointMass) Mass() float64            { return p.mass }
func (p *pointMass) Position() dynamo.Vec3    { return p.position }
func (p *pointMass) Velocity() dynamo.Vec3    { return p.velocity }
func (p *pointMass) Momentum() dynamo.Vec3    { return r3.Scale(p.mass, p.velocity) }
func (p *pointMass) TrajectoryLen() int       { return len(p.trajectory) }
func (p *pointMass) Finite() bool             { return dynamo.IsFinite(p.position) && dynamo.IsFinite(p.velocity) }
func (p *pointMass) KineticEnergy() float64   { return 0.5 * p.mass * r3.Norm2(p.velocity) }
func (p *pointMass) Sample(i int) dynamo.Vec3 { return p.trajectory[i] }

// Trajectory returns a copy of the recorded positions.
func (p *pointMass) Trajectory() []dynamo.Vec3 {
	out := make([]dynamo.Vec3, len(p.trajectory))
	copy(out, p.trajectory)
	return out
}

// Reserve grows the trajectory capacity to hold n more samples.
func (p *pointMass) Reserve(n int) {
	if n <= 0 {
		return
	}
	if cap(p.trajectory)-len(p.trajectory) < n {
		grown := make([]dynamo.Vec3, len(p.trajectory), len(p.trajectory)+n)
		copy(grown, p.trajectory)
		p.trajectory = grown
	}
}

// integrate applies force over dt: velocity first, then position from the
// updated velocity, then records the new position. The update stays
// component-wise as force*dt/mass, the operation order the simulator's
// first-step reference values were computed with.
func (p *pointMass) integrate(force dynamo.Vec3, dt float64) {
	p.velocity.X += force.X * dt / p.mass
	p.velocity.Y += force.Y * dt / p.mass
	p.velocity.Z += force.Z * dt / p.mass

	p.position.X += p.velocity.X * dt
	p.position.Y += p.velocity.Y * dt
	p.position.Z += p.velocity.Z * dt

	p.trajectory = append(p.trajectory, p.position)
}

// Body is a planet orbiting a CentralBody.
type Body struct {
	pointMass
	coupling float64
}

// BodySpec is the initial condition of an orbiting body.
type BodySpec struct {
	Name     string
	Mass     float64
	Position dynamo.Vec3
	Velocity dynamo.Vec3
}

// NewBody builds an orbiting body whose coupling factor G·mass·hostMass is
// fixed here and never recomputed.
func NewBody(spec BodySpec, hostMass, g float64) (*Body, error) {
	if spec.Mass <= 0 || !finite(spec.Mass) {
		return nil, dynamo.InvalidConfig("body %q: mass must be positive, got %g", spec.Name, spec.Mass)
	}
	if hostMass <= 0 || !finite(hostMass) {
		return nil, dynamo.InvalidConfig("body %q: host mass must be positive, got %g", spec.Name, hostMass)
	}
	if g <= 0 || !finite(g) {
		return nil, dynamo.InvalidConfig("gravitational constant must be positive, got %g", g)
	}
	if !dynamo.IsFinite(spec.Position) || !dynamo.IsFinite(spec.Velocity) {
		return nil, dynamo.InvalidConfig("body %q: initial state must be finite", spec.Name)
	}

	return &Body{
		pointMass: pointMass{
			name:     spec.Name,
			mass:     spec.Mass,
			position: spec.Position,
			velocity: spec.Velocity,
		},
		coupling: g * spec.Mass * hostMass,
	}, nil
}

// NewOrbitingBody places a body at aphelion: distance metres along +x with
// a purely tangential velocity along +y.
func NewOrbitingBody(name string, mass, hostMass, g, distance, aphelionVelocity float64) (*Body, error) {
	return NewBody(BodySpec{
		Name:     name,
		Mass:     mass,
		Position: dynamo.Vec3{X: distance},
		Velocity: dynamo.Vec3{Y: aphelionVelocity},
	}, hostMass, g)
}

func (b *Body) Coupling() float64 { return b.coupling }

// RelativeOffsetAndScale returns the displacement from other to b and the
// cubed distance used as the inverse-square denominator. scale is zero
// when the positions coincide.
func (b *Body) RelativeOffsetAndScale(other Positioned) (dynamo.Vec3, float64) {
	o := other.Position()
	offset := dynamo.Vec3{
		X: b.position.X - o.X,
		Y: b.position.Y - o.Y,
		Z: b.position.Z - o.Z,
	}
	scale := math.Pow(offset.X*offset.X+offset.Y*offset.Y+offset.Z*offset.Z, 1.5)
	return offset, scale
}

// GravitationalForce is the force on b toward other, evaluated per
// component in the same order as integrate.
func (b *Body) GravitationalForce(other Positioned) dynamo.Vec3 {
	offset, scale := b.RelativeOffsetAndScale(other)
	return dynamo.Vec3{
		X: -b.coupling * offset.X / scale,
		Y: -b.coupling * offset.Y / scale,
		Z: -b.coupling * offset.Z / scale,
	}
}

// PotentialEnergy is -coupling/|r| relative to other.
func (b *Body) PotentialEnergy(other Positioned) float64 {
	return -b.coupling / dynamo.Distance(b.position, other.Position())
}

// Advance moves b one explicit Euler step under the pull of other.
func (b *Body) Advance(other Positioned, dt float64) {
	b.integrate(b.GravitationalForce(other), dt)
}

// CentralBody is the host star. It carries no coupling of its own; its
// force is the reaction to the bodies orbiting it.
type CentralBody struct {
	pointMass
}

// NewCentralBody builds a host at rest at the origin.
func NewCentralBody(name string, mass float64) (*CentralBody, error) {
	if mass <= 0 || !finite(mass) {
		return nil, dynamo.InvalidConfig("central body %q: mass must be positive, got %g", name, mass)
	}
	return &CentralBody{pointMass: pointMass{name: name, mass: mass}}, nil
}

// ReactionForce is the net force on c: the negated sum of the forces its
// orbiting bodies feel, each computed with that body's coupling.
func (c *CentralBody) ReactionForce(bodies []*Body) dynamo.Vec3 {
	var total dynamo.Vec3
	for _, b := range bodies {
		f := b.GravitationalForce(c)
		total.X += f.X
		total.Y += f.Y
		total.Z += f.Z
	}
	return dynamo.Vec3{X: -total.X, Y: -total.Y, Z: -total.Z}
}

// AdvanceFromReaction moves c one explicit Euler step under the reaction
// of bodies at their current positions.
func (c *CentralBody) AdvanceFromReaction(bodies []*Body, dt float64) {
	c.integrate(c.ReactionForce(bodies), dt)
}

// ValidateSeparation rejects duplicate names and bodies that start at zero
// separation from the host.
func ValidateSeparation(central *CentralBody, bodies []*Body) error {
	seen := map[string]bool{central.name: true}
	for _, b := range bodies {
		if seen[b.name] {
			return dynamo.InvalidConfig("duplicate body name %q", b.name)
		}
		seen[b.name] = true

		if _, scale := b.RelativeOffsetAndScale(central); scale == 0 {
			return dynamo.InvalidConfig("body %q starts at zero separation from %q", b.name, central.name)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
