package sim

import (
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

// Phase is the lifecycle of a Simulator. There is no paused state; a
// caller that needs to stop a run cancels its context.
type Phase int

const (
	NotStarted Phase = iota
	Running
	Completed
	Failed
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// System is a read-only view of the bodies handed to metrics and observers.
type System struct {
	Central *physics.CentralBody
	Bodies  []*physics.Body
}

// TotalMomentum is the vector sum of mass*velocity over every body.
func (s System) TotalMomentum() dynamo.Vec3 {
	p := s.Central.Momentum()
	for _, b := range s.Bodies {
		p = r3.Add(p, b.Momentum())
	}
	return p
}

// MomentumScale is the sum of momentum magnitudes, the natural unit for
// momentum drift.
func (s System) MomentumScale() float64 {
	total := r3.Norm(s.Central.Momentum())
	for _, b := range s.Bodies {
		total += r3.Norm(b.Momentum())
	}
	return total
}

// TotalEnergy is the kinetic energy of every body plus the star-planet
// potential terms.
func (s System) TotalEnergy() float64 {
	e := s.Central.KineticEnergy()
	for _, b := range s.Bodies {
		e += b.KineticEnergy() + b.PotentialEnergy(s.Central)
	}
	return e
}

// Body finds an orbiting body by name.
func (s System) Body(name string) (*physics.Body, bool) {
	for _, b := range s.Bodies {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

type Integrator interface {
	Step(central *physics.CentralBody, bodies []*physics.Body, dt float64) error
}

type Metric interface {
	Name() string
	Observe(sys System, t float64)
	Value() float64
	Reset()
}

// Observer is told about every completed step; step counts completed
// steps and t equals step*dt.
type Observer interface {
	OnStep(step int, t float64, sys System)
}

type Config struct {
	Dt       float64
	Duration float64
}

type Result struct {
	Trajectories *trajectory.Store
	Metrics      map[string]float64
	StepsTaken   int
	FinalTime    float64
}
