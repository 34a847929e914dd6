package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// MomentumDrift is the largest |P(t) - P(0)| over the run, relative to the
// summed momentum magnitudes at t=0.
type MomentumDrift struct {
	initial  dynamo.Vec3
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{}
}

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(sys sim.System, _ float64) {
	p := sys.TotalMomentum()
	if m.samples == 0 {
		m.initial = p
		m.scale = sys.MomentumScale()
	}
	m.samples++

	if m.scale > 0 {
		drift := r3.Norm(r3.Sub(p, m.initial)) / m.scale
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = dynamo.Vec3{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}
