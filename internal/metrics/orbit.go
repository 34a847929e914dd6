package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/sim"
)

// RadiusSpread follows one body's distance from the central body. Value is
// (max-min)/initial.
type RadiusSpread struct {
	body     string
	initial  float64
	min, max float64
	samples  int
}

func NewRadiusSpread(body string) *RadiusSpread {
	return &RadiusSpread{body: body}
}

func (r *RadiusSpread) Name() string { return "radius_spread_" + r.body }

func (r *RadiusSpread) Observe(sys sim.System, _ float64) {
	b, ok := sys.Body(r.body)
	if !ok {
		return
	}
	d := dynamo.Distance(b.Position(), sys.Central.Position())

	if r.samples == 0 {
		r.initial, r.min, r.max = d, d, d
	}
	r.samples++
	r.min = math.Min(r.min, d)
	r.max = math.Max(r.max, d)
}

func (r *RadiusSpread) Value() float64 {
	if r.initial == 0 {
		return 0
	}
	return (r.max - r.min) / r.initial
}

// Min and Max are relative to the initial radius.
func (r *RadiusSpread) Min() float64 { return ratio(r.min, r.initial) }
func (r *RadiusSpread) Max() float64 { return ratio(r.max, r.initial) }

func (r *RadiusSpread) Reset() {
	r.initial, r.min, r.max = 0, 0, 0
	r.samples = 0
}

// Closure is the distance between a body's latest and initial positions,
// relative to its initial radius. After one orbital period it measures how
// far the orbit failed to close.
type Closure struct {
	body    string
	start   dynamo.Vec3
	radius  float64
	last    dynamo.Vec3
	samples int
}

func NewClosure(body string) *Closure {
	return &Closure{body: body}
}

func (c *Closure) Name() string { return "closure_" + c.body }

func (c *Closure) Observe(sys sim.System, _ float64) {
	b, ok := sys.Body(c.body)
	if !ok {
		return
	}
	if c.samples == 0 {
		c.start = b.Position()
		c.radius = dynamo.Distance(b.Position(), sys.Central.Position())
	}
	c.samples++
	c.last = b.Position()
}

func (c *Closure) Value() float64 {
	return ratio(dynamo.Distance(c.last, c.start), c.radius)
}

func (c *Closure) Reset() {
	c.start, c.last = dynamo.Vec3{}, dynamo.Vec3{}
	c.radius = 0
	c.samples = 0
}

func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
