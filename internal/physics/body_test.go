package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

const (
	testG   = 6.67e-11
	testAU  = 1.5e11
	sunMass = 2.0e30
	earthM  = 5.972e24
	earthV  = 29290.0
	day     = 86400.0
)

func newEarth(t *testing.T) *Body {
	t.Helper()
	b, err := NewOrbitingBody("Earth", earthM, sunMass, testG, 1.0167*testAU, earthV)
	if err != nil {
		t.Fatalf("NewOrbitingBody: %v", err)
	}
	return b
}

func newSun(t *testing.T) *CentralBody {
	t.Helper()
	c, err := NewCentralBody("Sun", sunMass)
	if err != nil {
		t.Fatalf("NewCentralBody: %v", err)
	}
	return c
}

func TestNewBodyRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		spec     BodySpec
		hostMass float64
		g        float64
	}{
		{"zero mass", BodySpec{Name: "a", Mass: 0, Position: dynamo.Vec3{X: 1}}, sunMass, testG},
		{"negative mass", BodySpec{Name: "a", Mass: -1, Position: dynamo.Vec3{X: 1}}, sunMass, testG},
		{"NaN mass", BodySpec{Name: "a", Mass: math.NaN(), Position: dynamo.Vec3{X: 1}}, sunMass, testG},
		{"zero host", BodySpec{Name: "a", Mass: 1, Position: dynamo.Vec3{X: 1}}, 0, testG},
		{"zero G", BodySpec{Name: "a", Mass: 1, Position: dynamo.Vec3{X: 1}}, sunMass, 0},
		{"infinite position", BodySpec{Name: "a", Mass: 1, Position: dynamo.Vec3{X: math.Inf(1)}}, sunMass, testG},
		{"NaN velocity", BodySpec{Name: "a", Mass: 1, Position: dynamo.Vec3{X: 1}, Velocity: dynamo.Vec3{Y: math.NaN()}}, sunMass, testG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBody(tt.spec, tt.hostMass, tt.g)
			if !errors.Is(err, dynamo.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestNewCentralBodyRejectsNonPositiveMass(t *testing.T) {
	for _, m := range []float64{0, -2e30, math.Inf(1)} {
		if _, err := NewCentralBody("Sun", m); !errors.Is(err, dynamo.ErrInvalidConfiguration) {
			t.Errorf("mass %g: expected ErrInvalidConfiguration, got %v", m, err)
		}
	}
}

func TestOrbitingBodyStartsAtAphelion(t *testing.T) {
	b := newEarth(t)

	if b.Position() != (dynamo.Vec3{X: 1.0167 * testAU}) {
		t.Errorf("unexpected start position %v", b.Position())
	}
	if b.Velocity() != (dynamo.Vec3{Y: earthV}) {
		t.Errorf("unexpected start velocity %v", b.Velocity())
	}
	if want := testG * earthM * sunMass; b.Coupling() != want {
		t.Errorf("coupling = %g, want %g", b.Coupling(), want)
	}
	if b.TrajectoryLen() != 0 {
		t.Errorf("trajectory should start empty, has %d samples", b.TrajectoryLen())
	}
}

func TestRelativeOffsetAndScale(t *testing.T) {
	b, err := NewBody(BodySpec{Name: "p", Mass: 1, Position: dynamo.Vec3{X: 3, Y: 4}}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	c := newSun(t)

	offset, scale := b.RelativeOffsetAndScale(c)
	if offset != (dynamo.Vec3{X: 3, Y: 4}) {
		t.Errorf("offset = %v", offset)
	}
	if math.Abs(scale-125) > 1e-9 {
		t.Errorf("scale = %v, want 125", scale)
	}
}

func TestGravitationalForcePointsAtHost(t *testing.T) {
	b := newEarth(t)
	c := newSun(t)

	f := b.GravitationalForce(c)
	r := 1.0167 * testAU
	want := -testG * earthM * sunMass / (r * r)

	if f.Y != 0 || f.Z != 0 {
		t.Errorf("force should lie on the x axis, got %v", f)
	}
	if math.Abs(f.X-want)/math.Abs(want) > 1e-12 {
		t.Errorf("force = %g, want %g", f.X, want)
	}
}

func TestAdvanceUpdatesVelocityThenPosition(t *testing.T) {
	b := newEarth(t)
	c := newSun(t)

	r := 1.0167 * testAU
	f := b.GravitationalForce(c)
	b.Advance(c, day)

	vx := f.X * day / earthM
	wantPos := dynamo.Vec3{X: r + vx*day, Y: earthV * day}

	if math.Abs(b.Velocity().X-vx) > 1e-12*math.Abs(vx) {
		t.Errorf("vx = %g, want %g", b.Velocity().X, vx)
	}
	if b.Velocity().Y != earthV {
		t.Errorf("vy changed: %g", b.Velocity().Y)
	}
	if dynamo.Distance(b.Position(), wantPos) > 1e-3 {
		t.Errorf("position = %v, want %v", b.Position(), wantPos)
	}
	if b.TrajectoryLen() != 1 || b.Sample(0) != b.Position() {
		t.Errorf("expected one recorded sample equal to the position")
	}
}

func TestAdvanceFromReactionIsNewtonsThirdLaw(t *testing.T) {
	b := newEarth(t)
	c := newSun(t)

	onBody := b.GravitationalForce(c)
	onHost := c.ReactionForce([]*Body{b})

	if onHost.X != -onBody.X || onHost.Y != -onBody.Y || onHost.Z != -onBody.Z {
		t.Errorf("reaction %v is not the negation of %v", onHost, onBody)
	}

	c.AdvanceFromReaction([]*Body{b}, day)

	wantVx := onHost.X * day / sunMass
	if math.Abs(c.Velocity().X-wantVx) > 1e-12*math.Abs(wantVx) {
		t.Errorf("host vx = %g, want %g", c.Velocity().X, wantVx)
	}
	if c.TrajectoryLen() != 1 {
		t.Errorf("host should record one sample, has %d", c.TrajectoryLen())
	}

	// equal and opposite impulses leave total momentum where it was
	b.integrate(onBody, day)
	impulse := math.Abs(onBody.X * day)
	if sum := b.Momentum().X + c.Momentum().X; math.Abs(sum) > 1e-9*impulse {
		t.Errorf("x momentum not conserved: %g (impulse %g)", sum, impulse)
	}
}

func TestReactionSumsEveryBody(t *testing.T) {
	c := newSun(t)
	left, _ := NewOrbitingBody("left", earthM, sunMass, testG, -testAU, 0)
	right, _ := NewOrbitingBody("right", earthM, sunMass, testG, testAU, 0)

	f := c.ReactionForce([]*Body{left, right})
	if math.Abs(f.X) > 1e-6*left.GravitationalForce(c).X {
		t.Errorf("symmetric bodies should cancel, got %v", f)
	}
}

func TestValidateSeparation(t *testing.T) {
	c := newSun(t)
	coincident, err := NewBody(BodySpec{Name: "ghost", Mass: earthM}, sunMass, testG)
	if err != nil {
		t.Fatal(err)
	}

	if err := ValidateSeparation(c, []*Body{newEarth(t), coincident}); !errors.Is(err, dynamo.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for zero separation, got %v", err)
	}
	if err := ValidateSeparation(c, []*Body{newEarth(t), newEarth(t)}); !errors.Is(err, dynamo.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration for duplicate names, got %v", err)
	}
	if err := ValidateSeparation(c, []*Body{newEarth(t)}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTrajectoryIsACopy(t *testing.T) {
	b := newEarth(t)
	c := newSun(t)
	b.Reserve(4)
	b.Advance(c, day)

	traj := b.Trajectory()
	traj[0].X = 0
	if b.Sample(0).X == 0 {
		t.Error("Trajectory must not alias the recorded samples")
	}
}

func TestEnergyHelpers(t *testing.T) {
	b := newEarth(t)
	c := newSun(t)

	if want := 0.5 * earthM * earthV * earthV; math.Abs(b.KineticEnergy()-want) > 1e-9*want {
		t.Errorf("kinetic = %g, want %g", b.KineticEnergy(), want)
	}
	if want := -testG * earthM * sunMass / (1.0167 * testAU); math.Abs(b.PotentialEnergy(c)-want) > 1e-9*math.Abs(want) {
		t.Errorf("potential = %g, want %g", b.PotentialEnergy(c), want)
	}
	if !b.Finite() || !c.Finite() {
		t.Error("fresh bodies should be finite")
	}
}
