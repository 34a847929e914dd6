package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/logger"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/trajectory"
)

// Simulator owns a central body, its orbiting bodies and the clock for
// the duration of one run.
type Simulator struct {
	central    *physics.CentralBody
	bodies     []*physics.Body
	integrator Integrator
	metrics    []Metric
	observers  []Observer
	log        *slog.Logger

	phase Phase
	step  int
	dt    float64
}

func New(central *physics.CentralBody, bodies []*physics.Body, integrator Integrator) *Simulator {
	return &Simulator{
		central:    central,
		bodies:     bodies,
		integrator: integrator,
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        logger.L(),
	}
}

func (s *Simulator) AddMetric(m Metric)       { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)   { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *slog.Logger) { s.log = l }
func (s *Simulator) Phase() Phase             { return s.phase }
func (s *Simulator) StepsTaken() int          { return s.step }
func (s *Simulator) System() System           { return System{Central: s.central, Bodies: s.bodies} }

// Clock is the elapsed simulated time. It is derived from the step
// counter so it never accumulates rounding.
func (s *Simulator) Clock() float64 {
	return float64(s.step) * s.dt
}

// StepCount is the number of steps a "while t < duration" loop takes.
// The small tolerance keeps an exact multiple such as 365 days / 1 day
// at 365 steps despite division rounding. Counts too large for an int
// saturate at math.MaxInt.
func StepCount(duration, dt float64) int {
	n := math.Ceil(duration/dt - 1e-9)
	switch {
	case !(n < float64(math.MaxInt)):
		return math.MaxInt
	case n < 0:
		return 0
	}
	return int(n)
}

// reserveLimit bounds the up-front trajectory allocation; longer runs grow
// by append.
const reserveLimit = 1 << 16

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if s.phase != NotStarted {
		return nil, dynamo.ErrAlreadyRun
	}
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	s.dt = cfg.Dt
	steps := StepCount(cfg.Duration, cfg.Dt)

	s.central.Reserve(min(steps, reserveLimit))
	for _, b := range s.bodies {
		b.Reserve(min(steps, reserveLimit))
	}

	sys := s.System()
	for _, m := range s.metrics {
		m.Reset()
		m.Observe(sys, 0)
	}

	s.phase = Running
	s.log.Info("sim.started", "bodies", len(s.bodies), "steps", steps, "dt", cfg.Dt)

	for s.step < steps {
		if err := ctx.Err(); err != nil {
			return nil, s.fail(fmt.Errorf("%w: %w", dynamo.ErrCanceled, err), "")
		}

		if err := s.integrator.Step(s.central, s.bodies, s.dt); err != nil {
			body := ""
			var se *dynamo.SimulationError
			if errors.As(err, &se) {
				body, err = se.Body, se.Wrapped
			}
			return nil, s.fail(err, body)
		}

		s.step++
		t := s.Clock()

		for _, m := range s.metrics {
			m.Observe(sys, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.step, t, sys)
		}
	}

	s.phase = Completed

	store, err := s.freeze()
	if err != nil {
		s.phase = Failed
		return nil, err
	}

	result := &Result{
		Trajectories: store,
		Metrics:      make(map[string]float64, len(s.metrics)),
		StepsTaken:   s.step,
		FinalTime:    s.Clock(),
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info("sim.completed", "steps", s.step, "t", result.FinalTime)
	return result, nil
}

func (s *Simulator) fail(err error, body string) error {
	s.phase = Failed
	simErr := &dynamo.SimulationError{Step: s.step, Time: s.Clock(), Body: body, Wrapped: err}
	s.log.Error("sim.failed", "step", s.step, "body", body, "err", err)
	return simErr
}

func (s *Simulator) validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return dynamo.InvalidConfig("dt must be positive, got %g", cfg.Dt)
	}
	if !(cfg.Duration > 0) || math.IsInf(cfg.Duration, 0) {
		return dynamo.InvalidConfig("duration must be positive, got %g", cfg.Duration)
	}
	if n := StepCount(cfg.Duration, cfg.Dt); n > dynamo.MaxSteps {
		return dynamo.InvalidConfig("duration %g s at dt %g s exceeds %d steps", cfg.Duration, cfg.Dt, dynamo.MaxSteps)
	}
	if s.central == nil || len(s.bodies) == 0 {
		return dynamo.InvalidConfig("a central body and at least one orbiting body are required")
	}
	return physics.ValidateSeparation(s.central, s.bodies)
}

// freeze copies the recorded histories into an immutable store, orbiting
// bodies first and the central body last.
func (s *Simulator) freeze() (*trajectory.Store, error) {
	store := trajectory.New(s.dt)
	for _, b := range s.bodies {
		if err := store.Add(b.Name(), false, b.Trajectory()); err != nil {
			return nil, err
		}
	}
	if err := store.Add(s.central.Name(), true, s.central.Trajectory()); err != nil {
		return nil, err
	}
	return store, nil
}

// Build creates the bodies described by cfg at their aphelion positions.
func Build(cfg *config.Config) (*physics.CentralBody, []*physics.Body, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	central, err := physics.NewCentralBody(cfg.Central.Name, cfg.Central.Mass)
	if err != nil {
		return nil, nil, err
	}

	bodies := make([]*physics.Body, 0, len(cfg.Bodies))
	for _, bc := range cfg.Bodies {
		b, err := physics.NewOrbitingBody(bc.Name, bc.Mass, cfg.Central.Mass, cfg.G, bc.DistanceAU*cfg.AU, bc.AphelionVelocity)
		if err != nil {
			return nil, nil, err
		}
		bodies = append(bodies, b)
	}

	if err := physics.ValidateSeparation(central, bodies); err != nil {
		return nil, nil, err
	}
	return central, bodies, nil
}

// FromConfig builds a ready-to-run simulator and its loop configuration.
func FromConfig(cfg *config.Config) (*Simulator, Config, error) {
	central, bodies, err := Build(cfg)
	if err != nil {
		return nil, Config{}, err
	}

	integ := integrators.NewEuler()
	integ.Parallel = cfg.Parallel

	return New(central, bodies, integ), Config{Dt: cfg.Dt(), Duration: cfg.Duration()}, nil
}

// Simulate runs cfg to completion and returns the recorded trajectories.
// Nothing outside the call observes the bodies while they move.
func Simulate(ctx context.Context, cfg *config.Config) (*trajectory.Store, error) {
	s, loopCfg, err := FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := s.Run(ctx, loopCfg)
	if err != nil {
		return nil, err
	}
	return result.Trajectories, nil
}
