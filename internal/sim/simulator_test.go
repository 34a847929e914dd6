package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/trajectory"
	"gonum.org/v1/gonum/spatial/r3"
)

const day = 86400.0

type clockRecorder struct {
	steps []int
	times []float64
}

func (c *clockRecorder) OnStep(step int, t float64, _ sim.System) {
	c.steps = append(c.steps, step)
	c.times = append(c.times, t)
}

type momentumProbe struct {
	start      r3.Vec
	scale, max float64
}

func (m *momentumProbe) OnStep(_ int, _ float64, sys sim.System) {
	p := sys.TotalMomentum()
	if d := r3.Norm(r3.Sub(p, m.start)) / m.scale; d > m.max {
		m.max = d
	}
}

type cancelAt struct {
	step   int
	cancel context.CancelFunc
}

func (c *cancelAt) OnStep(step int, _ float64, _ sim.System) {
	if step == c.step {
		c.cancel()
	}
}

type countingMetric struct{ n int }

func (c *countingMetric) Name() string                    { return "count" }
func (c *countingMetric) Observe(_ sim.System, _ float64) { c.n++ }
func (c *countingMetric) Value() float64                  { return float64(c.n) }
func (c *countingMetric) Reset()                          { c.n = 0 }

func simulate(cfg *config.Config) *trajectory.Store {
	store, err := sim.Simulate(context.Background(), cfg)
	Expect(err).NotTo(HaveOccurred())
	return store
}

func maxMomentumDrift(cfg *config.Config) float64 {
	s, loop, err := sim.FromConfig(cfg)
	Expect(err).NotTo(HaveOccurred())

	sys := s.System()
	probe := &momentumProbe{start: sys.TotalMomentum(), scale: sys.MomentumScale()}
	s.AddObserver(probe)

	_, err = s.Run(context.Background(), loop)
	Expect(err).NotTo(HaveOccurred())
	return probe.max
}

var _ = Describe("Simulator", func() {
	var (
		cfg *config.Config
		r0  float64
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		r0 = config.EarthAphelionAU * cfg.AU
	})

	Describe("one Earth year with a one day step", func() {
		It("records 365 aligned samples for every body", func() {
			store := simulate(cfg)

			Expect(store.Len()).To(Equal(365))
			Expect(store.Bodies()).To(Equal([]string{"Earth", "Sun"}))
			for _, name := range store.Bodies() {
				p, ok := store.Positions(name)
				Expect(ok).To(BeTrue())
				Expect(p).To(HaveLen(365))
			}
			Expect(store.Validate()).To(Succeed())
		})

		It("advances the clock by exactly dt per step", func() {
			s, loop, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			rec := &clockRecorder{}
			s.AddObserver(rec)

			res, err := s.Run(context.Background(), loop)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.times).To(HaveLen(365))
			for i, t := range rec.times {
				Expect(rec.steps[i]).To(Equal(i + 1))
				Expect(t).To(Equal(float64(i+1) * day))
			}
			Expect(res.FinalTime).To(Equal(365 * day))
			Expect(s.Clock()).To(Equal(365 * day))
		})

		It("matches the hand-computed first step", func() {
			store := simulate(cfg)

			earth, _ := store.Sample("Earth", 0)
			Expect(earth.X).To(BeNumerically("~", 152462183107.02853, 1))
			Expect(earth.Y).To(BeNumerically("~", 2530656000.0, 1e-3))
			Expect(earth.Z).To(BeZero())

			sun, _ := store.Sample("Sun", 0)
			Expect(sun.X).To(BeNumerically("~", 127.87021451564337, 1e-6))
			Expect(sun.Y).To(BeNumerically("~", 2.122464200569237, 1e-9))
		})

		It("keeps the orbit near-circular around 1.0167 AU", func() {
			store := simulate(cfg)
			radius, err := store.Radius("Earth")
			Expect(err).NotTo(HaveOccurred())

			// measured: 0.9608 r0 .. 1.0018 r0
			for _, r := range radius {
				Expect(r / r0).To(BeNumerically(">", 0.95))
				Expect(r / r0).To(BeNumerically("<", 1.01))
			}
		})

		It("returns close to its starting point after a year", func() {
			store := simulate(cfg)
			last, _ := store.Sample("Earth", store.Len()-1)

			// measured: 0.84% of r0 with the first-order step
			closure := dynamo.Distance(last, dynamo.Vec3{X: r0}) / r0
			Expect(closure).To(BeNumerically("<", 0.02))
		})

		It("lets the central body drift instead of pinning it", func() {
			store := simulate(cfg)
			sun, _ := store.Sample("Sun", store.Len()-1)
			Expect(r3.Norm(sun)).To(BeNumerically(">", 1e6))
		})
	})

	Describe("determinism", func() {
		It("produces bit-identical trajectories for identical input", func() {
			cfg = config.GetPreset("inner")
			a := simulate(cfg)
			b := simulate(cfg.Clone())

			for _, name := range a.Bodies() {
				pa, _ := a.Positions(name)
				pb, _ := b.Positions(name)
				Expect(pa).To(Equal(pb))
			}
		})

		It("produces the same trajectories with the parallel body phase", func() {
			serial := simulate(config.GetPreset("inner"))

			parallelCfg := config.GetPreset("inner")
			parallelCfg.Parallel = true
			parallel := simulate(parallelCfg)

			for _, name := range serial.Bodies() {
				ps, _ := serial.Positions(name)
				pp, _ := parallel.Positions(name)
				Expect(pp).To(Equal(ps))
			}
		})
	})

	Describe("momentum", func() {
		// The host reacts to the bodies' updated positions while the bodies
		// used its pre-step position, so momentum is conserved to first
		// order in dt rather than exactly.
		It("stays within a bounded drift over the run", func() {
			// measured: 3.52% of the summed momentum magnitudes
			Expect(maxMomentumDrift(cfg)).To(BeNumerically("<", 0.05))
		})

		It("does not grow over a decade", func() {
			year := maxMomentumDrift(cfg)
			decade := maxMomentumDrift(config.GetPreset("decade"))
			Expect(decade).To(BeNumerically("<", year*1.05))
		})

		It("shrinks linearly with the step", func() {
			coarse := maxMomentumDrift(cfg)

			fine := cfg.Clone()
			fine.DtDays = 0.25
			// measured: 0.88% at a quarter day
			Expect(maxMomentumDrift(fine)).To(BeNumerically("<", coarse/3))
		})
	})

	Describe("lifecycle", func() {
		It("moves from NotStarted to Completed and refuses a second run", func() {
			s, loop, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(sim.NotStarted))

			_, err = s.Run(context.Background(), loop)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Phase()).To(Equal(sim.Completed))
			Expect(s.StepsTaken()).To(Equal(365))

			_, err = s.Run(context.Background(), loop)
			Expect(err).To(MatchError(dynamo.ErrAlreadyRun))
		})

		It("reports every metric once per step plus the initial state", func() {
			s, loop, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			s.AddMetric(&countingMetric{})

			res, err := s.Run(context.Background(), loop)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("count", 366.0))
		})
	})

	Describe("failures", func() {
		It("rejects a body placed on the central body", func() {
			cfg.Bodies[0].DistanceAU = 0
			_, err := sim.Simulate(context.Background(), cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		})

		It("rejects coincident bodies built by hand before stepping", func() {
			sun, err := physics.NewCentralBody("Sun", config.SunMass)
			Expect(err).NotTo(HaveOccurred())
			ghost, err := physics.NewBody(physics.BodySpec{Name: "ghost", Mass: 1}, config.SunMass, config.DefaultG)
			Expect(err).NotTo(HaveOccurred())

			s := sim.New(sun, []*physics.Body{ghost}, integrators.NewEuler())
			_, err = s.Run(context.Background(), sim.Config{Dt: day, Duration: 10 * day})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
			Expect(s.Phase()).To(Equal(sim.NotStarted))
			Expect(ghost.TrajectoryLen()).To(BeZero())
		})

		It("rejects a non-positive step", func() {
			s, _, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			_, err = s.Run(context.Background(), sim.Config{Dt: 0, Duration: day})
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
		})

		It("surfaces a non-finite step as a numeric degeneracy", func() {
			cfg.DtDays = 1e300
			cfg.DurationDays = 1e300

			_, err := sim.Simulate(context.Background(), cfg)
			Expect(err).To(MatchError(dynamo.ErrNumericDegeneracy))

			var se *dynamo.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Body).To(Equal("Earth"))
			Expect(se.Step).To(Equal(0))
		})

		It("stops at a step boundary when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			s, loop, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			s.AddObserver(&cancelAt{step: 10, cancel: cancel})

			_, err = s.Run(ctx, loop)
			Expect(err).To(MatchError(dynamo.ErrCanceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(s.Phase()).To(Equal(sim.Failed))
			Expect(s.StepsTaken()).To(Equal(10))
		})
	})
})

var _ = Describe("Step limits", func() {
	DescribeTable("rejects runs longer than MaxSteps before allocating",
		func(dt, duration float64) {
			s, loop, err := sim.FromConfig(config.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			loop.Dt, loop.Duration = dt, duration

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			var res *sim.Result
			Expect(func() { res, err = s.Run(ctx, loop) }).NotTo(Panic())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfiguration))
			Expect(res).To(BeNil())
			Expect(s.StepsTaken()).To(Equal(0))
		},
		Entry("step count beyond int range", day, 1e30*day),
		Entry("tiny step", 1e-12*day, 365*day),
		Entry("one step over the cap", day, float64(dynamo.MaxSteps+1)*day),
	)

	It("accepts a run of exactly MaxSteps", func() {
		Expect(sim.StepCount(float64(dynamo.MaxSteps)*day, day)).To(Equal(dynamo.MaxSteps))
	})
})

var _ = Describe("StepCount", func() {
	DescribeTable("matches a while t < duration loop",
		func(duration, dt float64, want int) {
			Expect(sim.StepCount(duration, dt)).To(Equal(want))
		},
		Entry("one year in days", 365*day, day, 365),
		Entry("quarter days", 365*day, day/4, 1460),
		Entry("partial final step", 365.5*day, day, 366),
		Entry("single step", day, day, 1),
		Entry("saturates instead of overflowing", 1e30*day, day, math.MaxInt),
	)
})

var _ = Describe("Ensemble", func() {
	It("runs independent time steps concurrently and keeps order", func() {
		ens := sim.NewEnsemble(2)
		for _, dtDays := range []float64{1, 0.5, 0.25} {
			cfg := config.DefaultConfig()
			cfg.DtDays = dtDays
			s, loop, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			ens.Add(s, loop)
		}

		results, err := ens.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		Expect(results[0].Trajectories.Len()).To(Equal(365))
		Expect(results[1].Trajectories.Len()).To(Equal(730))
		Expect(results[2].Trajectories.Len()).To(Equal(1460))
	})

	It("fails when any member fails", func() {
		bad := config.DefaultConfig()
		bad.DtDays = 1e300
		bad.DurationDays = 1e300

		ens := sim.NewEnsemble(0)
		for _, cfg := range []*config.Config{config.DefaultConfig(), bad} {
			s, loop, err := sim.FromConfig(cfg)
			Expect(err).NotTo(HaveOccurred())
			ens.Add(s, loop)
		}

		_, err := ens.Run(context.Background())
		Expect(err).To(MatchError(dynamo.ErrNumericDegeneracy))
	})
})
