package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/sim"
)

// Experiment is one configured run: bodies, integrator and metrics built
// from a configuration, ready to execute once.
type Experiment struct {
	Name      string
	cfg       *config.Config
	simulator *sim.Simulator
	loop      sim.Config
}

func New(name string, cfg *config.Config) *Experiment {
	return &Experiment{Name: name, cfg: cfg}
}

func (e *Experiment) Setup(reg *Registry) error {
	central, bodies, err := sim.Build(e.cfg)
	if err != nil {
		return err
	}

	integ, err := reg.GetIntegrator(IntegratorFor(e.cfg))
	if err != nil {
		return err
	}

	e.simulator = sim.New(central, bodies, integ)
	for _, m := range reg.DefaultMetrics(e.cfg) {
		e.simulator.AddMetric(m)
	}
	e.loop = sim.Config{Dt: e.cfg.Dt(), Duration: e.cfg.Duration()}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.loop)
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
