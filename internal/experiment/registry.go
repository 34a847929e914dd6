package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/integrators"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/sim"
)

type Registry struct {
	integrators map[string]func() sim.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() sim.Integrator),
	}

	r.integrators["euler"] = func() sim.Integrator { return integrators.NewEuler() }
	r.integrators["euler-parallel"] = func() sim.Integrator {
		e := integrators.NewEuler()
		e.Parallel = true
		return e
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (sim.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IntegratorFor names the integrator a configuration asks for.
func IntegratorFor(cfg *config.Config) string {
	if cfg.Parallel {
		return "euler-parallel"
	}
	return "euler"
}

// DefaultMetrics tracks conservation for the whole system and orbit shape
// for every orbiting body.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	ms := []sim.Metric{
		metrics.NewMomentumDrift(),
		metrics.NewEnergyDrift(),
	}
	for _, b := range cfg.Bodies {
		ms = append(ms, metrics.NewRadiusSpread(b.Name), metrics.NewClosure(b.Name))
	}
	return ms
}
