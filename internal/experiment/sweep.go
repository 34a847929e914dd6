package experiment

import (
	"context"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/sim"
)

// SweepResult is one member of a time-step comparison.
type SweepResult struct {
	DtDays  float64
	Steps   int
	Metrics map[string]float64
	Result  *sim.Result
}

// Sweep runs base once per step size, at most limit runs at a time, and
// returns the results in the order of dtDays.
func Sweep(ctx context.Context, base *config.Config, dtDays []float64, limit int) ([]SweepResult, error) {
	reg := NewRegistry()
	ens := sim.NewEnsemble(limit)

	for _, dt := range dtDays {
		cfg := base.Clone()
		cfg.DtDays = dt

		exp := New("sweep", cfg)
		if err := exp.Setup(reg); err != nil {
			return nil, err
		}
		ens.Add(exp.simulator, exp.loop)
	}

	results, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, res := range results {
		out[i] = SweepResult{
			DtDays:  dtDays[i],
			Steps:   res.StepsTaken,
			Metrics: res.Metrics,
			Result:  res,
		}
	}
	return out, nil
}
