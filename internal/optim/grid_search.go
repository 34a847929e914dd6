package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/experiment"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs one experiment per grid point and returns the parameters
// with the lowest value of metricName. Points whose experiment fails to
// build or run are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid search: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams)

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("grid search: no grid point produced %s", metricName)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			return
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return
		}

		val, ok := result.Metrics[metricName]
		if ok && val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams)
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// VelocityBuilder returns an experiment builder that sets the aphelion
// velocity of every body named in params.
func VelocityBuilder(base *config.Config, reg *experiment.Registry) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			found := false
			for i := range cfg.Bodies {
				if cfg.Bodies[i].Name == name {
					cfg.Bodies[i].AphelionVelocity = v
					found = true
				}
			}
			if !found {
				return nil, fmt.Errorf("unknown body %q", name)
			}
		}

		exp := experiment.New(cfg.Name, cfg)
		if err := exp.Setup(reg); err != nil {
			return nil, err
		}
		return exp, nil
	}
}
