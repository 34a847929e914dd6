package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulators concurrently. Members never share
// bodies, so each run keeps its own step ordering intact.
type Ensemble struct {
	members []*Simulator
	cfgs    []Config
	limit   int
}

// NewEnsemble caps concurrent runs at limit; limit <= 0 means unbounded.
func NewEnsemble(limit int) *Ensemble {
	return &Ensemble{limit: limit}
}

func (e *Ensemble) Add(s *Simulator, cfg Config) {
	e.members = append(e.members, s)
	e.cfgs = append(e.cfgs, cfg)
}

func (e *Ensemble) Len() int { return len(e.members) }

// Run returns results in insertion order. The first failure cancels the
// remaining members.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.members))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := range e.members {
		i := i
		g.Go(func() error {
			res, err := e.members[i].Run(ctx, e.cfgs[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
