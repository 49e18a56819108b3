package workflow

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// RunBatch drives requests concurrently, at most parallel at a time,
// and returns the per-request states plus the successful decisions
// ordered most urgent first. Individual failures stay inside their
// state; the batch itself does not fail.
func (o *Orchestrator) RunBatch(ctx context.Context, reqs []Request, parallel int) []State {
	if parallel <= 0 {
		parallel = 4
	}

	states := make([]State, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, req := range reqs {
		g.Go(func() error {
			states[i] = o.Run(gctx, req)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	return states
}

// RankDecisions extracts the decisions from a batch, most urgent first.
// Failed and terminated runs contribute nothing.
func RankDecisions(states []State) []State {
	ranked := make([]State, 0, len(states))
	for _, s := range states {
		if s.Decision != nil && s.Succeeded() {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Decision.Urgency > ranked[j].Decision.Urgency
	})
	return ranked
}
