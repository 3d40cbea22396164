// Package solver implements the exact rostering strategy: a parallel branch-and-bound
// over demand -> professional decisions, warm-started from the greedy allocation and
// bounded by an LP relaxation of coverage.
package solver

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/theatre-rota/pkg/core/allocator"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
	"github.com/jakechorley/theatre-rota/pkg/core/roster/criteria"
)

// Exact is the optimizing Solver. With more than one worker, equally cheap rosters
// may be returned in different runs; the cost is the same.
type Exact struct{}

func (Exact) Name() string {
	return string(model.ModeExact)
}

// Solve searches for a minimum-cost roster within opts.TimeBudget. When the budget
// expires or ctx is cancelled it returns the best roster found so far with status
// PARTIAL_OPTIMAL; it never fails because of scheduling pressure.
func (Exact) Solve(ctx context.Context, inst *roster.Instance, opts roster.Options) (*roster.Outcome, error) {
	opts = opts.Normalized()
	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}

	weights := opts.Weights()
	s := &search{
		inst:       inst,
		weights:    weights,
		coverage:   weights.EffectiveCoverageWeight(len(inst.Demands)),
		checkEvery: opts.CheckEvery,
	}

	// Warm start from the greedy allocation
	warm, err := allocator.Allocate(allocator.AllocationConfig{
		Instance: inst,
		Criteria: criteria.Hard(inst.Rules),
	})
	if err != nil {
		return nil, err
	}
	s.best = warm.State.Assigned
	s.bestCost = roster.Evaluate(inst, s.best, weights).Value

	lowerU, err := coverageBound(inst, opts.LPMaxCells)
	if err != nil {
		// Size limit or numerical failure: fall back to empty candidate sets
		lowerU = float64(uncoverable(inst))
	}
	s.globalBound = s.coverage * math.Ceil(lowerU-1e-6)
	if s.bestCost <= s.globalBound+epsilon {
		s.proven.Store(true)
	}

	if ctx.Err() != nil {
		s.expired.Store(true)
	}
	if !s.proven.Load() && !s.expired.Load() {
		run(ctx, s, opts.Workers)
	}

	optimal := s.proven.Load() || !s.expired.Load()

	state, err := roster.StateFromVector(inst, s.best)
	if err != nil {
		return nil, err
	}
	cost := roster.Evaluate(inst, s.best, weights)

	bestBound := s.globalBound
	if optimal {
		bestBound = cost.Value
	}

	status := model.StatusPartialOptimal
	if optimal {
		status = model.StatusSolved
	}
	if len(inst.Demands) > 0 && state.AssignedCount() == 0 {
		status = model.StatusNoCoverage
	}

	return &roster.Outcome{
		Assignments:   state.Assignments(),
		Unassigned:    state.UnassignedDemandIDs(),
		Status:        status,
		Cost:          cost,
		BestBound:     &bestBound,
		Optimal:       optimal,
		NodesExplored: s.nodes.Load(),
	}, nil
}

// run fans the root prefixes out to the workers and waits for them to finish or halt
func run(ctx context.Context, s *search, workers int) {
	prefixes := rootPrefixes(newWorker(ctx, s), workers)

	queue := make(chan []int, len(prefixes))
	for _, prefix := range prefixes {
		queue <- prefix
	}
	close(queue)

	var g errgroup.Group
	for i := 0; i < min(workers, len(prefixes)); i++ {
		g.Go(func() error {
			w := newWorker(ctx, s)
			for prefix := range queue {
				w.reset(prefix)
				w.dfs(len(prefix))
			}
			return nil
		})
	}
	_ = g.Wait()
}
