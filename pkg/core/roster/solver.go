package roster

import (
	"context"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// Solver is a solving strategy over a shared Instance
type Solver interface {
	// Name identifies the strategy, e.g. "greedy" or "exact"
	Name() string

	// Solve assigns demands to professionals. Scheduling pressure never produces an error:
	// demands that cannot be covered are reported as unassigned.
	Solve(ctx context.Context, inst *Instance, opts Options) (*Outcome, error)
}

// Outcome is a solver's result
type Outcome struct {
	Assignments []model.Assignment
	Unassigned  []string
	Status      model.SolveStatus

	// Cost of the returned roster
	Cost Cost

	// BestBound is a proven lower bound on the optimal objective value (exact only)
	BestBound *float64

	// Optimal is set when the exact search proved the roster optimal
	Optimal bool

	// NodesExplored counts branch-and-bound nodes (exact only)
	NodesExplored int64
}

// CoverageStatus derives the status of a roster: NO_COVERAGE when demands exist and none
// is covered, SOLVED when all are covered, otherwise the supplied partial status.
func CoverageStatus(demandCount, assignedCount int, partial model.SolveStatus) model.SolveStatus {
	switch {
	case demandCount > 0 && assignedCount == 0:
		return model.StatusNoCoverage
	case assignedCount == demandCount:
		return model.StatusSolved
	default:
		return partial
	}
}
