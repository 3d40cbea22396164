package allocator

import (
	"context"
	"errors"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
	"github.com/jakechorley/theatre-rota/pkg/core/roster/criteria"
)

// Allocator manages a single greedy pass over the demands
type Allocator struct {
	criteria []roster.Criterion
	state    *roster.State
	queue    *RotationQueue
}

// Allocate runs the main allocation loop. Demands are visited in the instance's
// allocation order (start, priority desc, id); each goes to the first professional in
// rotation order that passes every criterion, who then moves to the back of the queue.
// There is no backtracking. A demand nobody can take is left unassigned.
func Allocate(config AllocationConfig) (*AllocationOutcome, error) {
	if config.Instance == nil {
		return nil, errors.New("allocation config has no instance")
	}

	allocator := &Allocator{
		criteria: config.Criteria,
		state:    roster.NewState(config.Instance),
		queue:    NewRotationQueue(config.Instance),
	}

	// Main allocation loop
	for d := range config.Instance.Demands {
		p, ok := allocator.findProfessional(d)
		if !ok {
			continue
		}

		allocator.state.Assign(d, p)
		allocator.queue.MoveToBack(p)
	}

	return allocator.buildOutcome(), nil
}

// findProfessional returns the first valid professional in rotation order.
// When skills are soft a full skill match anywhere in the queue is preferred over
// an earlier mismatched professional.
func (a *Allocator) findProfessional(d int) (int, bool) {
	inst := a.state.Instance

	fallback, found := -1, false
	for _, p := range a.queue.Order() {
		if !roster.IsAssignmentValid(a.state, d, p, a.criteria) {
			continue
		}
		if inst.Rules.SkillMatchHard || !inst.Mismatched(d, p) {
			return p, true
		}
		if !found {
			fallback, found = p, true
		}
	}

	return fallback, found
}

// buildOutcome creates the final allocation outcome report
func (a *Allocator) buildOutcome() *AllocationOutcome {
	// Initialize with empty slices (not nil) for easier consumption
	outcome := &AllocationOutcome{
		State:               a.state,
		UnassignedDemandIDs: a.state.UnassignedDemandIDs(),
		MismatchedDemandIDs: []string{},
	}

	inst := a.state.Instance
	for d, p := range a.state.Assigned {
		if p != roster.Unassigned && inst.Mismatched(d, p) {
			outcome.MismatchedDemandIDs = append(outcome.MismatchedDemandIDs, inst.Demands[d].ID)
		}
	}

	// Run validation
	outcome.ValidationErrors = roster.ValidateRoster(a.state, a.criteria)

	outcome.Success = len(outcome.UnassignedDemandIDs) == 0 && len(outcome.ValidationErrors) == 0

	return outcome
}

// Greedy is the deterministic single-pass Solver
type Greedy struct{}

func (Greedy) Name() string {
	return string(model.ModeGreedy)
}

// Solve allocates with the hard criteria for the instance's rules. It never blocks and
// ignores the context and time budget: its runtime is bounded by input size.
func (Greedy) Solve(_ context.Context, inst *roster.Instance, opts roster.Options) (*roster.Outcome, error) {
	allocation, err := Allocate(AllocationConfig{
		Instance: inst,
		Criteria: criteria.Hard(inst.Rules),
	})
	if err != nil {
		return nil, err
	}
	if len(allocation.ValidationErrors) > 0 {
		return nil, &roster.ViolationError{Violations: allocation.ValidationErrors}
	}

	state := allocation.State
	return &roster.Outcome{
		Assignments: state.Assignments(),
		Unassigned:  allocation.UnassignedDemandIDs,
		Status:      roster.CoverageStatus(len(inst.Demands), state.AssignedCount(), model.StatusPartialHeuristic),
		Cost:        roster.Evaluate(inst, state.Assigned, opts.Weights()),
	}, nil
}
