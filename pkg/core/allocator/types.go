package allocator

import (
	"slices"

	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

// AllocationConfig contains the configuration for creating a new Allocator
type AllocationConfig struct {
	// Instance is the validated problem to allocate
	Instance *roster.Instance

	// Criteria are the hard constraints every assignment must pass
	// (usually criteria.Hard(instance.Rules))
	Criteria []roster.Criterion
}

// AllocationOutcome represents the result of a greedy allocation
type AllocationOutcome struct {
	// State is the final roster after allocation
	State *roster.State

	// Success indicates whether every demand was covered
	Success bool

	// UnassignedDemandIDs lists demands no professional could take, in allocation order
	UnassignedDemandIDs []string

	// MismatchedDemandIDs lists demands covered by a professional missing a required skill
	// (only possible when skills are soft)
	MismatchedDemandIDs []string

	// ValidationErrors contains any hard-constraint violations found in the final roster
	ValidationErrors []roster.Violation
}

// RotationQueue is the round-robin order in which professionals are offered demands.
// The professional who takes a demand moves to the back.
type RotationQueue struct {
	order []int
}

// NewRotationQueue seeds the queue with every professional in rotation order
func NewRotationQueue(inst *roster.Instance) *RotationQueue {
	order := make([]int, len(inst.Professionals))
	for i := range order {
		order[i] = i
	}
	return &RotationQueue{order: order}
}

// Order returns the current queue, front first
func (q *RotationQueue) Order() []int {
	return q.order
}

// MoveToBack advances the professional's rotation position to the end of the queue
func (q *RotationQueue) MoveToBack(p int) {
	i := slices.Index(q.order, p)
	if i < 0 {
		return
	}
	q.order = append(slices.Delete(q.order, i, i+1), p)
}
