// Package criteria holds the hard constraints shared by every solving strategy
// and the cross-validator every solver outcome must pass.
package criteria

import (
	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

// Hard returns the hard constraints for the given rules
func Hard(rules feasibility.Rules) []roster.Criterion {
	criteria := []roster.Criterion{
		NewActiveCriterion(),
		NewAvailabilityCriterion(),
		NewPediatricCriterion(),
	}
	if rules.SkillMatchHard {
		criteria = append(criteria, NewSkillsCriterion())
	}
	return append(criteria, NewNoDoubleBookingCriterion())
}

// Check cross-validates a solver's assignments against the instance. Unknown ids are
// reported as feasibility.ErrUnknownReference; hard-constraint breaches as a
// *roster.ViolationError wrapping roster.ErrConstraintViolation.
func Check(inst *roster.Instance, assignments []model.Assignment) error {
	state, err := roster.StateFromAssignments(inst, assignments)
	if err != nil {
		return err
	}
	if violations := roster.ValidateRoster(state, Hard(inst.Rules)); len(violations) > 0 {
		return &roster.ViolationError{Violations: violations}
	}
	return nil
}
