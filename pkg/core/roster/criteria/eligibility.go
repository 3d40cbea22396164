package criteria

import (
	"fmt"
	"strings"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

// ActiveCriterion excludes inactive professionals from solving.
//
// Validity:
//   - Returns false if the professional is inactive
type ActiveCriterion struct{}

func NewActiveCriterion() *ActiveCriterion {
	return &ActiveCriterion{}
}

func (c *ActiveCriterion) Name() string {
	return "Active"
}

func (c *ActiveCriterion) IsAssignmentValid(state *roster.State, d, p int) bool {
	return state.Instance.Professionals[p].Active
}

func (c *ActiveCriterion) ValidateRoster(state *roster.State) []roster.Violation {
	return validateEach(state, c.Name(), func(demand model.Demand, professional model.Professional) string {
		if !professional.Active {
			return "professional is inactive"
		}
		return ""
	})
}

// AvailabilityCriterion keeps demands out of professionals' vacation.
//
// Validity:
//   - Returns false if any vacation interval overlaps the demand window
type AvailabilityCriterion struct{}

func NewAvailabilityCriterion() *AvailabilityCriterion {
	return &AvailabilityCriterion{}
}

func (c *AvailabilityCriterion) Name() string {
	return "Availability"
}

func (c *AvailabilityCriterion) IsAssignmentValid(state *roster.State, d, p int) bool {
	demand := state.Instance.Demands[d]
	return feasibility.IsAvailable(state.Instance.Professionals[p], demand.Start, demand.End)
}

func (c *AvailabilityCriterion) ValidateRoster(state *roster.State) []roster.Violation {
	return validateEach(state, c.Name(), func(demand model.Demand, professional model.Professional) string {
		if !feasibility.IsAvailable(professional, demand.Start, demand.End) {
			return "demand overlaps vacation"
		}
		return ""
	})
}

// PediatricCriterion reserves pediatric demands for pediatric-capable professionals.
//
// Validity:
//   - Returns false if the demand is pediatric and the professional cannot treat children
type PediatricCriterion struct{}

func NewPediatricCriterion() *PediatricCriterion {
	return &PediatricCriterion{}
}

func (c *PediatricCriterion) Name() string {
	return "Pediatric"
}

func (c *PediatricCriterion) IsAssignmentValid(state *roster.State, d, p int) bool {
	return !state.Instance.Demands[d].IsPediatric || state.Instance.Professionals[p].CanTreatPediatric
}

func (c *PediatricCriterion) ValidateRoster(state *roster.State) []roster.Violation {
	return validateEach(state, c.Name(), func(demand model.Demand, professional model.Professional) string {
		if demand.IsPediatric && !professional.CanTreatPediatric {
			return "pediatric demand assigned to professional without pediatric eligibility"
		}
		return ""
	})
}

// SkillsCriterion requires every demand skill to be held by the professional.
// Only used when skill matching is a hard constraint.
type SkillsCriterion struct{}

func NewSkillsCriterion() *SkillsCriterion {
	return &SkillsCriterion{}
}

func (c *SkillsCriterion) Name() string {
	return "Skills"
}

func (c *SkillsCriterion) IsAssignmentValid(state *roster.State, d, p int) bool {
	return len(feasibility.MissingSkills(state.Instance.Professionals[p], state.Instance.Demands[d])) == 0
}

func (c *SkillsCriterion) ValidateRoster(state *roster.State) []roster.Violation {
	return validateEach(state, c.Name(), func(demand model.Demand, professional model.Professional) string {
		if missing := feasibility.MissingSkills(professional, demand); len(missing) > 0 {
			return fmt.Sprintf("missing skills: %s", strings.Join(missing, ", "))
		}
		return ""
	})
}

// validateEach reports a violation for every assignment where check returns a description
func validateEach(state *roster.State, name string, check func(model.Demand, model.Professional) string) []roster.Violation {
	var violations []roster.Violation
	for d, p := range state.Assigned {
		if p == roster.Unassigned {
			continue
		}
		demand := state.Instance.Demands[d]
		professional := state.Instance.Professionals[p]
		if description := check(demand, professional); description != "" {
			violations = append(violations, roster.Violation{
				DemandID:       demand.ID,
				ProfessionalID: professional.ID,
				CriterionName:  name,
				Description:    description,
			})
		}
	}
	return violations
}
