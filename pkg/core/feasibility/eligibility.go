package feasibility

import (
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// Rules toggles which eligibility predicates are hard constraints
type Rules struct {
	// SkillMatchHard makes demand.Skills ⊆ professional.Skills a hard constraint.
	// When false a missing skill only costs a mismatch penalty.
	SkillMatchHard bool
}

// IsAvailable returns true if no vacation interval of the professional overlaps [start, end).
// A professional with no vacation is always available.
func IsAvailable(p model.Professional, start, end time.Time) bool {
	return !OverlapsAny(start, end, p.Vacation)
}

// IsEligible returns true if the professional could, in isolation, cover the demand
func IsEligible(p model.Professional, d model.Demand, rules Rules) bool {
	return Explain(p, d, rules) == model.ExclusionNone
}

// Explain returns the first hard constraint ruling the professional out of the demand,
// or ExclusionNone if the professional is eligible.
//
// Checks run in the order: active, availability, pediatric, skills.
func Explain(p model.Professional, d model.Demand, rules Rules) model.Exclusion {
	if !p.Active {
		return model.ExclusionInactive
	}
	if !IsAvailable(p, d.Start, d.End) {
		return model.ExclusionUnavailable
	}
	if d.IsPediatric && !p.CanTreatPediatric {
		return model.ExclusionPediatric
	}
	if rules.SkillMatchHard && len(MissingSkills(p, d)) > 0 {
		return model.ExclusionSkills
	}
	return model.ExclusionNone
}

// MissingSkills returns the demand's required skills the professional does not hold
func MissingSkills(p model.Professional, d model.Demand) []string {
	var missing []string
	for _, skill := range d.Skills {
		if !p.HasSkill(skill) {
			missing = append(missing, skill)
		}
	}
	return missing
}
