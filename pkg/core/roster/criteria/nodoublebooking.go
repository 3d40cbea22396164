package criteria

import (
	"fmt"
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

// NoDoubleBookingCriterion prevents a professional from holding two overlapping demands.
//
// Validity:
//   - Returns false if the professional already holds a demand whose window overlaps
//   - Demands that merely touch (one ends as the other starts) do not collide
type NoDoubleBookingCriterion struct{}

func NewNoDoubleBookingCriterion() *NoDoubleBookingCriterion {
	return &NoDoubleBookingCriterion{}
}

func (c *NoDoubleBookingCriterion) Name() string {
	return "NoDoubleBooking"
}

func (c *NoDoubleBookingCriterion) IsAssignmentValid(state *roster.State, d, p int) bool {
	return !state.IsBooked(p, d)
}

func (c *NoDoubleBookingCriterion) ValidateRoster(state *roster.State) []roster.Violation {
	var violations []roster.Violation

	// Pairwise on the assignment vector itself, independent of Committed
	held := make([][]int, len(state.Instance.Professionals))
	for d, p := range state.Assigned {
		if p != roster.Unassigned {
			held[p] = append(held[p], d)
		}
	}

	for p, demands := range held {
		professional := state.Instance.Professionals[p]
		for i := 0; i < len(demands); i++ {
			for j := i + 1; j < len(demands); j++ {
				a := state.Instance.Demands[demands[i]]
				b := state.Instance.Demands[demands[j]]
				if feasibility.Overlaps(a.Start, a.End, b.Start, b.End) {
					violations = append(violations, roster.Violation{
						DemandID:       b.ID,
						ProfessionalID: professional.ID,
						CriterionName:  c.Name(),
						Description: fmt.Sprintf("overlaps demand %q [%s, %s)", a.ID,
							a.Start.Format(time.RFC3339), a.End.Format(time.RFC3339)),
					})
				}
			}
		}
	}

	return violations
}
