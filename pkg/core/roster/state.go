package roster

import (
	"fmt"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// Unassigned marks a demand left without a professional
const Unassigned = -1

// State represents a (partial) roster during or after a solve
type State struct {
	Instance *Instance

	// Assigned maps each demand index to a professional index, or Unassigned
	Assigned []int

	// Committed lists, per professional index, the demand indices booked so far.
	// Vacation is not part of this; it lives on the professional.
	Committed [][]int
}

// NewState returns an empty roster for the instance
func NewState(inst *Instance) *State {
	assigned := make([]int, len(inst.Demands))
	for i := range assigned {
		assigned[i] = Unassigned
	}
	return &State{
		Instance:  inst,
		Assigned:  assigned,
		Committed: make([][]int, len(inst.Professionals)),
	}
}

// StateFromAssignments rebuilds a roster from id pairs. Unknown ids and demands
// assigned twice are rejected as malformed input.
func StateFromAssignments(inst *Instance, assignments []model.Assignment) (*State, error) {
	if err := feasibility.ValidateAssignments(assignments, inst.Demands, inst.Professionals); err != nil {
		return nil, err
	}
	state := NewState(inst)
	for _, a := range assignments {
		d, _ := inst.DemandIndex(a.DemandID)
		p, _ := inst.ProfessionalIndex(a.ProfessionalID)
		state.Assign(d, p)
	}
	return state, nil
}

// StateFromVector rebuilds a roster from a demand -> professional index vector
func StateFromVector(inst *Instance, assigned []int) (*State, error) {
	if len(assigned) != len(inst.Demands) {
		return nil, fmt.Errorf("assignment vector has %d entries for %d demands", len(assigned), len(inst.Demands))
	}
	state := NewState(inst)
	for d, p := range assigned {
		if p == Unassigned {
			continue
		}
		if p < 0 || p >= len(inst.Professionals) {
			return nil, fmt.Errorf("demand %q assigned to out of range professional %d", inst.Demands[d].ID, p)
		}
		state.Assign(d, p)
	}
	return state, nil
}

// Assign commits professional p to demand d
func (s *State) Assign(d, p int) {
	s.Assigned[d] = p
	s.Committed[p] = append(s.Committed[p], d)
}

// Load returns the number of demands committed to professional p
func (s *State) Load(p int) int {
	return len(s.Committed[p])
}

// IsBooked reports whether p already holds a demand overlapping demand d
func (s *State) IsBooked(p, d int) bool {
	target := s.Instance.Demands[d]
	for _, other := range s.Committed[p] {
		od := s.Instance.Demands[other]
		if feasibility.Overlaps(target.Start, target.End, od.Start, od.End) {
			return true
		}
	}
	return false
}

// AssignedCount returns the number of covered demands
func (s *State) AssignedCount() int {
	count := 0
	for _, p := range s.Assigned {
		if p != Unassigned {
			count++
		}
	}
	return count
}

// Assignments returns the roster as id pairs in demand order
func (s *State) Assignments() []model.Assignment {
	assignments := make([]model.Assignment, 0, len(s.Assigned))
	for d, p := range s.Assigned {
		if p == Unassigned {
			continue
		}
		assignments = append(assignments, model.Assignment{
			DemandID:       s.Instance.Demands[d].ID,
			ProfessionalID: s.Instance.Professionals[p].ID,
		})
	}
	return assignments
}

// UnassignedDemandIDs returns the uncovered demand ids in demand order
func (s *State) UnassignedDemandIDs() []string {
	ids := []string{}
	for d, p := range s.Assigned {
		if p == Unassigned {
			ids = append(ids, s.Instance.Demands[d].ID)
		}
	}
	return ids
}
