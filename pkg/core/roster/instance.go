package roster

import (
	"cmp"
	"slices"
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// Instance is one validated, immutable rostering problem: a hospital period, its demands
// and the professional pool. Both solving strategies and the diagnostics read the same
// Instance, so eligibility and overlap are computed once from the feasibility predicates.
type Instance struct {
	HospitalID  string
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Demands in allocation order: start asc, priority desc, id asc
	Demands []model.Demand

	// Professionals in rotation order: sequence asc, id asc
	Professionals []model.Professional

	Rules feasibility.Rules

	demandIndex       map[string]int
	professionalIndex map[string]int

	// eligible[d][p] caches feasibility.IsEligible
	eligible [][]bool
	// mismatched[d][p] is true when p lacks one of d's skills (only relevant when skills are soft)
	mismatched [][]bool
	// candidates[d] lists eligible professional indices in rotation order
	candidates [][]int
	// conflicts[d] lists the indices of other demands overlapping d
	conflicts [][]int

	activeCount int
}

// NewInstance validates the inputs and builds an Instance over copies of them.
// The caller's slices are never retained.
func NewInstance(hospitalID string, periodStart, periodEnd time.Time, demands []model.Demand, professionals []model.Professional, rules feasibility.Rules) (*Instance, error) {
	if err := feasibility.ValidatePeriod(periodStart, periodEnd); err != nil {
		return nil, err
	}
	if err := feasibility.ValidateDemands(demands); err != nil {
		return nil, err
	}
	if err := feasibility.ValidateProfessionals(professionals); err != nil {
		return nil, err
	}

	inst := &Instance{
		HospitalID:    hospitalID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Demands:       feasibility.SnapshotDemands(demands),
		Professionals: slices.Clone(professionals),
		Rules:         rules,
	}
	for i := range inst.Professionals {
		inst.Professionals[i].Skills = slices.Clone(professionals[i].Skills)
		inst.Professionals[i].Vacation = slices.Clone(professionals[i].Vacation)
	}

	SortDemands(inst.Demands)
	SortProfessionals(inst.Professionals)
	inst.index()

	return inst, nil
}

// SortDemands orders demands by start, then priority (emergency first), then id
func SortDemands(demands []model.Demand) {
	slices.SortFunc(demands, func(a, b model.Demand) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Priority.Rank(), a.Priority.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortProfessionals orders professionals by rotation sequence, then id
func SortProfessionals(professionals []model.Professional) {
	slices.SortFunc(professionals, func(a, b model.Professional) int {
		if c := cmp.Compare(a.Sequence, b.Sequence); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (inst *Instance) index() {
	nd, np := len(inst.Demands), len(inst.Professionals)

	inst.demandIndex = make(map[string]int, nd)
	for i, d := range inst.Demands {
		inst.demandIndex[d.ID] = i
	}
	inst.professionalIndex = make(map[string]int, np)
	for i, p := range inst.Professionals {
		inst.professionalIndex[p.ID] = i
		if p.Active {
			inst.activeCount++
		}
	}

	inst.eligible = make([][]bool, nd)
	inst.mismatched = make([][]bool, nd)
	inst.candidates = make([][]int, nd)
	inst.conflicts = make([][]int, nd)
	for di, d := range inst.Demands {
		inst.eligible[di] = make([]bool, np)
		inst.mismatched[di] = make([]bool, np)
		for pi, p := range inst.Professionals {
			if feasibility.IsEligible(p, d, inst.Rules) {
				inst.eligible[di][pi] = true
				inst.candidates[di] = append(inst.candidates[di], pi)
			}
			inst.mismatched[di][pi] = len(feasibility.MissingSkills(p, d)) > 0
		}
		for oi, o := range inst.Demands {
			if oi != di && feasibility.Overlaps(d.Start, d.End, o.Start, o.End) {
				inst.conflicts[di] = append(inst.conflicts[di], oi)
			}
		}
	}
}

// DemandIndex resolves a demand id to its position in Demands
func (inst *Instance) DemandIndex(id string) (int, bool) {
	i, ok := inst.demandIndex[id]
	return i, ok
}

// ProfessionalIndex resolves a professional id to its position in Professionals
func (inst *Instance) ProfessionalIndex(id string) (int, bool) {
	i, ok := inst.professionalIndex[id]
	return i, ok
}

// Eligible reports whether professional p may be assigned demand d under the hard rules
func (inst *Instance) Eligible(d, p int) bool {
	return inst.eligible[d][p]
}

// Mismatched reports whether assigning p to d leaves a required skill uncovered.
// Always false for eligible pairs when skills are a hard constraint.
func (inst *Instance) Mismatched(d, p int) bool {
	return inst.mismatched[d][p]
}

// Candidates returns the professionals eligible for demand d, in rotation order
func (inst *Instance) Candidates(d int) []int {
	return inst.candidates[d]
}

// Conflicts returns the demands whose window overlaps demand d
func (inst *Instance) Conflicts(d int) []int {
	return inst.conflicts[d]
}

// ActiveCount is the number of active professionals
func (inst *Instance) ActiveCount() int {
	return inst.activeCount
}

// RotationRank returns p's normalized position in rotation order, in [0, 1)
func (inst *Instance) RotationRank(p int) float64 {
	return float64(p) / float64(len(inst.Professionals))
}
