package allocator

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
	"github.com/jakechorley/theatre-rota/pkg/core/roster/criteria"
	"github.com/jakechorley/theatre-rota/pkg/core/roster/rostertest"
)

var at = rostertest.At

func newInstance(t *testing.T, demands []model.Demand, professionals []model.Professional, rules feasibility.Rules) *roster.Instance {
	t.Helper()
	inst, err := roster.NewInstance("h1", at(0, 0), at(23, 0), demands, professionals, rules)
	require.NoError(t, err)
	return inst
}

func solveGreedy(t *testing.T, inst *roster.Instance) *roster.Outcome {
	t.Helper()
	outcome, err := Greedy{}.Solve(context.Background(), inst, roster.DefaultOptions())
	require.NoError(t, err)
	return outcome
}

func TestAllocate_RequiresInstance(t *testing.T) {
	_, err := Allocate(AllocationConfig{})
	assert.Error(t, err)
}

func TestAllocate_OverlappingDemandsOneProfessional(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{
			{ID: "D1", Start: at(8, 0), End: at(10, 0)},
			{ID: "D2", Start: at(9, 0), End: at(11, 0)},
		},
		[]model.Professional{{ID: "P1", Active: true}},
		feasibility.Rules{SkillMatchHard: true})

	outcome := solveGreedy(t, inst)

	assert.Equal(t, []model.Assignment{{DemandID: "D1", ProfessionalID: "P1"}}, outcome.Assignments)
	assert.Equal(t, []string{"D2"}, outcome.Unassigned)
	assert.Equal(t, model.StatusPartialHeuristic, outcome.Status)
}

func TestAllocate_SequentialDemandsSameProfessional(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{
			{ID: "D3", Start: at(12, 0), End: at(13, 0)},
			{ID: "D1", Start: at(8, 0), End: at(9, 0)},
			{ID: "D2", Start: at(9, 0), End: at(12, 0)},
		},
		[]model.Professional{{ID: "P1", Active: true}},
		feasibility.Rules{SkillMatchHard: true})

	outcome := solveGreedy(t, inst)

	assert.Equal(t, model.StatusSolved, outcome.Status)
	assert.Empty(t, outcome.Unassigned)
	assert.Equal(t, []model.Assignment{
		{DemandID: "D1", ProfessionalID: "P1"},
		{DemandID: "D2", ProfessionalID: "P1"},
		{DemandID: "D3", ProfessionalID: "P1"},
	}, outcome.Assignments)
}

func TestAllocate_RoundRobinRotation(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{
			{ID: "d1", Start: at(8, 0), End: at(9, 0)},
			{ID: "d2", Start: at(9, 0), End: at(10, 0)},
			{ID: "d3", Start: at(10, 0), End: at(11, 0)},
			{ID: "d4", Start: at(11, 0), End: at(12, 0)},
		},
		[]model.Professional{
			{ID: "late", Sequence: 3, Active: true},
			{ID: "first", Sequence: 1, Active: true},
			{ID: "second", Sequence: 2, Active: true},
		},
		feasibility.Rules{SkillMatchHard: true})

	outcome := solveGreedy(t, inst)

	got := map[string]string{}
	for _, a := range outcome.Assignments {
		got[a.DemandID] = a.ProfessionalID
	}
	assert.Equal(t, map[string]string{
		"d1": "first",
		"d2": "second",
		"d3": "late",
		"d4": "first",
	}, got)
}

func TestAllocate_PriorityBreaksStartTies(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{
			{ID: "a-routine", Start: at(8, 0), End: at(10, 0), Priority: model.PriorityNone},
			{ID: "z-emergency", Start: at(8, 0), End: at(10, 0), Priority: model.PriorityEmergency},
		},
		[]model.Professional{{ID: "P1", Active: true}},
		feasibility.Rules{SkillMatchHard: true})

	outcome := solveGreedy(t, inst)

	assert.Equal(t, []model.Assignment{{DemandID: "z-emergency", ProfessionalID: "P1"}}, outcome.Assignments)
	assert.Equal(t, []string{"a-routine"}, outcome.Unassigned)
}

func TestAllocate_SkipsIneligible(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{
			{ID: "peds", Start: at(8, 0), End: at(9, 0), IsPediatric: true},
			{ID: "cardiac", Start: at(8, 0), End: at(9, 0), Skills: []string{"cardiac"}},
			{ID: "any", Start: at(10, 0), End: at(11, 0)},
		},
		[]model.Professional{
			{ID: "away", Sequence: 1, Active: true, CanTreatPediatric: true, Skills: []string{"cardiac"},
				Vacation: []model.Interval{{Start: at(6, 0), End: at(12, 0)}}},
			{ID: "inactive", Sequence: 2, Active: false, CanTreatPediatric: true},
			{ID: "peds-doc", Sequence: 3, Active: true, CanTreatPediatric: true},
			{ID: "cardio", Sequence: 4, Active: true, Skills: []string{"cardiac"}},
		},
		feasibility.Rules{SkillMatchHard: true})

	outcome := solveGreedy(t, inst)

	got := map[string]string{}
	for _, a := range outcome.Assignments {
		got[a.DemandID] = a.ProfessionalID
	}
	assert.Equal(t, "cardio", got["cardiac"])
	assert.Equal(t, "peds-doc", got["peds"])
	// cardiac sorts before peds, so cardio rotated back first and is now ahead of peds-doc
	assert.Equal(t, "cardio", got["any"])
	assert.Equal(t, model.StatusSolved, outcome.Status)
}

func TestAllocate_SoftSkillsPreferFullMatch(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{{ID: "d1", Start: at(8, 0), End: at(9, 0), Skills: []string{"neuro"}}},
		[]model.Professional{
			{ID: "generalist", Sequence: 1, Active: true},
			{ID: "neurologist", Sequence: 2, Active: true, Skills: []string{"neuro"}},
		},
		feasibility.Rules{SkillMatchHard: false})

	allocation, err := Allocate(AllocationConfig{Instance: inst, Criteria: criteria.Hard(inst.Rules)})
	require.NoError(t, err)
	assert.Equal(t, []model.Assignment{{DemandID: "d1", ProfessionalID: "neurologist"}}, allocation.State.Assignments())
	assert.Empty(t, allocation.MismatchedDemandIDs)
	assert.True(t, allocation.Success)
}

func TestAllocate_SoftSkillsFallBackToMismatch(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{{ID: "d1", Start: at(8, 0), End: at(9, 0), Skills: []string{"neuro"}}},
		[]model.Professional{{ID: "generalist", Active: true}},
		feasibility.Rules{SkillMatchHard: false})

	allocation, err := Allocate(AllocationConfig{Instance: inst, Criteria: criteria.Hard(inst.Rules)})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, allocation.MismatchedDemandIDs)

	outcome := solveGreedy(t, inst)
	assert.Equal(t, 1, outcome.Cost.Mismatched)
	assert.Equal(t, model.StatusSolved, outcome.Status)
}

func TestAllocate_NoCoverage(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{{ID: "peds", Start: at(8, 0), End: at(9, 0), IsPediatric: true}},
		[]model.Professional{{ID: "P1", Active: true}, {ID: "P2", Active: true}},
		feasibility.Rules{SkillMatchHard: true})

	outcome := solveGreedy(t, inst)
	assert.Equal(t, model.StatusNoCoverage, outcome.Status)
	assert.Empty(t, outcome.Assignments)
	assert.Equal(t, []string{"peds"}, outcome.Unassigned)
}

func TestAllocate_EmptyInstance(t *testing.T) {
	inst := newInstance(t, nil, nil, feasibility.Rules{SkillMatchHard: true})
	outcome := solveGreedy(t, inst)
	assert.Equal(t, model.StatusSolved, outcome.Status)
	assert.Empty(t, outcome.Assignments)
	assert.Empty(t, outcome.Unassigned)
}

func TestRotationQueue_MoveToBack(t *testing.T) {
	q := &RotationQueue{order: []int{0, 1, 2, 3}}
	q.MoveToBack(1)
	assert.Equal(t, []int{0, 2, 3, 1}, q.Order())
	q.MoveToBack(9)
	assert.Equal(t, []int{0, 2, 3, 1}, q.Order())
}

func TestAllocate_RandomizedHardConstraintGuarantees(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		demands, professionals := rostertest.Random(rng, rostertest.Shape{
			Demands:       1 + rng.Intn(25),
			Professionals: 1 + rng.Intn(6),
		})
		rules := feasibility.Rules{SkillMatchHard: rng.Intn(2) == 0}
		inst := newInstance(t, demands, professionals, rules)

		outcome := solveGreedy(t, inst)

		assert.Empty(t, rostertest.DoubleBookings(demands, outcome.Assignments), "instance %d double-booked", i)

		pediatric := map[string]bool{}
		for _, d := range demands {
			pediatric[d.ID] = d.IsPediatric
		}
		canTreat := map[string]bool{}
		for _, p := range professionals {
			canTreat[p.ID] = p.CanTreatPediatric
		}
		for _, a := range outcome.Assignments {
			if pediatric[a.DemandID] {
				assert.True(t, canTreat[a.ProfessionalID], "instance %d: pediatric demand %s given to %s", i, a.DemandID, a.ProfessionalID)
			}
		}

		assert.NoError(t, criteria.Check(inst, outcome.Assignments), "instance %d", i)
		assert.Equal(t, len(demands), len(outcome.Assignments)+len(outcome.Unassigned))
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	demands, professionals := rostertest.Random(rng, rostertest.Shape{Demands: 30, Professionals: 5})
	inst := newInstance(t, demands, professionals, feasibility.Rules{SkillMatchHard: true})

	first := solveGreedy(t, inst)
	for i := 0; i < 5; i++ {
		again := solveGreedy(t, inst)
		assert.Equal(t, first.Assignments, again.Assignments)
	}
}

func TestGreedy_IgnoresCancelledContext(t *testing.T) {
	inst := newInstance(t,
		[]model.Demand{{ID: "d1", Start: at(8, 0), End: at(9, 0)}},
		[]model.Professional{{ID: "P1", Active: true}},
		feasibility.Rules{SkillMatchHard: true})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	outcome, err := Greedy{}.Solve(ctx, inst, roster.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSolved, outcome.Status)
	assert.Equal(t, "greedy", Greedy{}.Name())
}
