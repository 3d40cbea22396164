package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

var day = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func newTestInstance(t *testing.T, demands []model.Demand, professionals []model.Professional) *Instance {
	t.Helper()
	inst, err := NewInstance("h1", at(0), at(24), demands, professionals, feasibility.Rules{SkillMatchHard: true})
	require.NoError(t, err)
	return inst
}

func TestNewInstance_SortsDemandsAndProfessionals(t *testing.T) {
	demands := []model.Demand{
		{ID: "late", Start: at(10), End: at(11), Priority: model.PriorityEmergency},
		{ID: "b", Start: at(8), End: at(9), Priority: model.PriorityNone},
		{ID: "a", Start: at(8), End: at(9), Priority: model.PriorityNone},
		{ID: "urgent", Start: at(8), End: at(9), Priority: model.PriorityUrgent},
		{ID: "emergency", Start: at(8), End: at(9), Priority: model.PriorityEmergency},
	}
	professionals := []model.Professional{
		{ID: "z", Sequence: 1, Active: true},
		{ID: "y", Sequence: 2, Active: true},
		{ID: "x", Sequence: 1, Active: true},
	}

	inst := newTestInstance(t, demands, professionals)

	var demandIDs []string
	for _, d := range inst.Demands {
		demandIDs = append(demandIDs, d.ID)
	}
	assert.Equal(t, []string{"emergency", "urgent", "a", "b", "late"}, demandIDs)

	var professionalIDs []string
	for _, p := range inst.Professionals {
		professionalIDs = append(professionalIDs, p.ID)
	}
	assert.Equal(t, []string{"x", "z", "y"}, professionalIDs)

	// Caller's slice order is untouched
	assert.Equal(t, "late", demands[0].ID)
}

func TestNewInstance_RejectsMalformedInput(t *testing.T) {
	_, err := NewInstance("h1", at(0), at(24),
		[]model.Demand{{ID: "d1", Start: at(10), End: at(9)}},
		nil, feasibility.Rules{})
	assert.True(t, errors.Is(err, feasibility.ErrMalformedInput))

	_, err = NewInstance("h1", at(0), at(24), nil,
		[]model.Professional{{ID: "p1", Vacation: []model.Interval{
			{Start: at(8), End: at(10)},
			{Start: at(9), End: at(11)},
		}}}, feasibility.Rules{})
	assert.True(t, errors.Is(err, feasibility.ErrMalformedInput))

	_, err = NewInstance("h1", at(5), at(5), nil, nil, feasibility.Rules{})
	assert.True(t, errors.Is(err, feasibility.ErrMalformedInput))
}

func TestNewInstance_EligibilityAndConflicts(t *testing.T) {
	demands := []model.Demand{
		{ID: "d1", Start: at(8), End: at(10)},
		{ID: "d2", Start: at(9), End: at(11), IsPediatric: true},
		{ID: "d3", Start: at(10), End: at(12), Skills: []string{"cardiac"}},
	}
	professionals := []model.Professional{
		{ID: "p1", Sequence: 1, Active: true, CanTreatPediatric: true},
		{ID: "p2", Sequence: 2, Active: true, Skills: []string{"cardiac"}},
		{ID: "p3", Sequence: 3, Active: false, CanTreatPediatric: true, Skills: []string{"cardiac"}},
	}

	inst := newTestInstance(t, demands, professionals)

	assert.Equal(t, []int{0, 1}, inst.Candidates(0))
	assert.Equal(t, []int{0}, inst.Candidates(1), "only p1 treats children; p3 is inactive")
	assert.Equal(t, []int{1}, inst.Candidates(2), "only p2 holds cardiac")

	assert.Equal(t, []int{1}, inst.Conflicts(0))
	assert.Equal(t, []int{0, 2}, inst.Conflicts(1))
	assert.Equal(t, []int{1}, inst.Conflicts(2), "d1 ends as d3 starts")

	assert.Equal(t, 2, inst.ActiveCount())
	assert.True(t, inst.Mismatched(2, 0))
	assert.False(t, inst.Mismatched(2, 1))
}

func TestNewInstance_SoftSkillsKeepMismatchedCandidates(t *testing.T) {
	demands := []model.Demand{{ID: "d1", Start: at(8), End: at(9), Skills: []string{"cardiac"}}}
	professionals := []model.Professional{{ID: "p1", Active: true}}

	inst, err := NewInstance("h1", at(0), at(24), demands, professionals, feasibility.Rules{SkillMatchHard: false})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, inst.Candidates(0))
	assert.True(t, inst.Mismatched(0, 0))
}

func TestStateFromAssignments(t *testing.T) {
	inst := newTestInstance(t,
		[]model.Demand{{ID: "d1", Start: at(8), End: at(9)}, {ID: "d2", Start: at(9), End: at(10)}},
		[]model.Professional{{ID: "p1", Active: true}})

	state, err := StateFromAssignments(inst, []model.Assignment{{DemandID: "d2", ProfessionalID: "p1"}})
	require.NoError(t, err)
	assert.Equal(t, []int{Unassigned, 0}, state.Assigned)
	assert.Equal(t, 1, state.Load(0))
	assert.Equal(t, []string{"d1"}, state.UnassignedDemandIDs())
	assert.Equal(t, 1, state.AssignedCount())

	_, err = StateFromAssignments(inst, []model.Assignment{{DemandID: "d1", ProfessionalID: "ghost"}})
	assert.True(t, errors.Is(err, feasibility.ErrUnknownReference))
}

func TestStateFromVector_RejectsBadShape(t *testing.T) {
	inst := newTestInstance(t, []model.Demand{{ID: "d1", Start: at(8), End: at(9)}}, []model.Professional{{ID: "p1", Active: true}})

	_, err := StateFromVector(inst, []int{0, 0})
	assert.Error(t, err)

	_, err = StateFromVector(inst, []int{3})
	assert.Error(t, err)
}

func TestState_IsBooked(t *testing.T) {
	inst := newTestInstance(t,
		[]model.Demand{
			{ID: "d1", Start: at(8), End: at(10)},
			{ID: "d2", Start: at(9), End: at(11)},
			{ID: "d3", Start: at(10), End: at(11)},
		},
		[]model.Professional{{ID: "p1", Active: true}})

	state := NewState(inst)
	state.Assign(0, 0)
	assert.True(t, state.IsBooked(0, 1))
	assert.False(t, state.IsBooked(0, 2), "touching demands do not collide")
}
