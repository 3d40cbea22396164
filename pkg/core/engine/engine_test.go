package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
	"github.com/jakechorley/theatre-rota/pkg/core/roster/rostertest"
)

var at = rostertest.At

// mockStamper returns the stamps in order, repeating the last one
type mockStamper struct {
	stamps []string
	calls  int
	err    error
}

func (m *mockStamper) SnapshotStamp(ctx context.Context, hospitalID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	i := m.calls
	if i >= len(m.stamps) {
		i = len(m.stamps) - 1
	}
	m.calls++
	return m.stamps[i], nil
}

type observation struct {
	mode       model.Mode
	status     model.SolveStatus
	assigned   int
	unassigned int
}

type mockRecorder struct {
	observations []observation
}

func (m *mockRecorder) ObserveSolve(mode model.Mode, status model.SolveStatus, duration time.Duration, assigned, unassigned int) {
	m.observations = append(m.observations, observation{mode, status, assigned, unassigned})
}

func request(mode model.Mode, demands []model.Demand, professionals []model.Professional) Request {
	return Request{
		HospitalID:    "h1",
		PeriodStart:   at(0, 0),
		PeriodEnd:     at(23, 0),
		Demands:       demands,
		Professionals: professionals,
		Mode:          mode,
	}
}

func testOptions() Options {
	opts := roster.DefaultOptions()
	opts.Workers = 2
	opts.TimeBudget = 2 * time.Second
	return Options{Roster: opts, Logger: zap.NewNop()}
}

func TestSolve_OverlappingDemandsReportBottleneck(t *testing.T) {
	demands := []model.Demand{
		{ID: "D1", Start: at(8, 0), End: at(10, 0)},
		{ID: "D2", Start: at(9, 0), End: at(11, 0)},
	}
	professionals := []model.Professional{{ID: "P1", Active: true}}

	for _, mode := range []model.Mode{model.ModeGreedy, model.ModeExact} {
		t.Run(string(mode), func(t *testing.T) {
			result, err := Solve(context.Background(), request(mode, demands, professionals), testOptions())
			require.NoError(t, err)

			assert.Len(t, result.Assignments, 1)
			assert.Len(t, result.UnassignedDemandIDs, 1)
			require.NotNil(t, result.Diagnostics)

			bottlenecks := result.Diagnostics.Bottlenecks()
			require.Len(t, bottlenecks, 1)
			assert.Equal(t, at(9, 0), bottlenecks[0].Start)
			assert.Equal(t, at(10, 0), bottlenecks[0].End)
			assert.Len(t, bottlenecks[0].ActiveDemandIDs, 2)
			assert.Len(t, bottlenecks[0].AvailableProfessionalIDs, 1)
		})
	}
}

func TestSolve_PediatricDemandWithoutPediatricStaff(t *testing.T) {
	demands := []model.Demand{{ID: "peds", Start: at(8, 0), End: at(9, 0), IsPediatric: true}}
	professionals := []model.Professional{
		{ID: "P1", Sequence: 1, Active: true},
		{ID: "P2", Sequence: 2, Active: true},
	}

	result, err := Solve(context.Background(), request(model.ModeGreedy, demands, professionals), testOptions())
	require.NoError(t, err)

	assert.Equal(t, model.StatusNoCoverage, result.Status)
	require.NotNil(t, result.Diagnostics)
	require.Len(t, result.Diagnostics.Eligibility, 1)
	assert.Empty(t, result.Diagnostics.Eligibility[0].EligibleProfessionalIDs)
	assert.Equal(t, model.ClassEligibilityGap, result.Diagnostics.Eligibility[0].Class)
	assert.Empty(t, result.Diagnostics.Bottlenecks())
}

func TestSolve_SequentialDemandsBothStrategies(t *testing.T) {
	demands := []model.Demand{
		{ID: "D1", Start: at(8, 0), End: at(9, 0)},
		{ID: "D2", Start: at(9, 0), End: at(10, 0)},
		{ID: "D3", Start: at(10, 0), End: at(11, 0)},
	}
	professionals := []model.Professional{{ID: "P1", Active: true}}

	for _, mode := range []model.Mode{model.ModeGreedy, model.ModeExact} {
		t.Run(string(mode), func(t *testing.T) {
			result, err := Solve(context.Background(), request(mode, demands, professionals), testOptions())
			require.NoError(t, err)

			assert.Equal(t, model.StatusSolved, result.Status)
			assert.Empty(t, result.UnassignedDemandIDs)
			assert.Nil(t, result.Diagnostics)
			require.Len(t, result.Assignments, 3)
			for _, a := range result.Assignments {
				assert.Equal(t, "P1", a.ProfessionalID)
			}

			if mode == model.ModeExact {
				assert.NotNil(t, result.ObjectiveValue)
			} else {
				assert.Nil(t, result.ObjectiveValue, "objective value is reported for exact solves only")
			}
		})
	}
}

func TestSolve_MalformedInput(t *testing.T) {
	good := []model.Professional{{ID: "P1", Active: true}}

	tests := []struct {
		name string
		req  Request
	}{
		{
			name: "unknown mode",
			req:  request("fastest", nil, good),
		},
		{
			name: "demand ends before it starts",
			req:  request(model.ModeGreedy, []model.Demand{{ID: "D1", Start: at(10, 0), End: at(9, 0)}}, good),
		},
		{
			name: "overlapping vacations",
			req: request(model.ModeGreedy, nil, []model.Professional{{
				ID:     "P1",
				Active: true,
				Vacation: []model.Interval{
					{Start: at(8, 0), End: at(10, 0)},
					{Start: at(9, 0), End: at(11, 0)},
				},
			}}),
		},
		{
			name: "invalid recurring rule",
			req: request(model.ModeGreedy, nil, []model.Professional{{
				ID:                      "P1",
				Active:                  true,
				RecurringUnavailability: []model.RecurringBlock{{RRule: "FREQ=SOMETIMES", Duration: time.Hour}},
			}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamper := &mockStamper{stamps: []string{"s1"}}
			opts := testOptions()
			opts.Stamper = stamper

			result, err := Solve(context.Background(), tt.req, opts)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, feasibility.ErrMalformedInput)
		})
	}
}

func TestSolve_RecurringUnavailabilityBlocksDemand(t *testing.T) {
	// at(0, 0) is a Monday; the professional is off every Monday from 08:00 for four hours
	demands := []model.Demand{{ID: "D1", Start: at(9, 0), End: at(10, 0)}}
	professionals := []model.Professional{{
		ID:     "P1",
		Active: true,
		RecurringUnavailability: []model.RecurringBlock{
			{RRule: "FREQ=WEEKLY;BYDAY=MO;BYHOUR=8;BYMINUTE=0;BYSECOND=0", Duration: 4 * time.Hour},
		},
	}}

	result, err := Solve(context.Background(), request(model.ModeGreedy, demands, professionals), testOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"D1"}, result.UnassignedDemandIDs)
	require.NotNil(t, result.Diagnostics)
	assert.Equal(t, []model.ProfessionalExclusion{{ProfessionalID: "P1", Reason: model.ExclusionUnavailable}},
		result.Diagnostics.Eligibility[0].Exclusions)
	assert.Empty(t, professionals[0].Vacation, "caller records are never modified")
}

func TestSolve_StaleSnapshot(t *testing.T) {
	demands := []model.Demand{{ID: "D1", Start: at(8, 0), End: at(9, 0)}}
	professionals := []model.Professional{{ID: "P1", Active: true}}

	stamper := &mockStamper{stamps: []string{"v1", "v2"}}
	recorder := &mockRecorder{}
	opts := testOptions()
	opts.Stamper = stamper
	opts.Metrics = recorder

	result, err := Solve(context.Background(), request(model.ModeGreedy, demands, professionals), opts)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrStaleSnapshot))
	assert.Equal(t, 2, stamper.calls)
	assert.Empty(t, recorder.observations, "discarded solves are not recorded")
}

func TestSolve_CallerStampComparedAfterSolve(t *testing.T) {
	demands := []model.Demand{{ID: "D1", Start: at(8, 0), End: at(9, 0)}}
	professionals := []model.Professional{{ID: "P1", Active: true}}

	stamper := &mockStamper{stamps: []string{"v2"}}
	opts := testOptions()
	opts.Stamper = stamper

	req := request(model.ModeGreedy, demands, professionals)
	req.SnapshotStamp = "v1"

	result, err := Solve(context.Background(), req, opts)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrStaleSnapshot)
	assert.Equal(t, 1, stamper.calls, "only the after-solve stamp is read")
}

func TestSolve_StampAndMetrics(t *testing.T) {
	demands := []model.Demand{
		{ID: "D1", Start: at(8, 0), End: at(10, 0)},
		{ID: "D2", Start: at(9, 0), End: at(11, 0)},
	}
	professionals := []model.Professional{{ID: "P1", Active: true}}

	stamper := &mockStamper{stamps: []string{"v7"}}
	recorder := &mockRecorder{}
	opts := testOptions()
	opts.Stamper = stamper
	opts.Metrics = recorder

	result, err := Solve(context.Background(), request(model.ModeExact, demands, professionals), opts)
	require.NoError(t, err)

	assert.Equal(t, "v7", result.SnapshotStamp)
	assert.Equal(t, []observation{{model.ModeExact, model.StatusSolved, 1, 1}}, recorder.observations)

	data := result.ResultData()
	assert.Equal(t, model.ModeExact, data.Mode)
	assert.Equal(t, "v7", data.SnapshotStamp)
	assert.NotNil(t, data.Diagnostics)
	assert.Equal(t, result.UnassignedDemandIDs, data.UnassignedDemandIDs)
}

func TestSolve_StamperFailure(t *testing.T) {
	opts := testOptions()
	opts.Stamper = &mockStamper{err: errors.New("connection refused")}

	_, err := Solve(context.Background(), request(model.ModeGreedy, nil, nil), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot stamp")
}

func TestSolve_TimeBudgetOverride(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	demands, professionals := rostertest.Random(rng, rostertest.Shape{Demands: 40, Professionals: 6, Hours: 6})

	req := request(model.ModeExact, demands, professionals)
	req.TimeBudget = 20 * time.Millisecond
	opts := testOptions()
	opts.Roster.TimeBudget = time.Hour

	started := time.Now()
	result, err := Solve(context.Background(), req, opts)
	require.NoError(t, err)
	assert.Less(t, time.Since(started), 30*time.Second)
	assert.Equal(t, len(demands), len(result.Assignments)+len(result.UnassignedDemandIDs))
}
