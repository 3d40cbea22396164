package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

var day = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func testVersion() model.ScheduleVersion {
	return model.ScheduleVersion{
		ID:            "v1",
		HospitalID:    "h1",
		PeriodStart:   day,
		PeriodEnd:     day.AddDate(0, 0, 7),
		Status:        model.VersionPublished,
		VersionNumber: 2,
		ResultData: model.ResultData{
			Status: model.StatusPartialOptimal,
			Assignments: []model.Assignment{
				{DemandID: "D2", ProfessionalID: "P1"},
				{DemandID: "D1", ProfessionalID: "P2"},
			},
			UnassignedDemandIDs: []string{"D3"},
		},
	}
}

func testRecords() ([]model.Demand, []model.Professional) {
	demands := []model.Demand{
		{ID: "D1", Start: day.Add(8 * time.Hour), End: day.Add(9 * time.Hour), Procedure: "Appendectomy"},
		{ID: "D2", Start: day.Add(10 * time.Hour), End: day.Add(12 * time.Hour), Procedure: "Hip replacement"},
		{ID: "D3", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour), Procedure: "Tonsillectomy"},
	}
	professionals := []model.Professional{
		{ID: "P1", Name: "Dr Okafor"},
		{ID: "P2"},
	}
	return demands, professionals
}

func TestBuildTable(t *testing.T) {
	demands, professionals := testRecords()
	table := BuildTable(testVersion(), demands, professionals)

	assert.Equal(t, "Theatre rota 2025-03-03 to 2025-03-10", table.Title)
	assert.Contains(t, table.Subtitle, "version 2 (PUBLISHED)")
	assert.Contains(t, table.Subtitle, "PARTIAL_OPTIMAL")

	require.Len(t, table.Assigned, 2)
	assert.Equal(t, Row{Start: "2025-03-03 08:00", End: "2025-03-03 09:00", DemandID: "D1", Procedure: "Appendectomy", Professional: "P2"}, table.Assigned[0],
		"sorted by start; a professional without a name is shown by id")
	assert.Equal(t, "Dr Okafor", table.Assigned[1].Professional)

	require.Len(t, table.Unassigned, 1)
	assert.Equal(t, "D3", table.Unassigned[0].DemandID)
	assert.Empty(t, table.Unassigned[0].Professional)
}

func TestBuildTable_MissingRecordsFallBackToIDs(t *testing.T) {
	table := BuildTable(testVersion(), nil, nil)

	require.Len(t, table.Assigned, 2)
	for _, row := range table.Assigned {
		assert.Empty(t, row.Start)
		assert.NotEmpty(t, row.Professional)
	}
}

func TestPDFRenderer_Render(t *testing.T) {
	demands, professionals := testRecords()

	data, err := NewPDFRenderer().Render(testVersion(), demands, professionals)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
