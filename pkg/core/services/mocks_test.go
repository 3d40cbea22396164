package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/theatre-rota/internal/config"
	"github.com/jakechorley/theatre-rota/pkg/core/lifecycle"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster/rostertest"
	"github.com/jakechorley/theatre-rota/pkg/db"
)

var (
	at          = rostertest.At
	periodStart = rostertest.Day
	periodEnd   = rostertest.Day.AddDate(0, 0, 1)
)

// mockStore is an in-memory db.Database
type mockStore struct {
	professionals []model.Professional
	demands       []model.Demand
	versions      []model.ScheduleVersion

	// stamps are returned in order by SnapshotStamp, repeating the last one
	stamps     []string
	stampCalls int

	// conflicts makes the next N inserts fail with db.ErrConflict
	conflicts int

	published   []string
	assignments map[string]string

	getProfessionalsErr error
	getDemandsErr       error
	insertErr           error
}

var _ db.Database = (*mockStore)(nil)

func (m *mockStore) GetProfessionals(ctx context.Context, hospitalID string) ([]model.Professional, error) {
	if m.getProfessionalsErr != nil {
		return nil, m.getProfessionalsErr
	}
	return m.professionals, nil
}

func (m *mockStore) GetDemands(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.Demand, error) {
	if m.getDemandsErr != nil {
		return nil, m.getDemandsErr
	}
	var out []model.Demand
	for _, d := range m.demands {
		if d.Start.Before(periodEnd) && d.End.After(periodStart) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) SnapshotStamp(ctx context.Context, hospitalID string) (string, error) {
	if len(m.stamps) == 0 {
		return "0", nil
	}
	i := min(m.stampCalls, len(m.stamps)-1)
	m.stampCalls++
	return m.stamps[i], nil
}

func (m *mockStore) UpsertProfessionals(ctx context.Context, hospitalID string, professionals []model.Professional) error {
	m.professionals = append(m.professionals, professionals...)
	return nil
}

func (m *mockStore) UpsertDemands(ctx context.Context, hospitalID string, demands []model.Demand) error {
	m.demands = append(m.demands, demands...)
	return nil
}

func (m *mockStore) GetScheduleVersion(ctx context.Context, id string) (*model.ScheduleVersion, error) {
	for _, v := range m.versions {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("schedule version %s: %w", id, db.ErrNotFound)
}

func (m *mockStore) GetScheduleVersions(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.ScheduleVersion, error) {
	var out []model.ScheduleVersion
	for _, v := range m.versions {
		if v.SamePeriod(hospitalID, periodStart, periodEnd) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockStore) InsertScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		// Simulate the concurrent writer that won the race
		m.versions = append(m.versions, model.ScheduleVersion{
			ID:            fmt.Sprintf("concurrent-%d", v.VersionNumber),
			HospitalID:    v.HospitalID,
			PeriodStart:   v.PeriodStart,
			PeriodEnd:     v.PeriodEnd,
			VersionNumber: v.VersionNumber,
			Status:        model.VersionDraft,
		})
		return fmt.Errorf("failed to insert schedule version: %w", db.ErrConflict)
	}
	m.versions = append(m.versions, *v)
	return nil
}

// transition applies a lifecycle change if the stored version is still in status from
func (m *mockStore) transition(v *model.ScheduleVersion, from model.VersionStatus) error {
	for i := range m.versions {
		if m.versions[i].ID != v.ID {
			continue
		}
		if m.versions[i].Status != from {
			return fmt.Errorf("schedule version %s is %s: %w", v.ID, m.versions[i].Status, db.ErrConflict)
		}
		m.versions[i].Status = v.Status
		m.versions[i].PublishedAt = v.PublishedAt
		m.versions[i].ArchivedAt = v.ArchivedAt
		m.syncAssignments(m.versions[i])
		return nil
	}
	return fmt.Errorf("schedule version %s: %w", v.ID, db.ErrNotFound)
}

func (m *mockStore) syncAssignments(changed model.ScheduleVersion) {
	if m.assignments == nil {
		m.assignments = make(map[string]string)
	}
	wb := lifecycle.WriteBack(m.versions, changed)
	for _, a := range wb.Assign {
		m.assignments[a.DemandID] = a.ProfessionalID
	}
	for _, id := range wb.Clear {
		delete(m.assignments, id)
	}
}

func (m *mockStore) PublishScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error {
	if err := m.transition(v, model.VersionDraft); err != nil {
		return err
	}
	m.published = append(m.published, v.ID)
	return nil
}

func (m *mockStore) ArchiveScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error {
	return m.transition(v, model.VersionPublished)
}

func (m *mockStore) AttachScheduleVersionPDF(ctx context.Context, id, fileID string) error {
	for i := range m.versions {
		if m.versions[i].ID != id {
			continue
		}
		if m.versions[i].Status != model.VersionPublished {
			return fmt.Errorf("schedule version %s is %s: %w", id, m.versions[i].Status, db.ErrConflict)
		}
		m.versions[i].PdfFileID = fileID
		return nil
	}
	return fmt.Errorf("schedule version %s: %w", id, db.ErrNotFound)
}

type mockRenderer struct {
	version model.ScheduleVersion
	demands []model.Demand
	err     error
}

func (m *mockRenderer) Render(version model.ScheduleVersion, demands []model.Demand, professionals []model.Professional) ([]byte, error) {
	m.version = version
	m.demands = demands
	if m.err != nil {
		return nil, m.err
	}
	return []byte("%PDF-1.3 rota"), nil
}

type mockArtifacts struct {
	names []string
	err   error
}

func (m *mockArtifacts) Put(ctx context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.names = append(m.names, name)
	return "file-" + name, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{
		TenantID:   "t1",
		HospitalID: "h1",
	}
	cfg.Solver.Workers = 2
	cfg.Solver.TimeBudget = 2 * time.Second
	return cfg
}

func version(id string, number int, status model.VersionStatus, solve model.SolveStatus) model.ScheduleVersion {
	return model.ScheduleVersion{
		ID:            id,
		TenantID:      "t1",
		HospitalID:    "h1",
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Status:        status,
		VersionNumber: number,
		ResultData: model.ResultData{
			Mode:                model.ModeExact,
			Status:              solve,
			Assignments:         []model.Assignment{{DemandID: "D1", ProfessionalID: "P1"}},
			UnassignedDemandIDs: []string{"D2"},
		},
	}
}
