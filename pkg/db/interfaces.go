// Package db defines the storage contracts used by the rostering services.
// pkg/postgres provides the PostgreSQL implementation.
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write races with another writer, e.g. two drafts
	// claiming the same version number
	ErrConflict = errors.New("conflicting write")
)

// RosterStore reads the inputs of a solve
type RosterStore interface {
	// GetProfessionals returns the hospital's professional pool with skills, vacations
	// and recurring unavailability, read from a single consistent snapshot
	GetProfessionals(ctx context.Context, hospitalID string) ([]model.Professional, error)

	// GetDemands returns the hospital's demands overlapping [periodStart, periodEnd)
	GetDemands(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.Demand, error)

	// SnapshotStamp changes whenever professional, vacation or recurring unavailability
	// data of the hospital changes
	SnapshotStamp(ctx context.Context, hospitalID string) (string, error)
}

// RosterWriter loads roster inputs, replacing records with the same id
type RosterWriter interface {
	UpsertProfessionals(ctx context.Context, hospitalID string, professionals []model.Professional) error
	UpsertDemands(ctx context.Context, hospitalID string, demands []model.Demand) error
}

// VersionStore persists schedule versions
type VersionStore interface {
	GetScheduleVersion(ctx context.Context, id string) (*model.ScheduleVersion, error)
	GetScheduleVersions(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.ScheduleVersion, error)
	InsertScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error

	// PublishScheduleVersion moves a DRAFT to PUBLISHED and, in the same transaction,
	// writes the period's current version back onto its demands. Fails with ErrConflict
	// when the stored version is no longer a DRAFT.
	PublishScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error

	// ArchiveScheduleVersion moves a PUBLISHED version to ARCHIVED and re-syncs the
	// demands like PublishScheduleVersion. Fails with ErrConflict when the stored
	// version is no longer PUBLISHED.
	ArchiveScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error

	// AttachScheduleVersionPDF records the rendered file of a PUBLISHED version. Fails
	// with ErrConflict when the stored version is no longer PUBLISHED.
	AttachScheduleVersionPDF(ctx context.Context, id, fileID string) error
}

// Database defines all database operations
type Database interface {
	RosterStore
	RosterWriter
	VersionStore
}
