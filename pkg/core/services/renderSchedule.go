package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/internal/config"
	"github.com/jakechorley/theatre-rota/pkg/core/lifecycle"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/db"
)

// Renderer turns a schedule version into a printable document
type Renderer interface {
	Render(version model.ScheduleVersion, demands []model.Demand, professionals []model.Professional) ([]byte, error)
}

// ArtifactStore stores rendered documents and returns their file id
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// RenderStore is what RenderSchedule needs from the database
type RenderStore interface {
	db.VersionStore
	GetProfessionals(ctx context.Context, hospitalID string) ([]model.Professional, error)
	GetDemands(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.Demand, error)
}

// RenderSchedule renders a published version to PDF, stores it and records the file id
// on the version. Fails with db.ErrConflict when the version stopped being published
// while it was rendered.
func RenderSchedule(ctx context.Context, store RenderStore, renderer Renderer, artifacts ArtifactStore, cfg *config.Config, logger *zap.Logger, versionID string) (*model.ScheduleVersion, error) {
	logger.Debug("Rendering schedule", zap.String("version_id", versionID))

	version, err := fetchVersion(ctx, store, cfg, versionID)
	if err != nil {
		return nil, err
	}
	if version.Status != model.VersionPublished {
		return nil, fmt.Errorf("%w: only published versions are rendered, %s is %s",
			lifecycle.ErrInvalidTransition, version.ID, version.Status)
	}

	demands, err := store.GetDemands(ctx, version.HospitalID, version.PeriodStart, version.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch demands: %w", err)
	}
	professionals, err := store.GetProfessionals(ctx, version.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch professionals: %w", err)
	}

	data, err := renderer.Render(*version, demands, professionals)
	if err != nil {
		return nil, fmt.Errorf("failed to render schedule: %w", err)
	}
	logger.Debug("Schedule rendered", zap.Int("bytes", len(data)))

	fileID, err := artifacts.Put(ctx, ArtifactName(*version), data)
	if err != nil {
		return nil, fmt.Errorf("failed to store rendered schedule: %w", err)
	}

	if err := lifecycle.AttachPDF(version, fileID); err != nil {
		return nil, err
	}
	// Only recorded while the stored version is still PUBLISHED
	if err := store.AttachScheduleVersionPDF(ctx, version.ID, fileID); err != nil {
		return nil, fmt.Errorf("failed to record pdf file id: %w", err)
	}

	logger.Info("Schedule rendered and stored",
		zap.String("version_id", version.ID),
		zap.String("pdf_file_id", fileID))
	return version, nil
}

// ArtifactName is the file name of a version's rendered PDF
func ArtifactName(v model.ScheduleVersion) string {
	return fmt.Sprintf("rota_%s_%s_%s_v%d.pdf",
		v.HospitalID,
		v.PeriodStart.Format(time.DateOnly),
		v.PeriodEnd.Format(time.DateOnly),
		v.VersionNumber)
}
