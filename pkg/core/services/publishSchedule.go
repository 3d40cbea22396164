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

// PublishSchedule publishes a draft. Other published versions of the same period stay
// published, and demands record the assignments of the period's current version.
// A draft published or archived by another writer since it was read fails with
// db.ErrConflict.
func PublishSchedule(ctx context.Context, store db.VersionStore, cfg *config.Config, logger *zap.Logger, versionID string) (*model.ScheduleVersion, error) {
	logger.Debug("Publishing schedule", zap.String("version_id", versionID))

	version, err := fetchVersion(ctx, store, cfg, versionID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Publish(version, cfg.Publishing.Policy(), time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := store.PublishScheduleVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to save published version: %w", err)
	}

	logger.Info("Schedule published",
		zap.String("version_id", version.ID),
		zap.Int("version_number", version.VersionNumber),
		zap.Int("assignments", len(version.ResultData.Assignments)))

	return version, nil
}

// ArchiveSchedule archives a published version. Demands fall back to the assignments of
// the next current version, or are cleared when none is left.
func ArchiveSchedule(ctx context.Context, store db.VersionStore, cfg *config.Config, logger *zap.Logger, versionID string) (*model.ScheduleVersion, error) {
	logger.Debug("Archiving schedule", zap.String("version_id", versionID))

	version, err := fetchVersion(ctx, store, cfg, versionID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Archive(version, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := store.ArchiveScheduleVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to save archived version: %w", err)
	}

	logger.Info("Schedule archived", zap.String("version_id", version.ID))
	return version, nil
}

// CurrentSchedule returns the authoritative schedule of a period: the published version
// with the highest version number. Fails with db.ErrNotFound when nothing is published.
func CurrentSchedule(ctx context.Context, store db.VersionStore, cfg *config.Config, logger *zap.Logger, periodStart, periodEnd time.Time) (*model.ScheduleVersion, error) {
	logger.Debug("Fetching current schedule",
		zap.String("hospital_id", cfg.HospitalID),
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd))

	versions, err := store.GetScheduleVersions(ctx, cfg.HospitalID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule versions: %w", err)
	}

	current, ok := lifecycle.Current(versions, cfg.HospitalID, periodStart, periodEnd)
	if !ok {
		return nil, fmt.Errorf("no published schedule for %s to %s: %w",
			periodStart.Format(time.DateOnly), periodEnd.Format(time.DateOnly), db.ErrNotFound)
	}

	logger.Debug("Current schedule found",
		zap.String("version_id", current.ID),
		zap.Int("version_number", current.VersionNumber))
	return &current, nil
}

// fetchVersion loads a version and checks it belongs to the configured hospital
func fetchVersion(ctx context.Context, store db.VersionStore, cfg *config.Config, versionID string) (*model.ScheduleVersion, error) {
	version, err := store.GetScheduleVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule version: %w", err)
	}
	if version.HospitalID != cfg.HospitalID {
		return nil, fmt.Errorf("schedule version %s belongs to hospital %s, not %s: %w",
			versionID, version.HospitalID, cfg.HospitalID, db.ErrNotFound)
	}
	return version, nil
}
