package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/internal/config"
	"github.com/jakechorley/theatre-rota/pkg/core/engine"
	"github.com/jakechorley/theatre-rota/pkg/core/lifecycle"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/db"
)

// maxInsertAttempts bounds retries when a concurrent draft claims the same version number
const maxInsertAttempts = 3

// GenerateStore is what GenerateSchedule needs from the database
type GenerateStore interface {
	db.RosterStore
	GetScheduleVersions(ctx context.Context, hospitalID string, periodStart, periodEnd time.Time) ([]model.ScheduleVersion, error)
	InsertScheduleVersion(ctx context.Context, v *model.ScheduleVersion) error
}

// GenerateRequest describes one schedule generation job
type GenerateRequest struct {
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Mode defaults to the configured solve mode
	Mode model.Mode

	// TimeBudget overrides the configured budget when positive
	TimeBudget time.Duration

	// JobID defaults to a new uuid
	JobID string
}

// GenerateResult is the draft created by a generation job
type GenerateResult struct {
	Version model.ScheduleVersion
	Result  *engine.Result
}

// GenerateSchedule loads the hospital's demands and professionals for the period, solves,
// and stores the outcome as a new DRAFT version. Every solve produces a draft, including
// NO_COVERAGE results. A solve whose professional data changed underneath it fails with
// engine.ErrStaleSnapshot and stores nothing.
func GenerateSchedule(ctx context.Context, store GenerateStore, cfg *config.Config, logger *zap.Logger, recorder engine.Recorder, req GenerateRequest) (*GenerateResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = cfg.Solver.DefaultMode()
	}
	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.New().String()
	}

	logger = logger.With(zap.String("job_id", jobID), zap.String("hospital_id", cfg.HospitalID))
	logger.Debug("Generating schedule",
		zap.Time("period_start", req.PeriodStart),
		zap.Time("period_end", req.PeriodEnd),
		zap.String("mode", string(mode)))

	// Read before loading so edits committed during the load are caught after the solve
	stamp, err := store.SnapshotStamp(ctx, cfg.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot stamp: %w", err)
	}

	logger.Debug("Fetching professionals", zap.String("snapshot_stamp", stamp))
	professionals, err := store.GetProfessionals(ctx, cfg.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch professionals: %w", err)
	}
	professionals = withSharedUnavailability(professionals, cfg.SharedUnavailability)

	logger.Debug("Fetching demands")
	demands, err := store.GetDemands(ctx, cfg.HospitalID, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch demands: %w", err)
	}

	logger.Debug("Loaded solve inputs",
		zap.Int("professionals", len(professionals)),
		zap.Int("demands", len(demands)))

	opts := engine.Options{
		Roster:  cfg.Solver.Options(),
		Stamper: store,
		Metrics: recorder,
		Logger:  logger,
	}
	result, err := engine.Solve(ctx, engine.Request{
		HospitalID:    cfg.HospitalID,
		PeriodStart:   req.PeriodStart,
		PeriodEnd:     req.PeriodEnd,
		Demands:       demands,
		Professionals: professionals,
		Mode:          mode,
		TimeBudget:    req.TimeBudget,
		SnapshotStamp: stamp,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to solve: %w", err)
	}

	for attempt := 1; ; attempt++ {
		existing, err := store.GetScheduleVersions(ctx, cfg.HospitalID, req.PeriodStart, req.PeriodEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch existing versions: %w", err)
		}

		version := lifecycle.NewDraft(existing, lifecycle.DraftParams{
			TenantID:    cfg.TenantID,
			HospitalID:  cfg.HospitalID,
			PeriodStart: req.PeriodStart,
			PeriodEnd:   req.PeriodEnd,
			JobID:       jobID,
			Result:      result.ResultData(),
			GeneratedAt: time.Now().UTC(),
		})

		err = store.InsertScheduleVersion(ctx, &version)
		if errors.Is(err, db.ErrConflict) && attempt < maxInsertAttempts {
			logger.Debug("Version number taken by a concurrent job, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to insert schedule version: %w", err)
		}

		logger.Info("Draft schedule created",
			zap.String("version_id", version.ID),
			zap.Int("version_number", version.VersionNumber),
			zap.String("status", string(result.Status)))

		return &GenerateResult{Version: version, Result: result}, nil
	}
}

// withSharedUnavailability returns copies of the professionals with the shared blocks
// appended to their own recurring unavailability
func withSharedUnavailability(professionals []model.Professional, shared []model.RecurringBlock) []model.Professional {
	if len(shared) == 0 {
		return professionals
	}
	out := make([]model.Professional, len(professionals))
	for i, p := range professionals {
		p.RecurringUnavailability = append(slices.Clone(p.RecurringUnavailability), shared...)
		out[i] = p
	}
	return out
}
