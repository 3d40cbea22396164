package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/theatre-rota/internal/config"
	"github.com/jakechorley/theatre-rota/pkg/core/engine"
	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/db"
)

// Instance is a self-contained rostering problem stored as YAML
type Instance struct {
	HospitalID    string               `yaml:"hospitalId"`
	PeriodStart   time.Time            `yaml:"periodStart"`
	PeriodEnd     time.Time            `yaml:"periodEnd"`
	Demands       []model.Demand       `yaml:"demands"`
	Professionals []model.Professional `yaml:"professionals"`
}

// LoadInstanceFile reads an instance file. An empty hospital id defaults to the
// configured hospital; a different one is rejected.
func LoadInstanceFile(path string, cfg *config.Config) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instance file: %w", err)
	}

	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("%w: failed to parse instance file: %v", feasibility.ErrMalformedInput, err)
	}

	if inst.HospitalID == "" {
		inst.HospitalID = cfg.HospitalID
	}
	if inst.HospitalID != cfg.HospitalID {
		return nil, fmt.Errorf("%w: instance is for hospital %s but the configured hospital is %s",
			feasibility.ErrMalformedInput, inst.HospitalID, cfg.HospitalID)
	}
	for i := range inst.Demands {
		inst.Demands[i].HospitalID = inst.HospitalID
	}

	return &inst, nil
}

// SolveInstanceFile solves an instance file without touching the database
func SolveInstanceFile(ctx context.Context, path string, cfg *config.Config, logger *zap.Logger, recorder engine.Recorder, mode model.Mode, timeBudget time.Duration) (*engine.Result, *Instance, error) {
	logger.Debug("Solving instance file", zap.String("path", path))

	inst, err := LoadInstanceFile(path, cfg)
	if err != nil {
		return nil, nil, err
	}

	if mode == "" {
		mode = cfg.Solver.DefaultMode()
	}

	result, err := engine.Solve(ctx, engine.Request{
		HospitalID:    inst.HospitalID,
		PeriodStart:   inst.PeriodStart,
		PeriodEnd:     inst.PeriodEnd,
		Demands:       inst.Demands,
		Professionals: withSharedUnavailability(inst.Professionals, cfg.SharedUnavailability),
		Mode:          mode,
		TimeBudget:    timeBudget,
	}, engine.Options{
		Roster:  cfg.Solver.Options(),
		Metrics: recorder,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to solve instance: %w", err)
	}

	return result, inst, nil
}

// ImportInstanceFile validates an instance file and loads its professionals and
// demands into the database
func ImportInstanceFile(ctx context.Context, store db.RosterWriter, cfg *config.Config, logger *zap.Logger, path string) (*Instance, error) {
	logger.Debug("Importing instance file", zap.String("path", path))

	inst, err := LoadInstanceFile(path, cfg)
	if err != nil {
		return nil, err
	}

	if err := feasibility.ValidateProfessionals(inst.Professionals); err != nil {
		return nil, err
	}
	for _, p := range inst.Professionals {
		for _, block := range p.RecurringUnavailability {
			if err := feasibility.ValidateRRule(block.RRule); err != nil {
				return nil, fmt.Errorf("%w: professional %s: %v", feasibility.ErrMalformedInput, p.ID, err)
			}
		}
	}
	if err := feasibility.ValidateDemands(inst.Demands); err != nil {
		return nil, err
	}

	if err := store.UpsertProfessionals(ctx, inst.HospitalID, inst.Professionals); err != nil {
		return nil, fmt.Errorf("failed to import professionals: %w", err)
	}
	if err := store.UpsertDemands(ctx, inst.HospitalID, inst.Demands); err != nil {
		return nil, fmt.Errorf("failed to import demands: %w", err)
	}

	logger.Info("Instance imported",
		zap.String("hospital_id", inst.HospitalID),
		zap.Int("professionals", len(inst.Professionals)),
		zap.Int("demands", len(inst.Demands)))
	return inst, nil
}
