// Package engine is the single entry point for a rostering solve. It validates the
// request, snapshots professional data, runs the selected strategy, cross-checks the
// outcome and attaches diagnostics when coverage is incomplete.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/theatre-rota/pkg/core/allocator"
	"github.com/jakechorley/theatre-rota/pkg/core/diagnostics"
	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
	"github.com/jakechorley/theatre-rota/pkg/core/roster/criteria"
	"github.com/jakechorley/theatre-rota/pkg/core/solver"
)

// ErrStaleSnapshot is returned when professional data changed while the solve ran.
// The result is discarded; the caller should retry.
var ErrStaleSnapshot = errors.New("professional data changed during solve")

// Request describes one solve for a hospital and period
type Request struct {
	HospitalID    string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Demands       []model.Demand
	Professionals []model.Professional
	Mode          model.Mode

	// TimeBudget overrides Options.Roster.TimeBudget when positive
	TimeBudget time.Duration

	// SnapshotStamp is the stamp read before the professionals were loaded. Solve reads
	// one itself when it is empty and a Stamper is set.
	SnapshotStamp string
}

// SnapshotStamper returns a value that changes whenever the professional, vacation or
// recurring unavailability data of a hospital changes
type SnapshotStamper interface {
	SnapshotStamp(ctx context.Context, hospitalID string) (string, error)
}

// Recorder receives one observation per completed solve
type Recorder interface {
	ObserveSolve(mode model.Mode, status model.SolveStatus, duration time.Duration, assigned, unassigned int)
}

// Options carries everything a solve needs besides the request
type Options struct {
	Roster roster.Options

	// Stamper enables stale snapshot detection when set
	Stamper SnapshotStamper

	// Metrics is optional
	Metrics Recorder

	// Logger defaults to a no-op logger
	Logger *zap.Logger
}

// Result is the outcome of a solve
type Result struct {
	Mode                model.Mode
	Status              model.SolveStatus
	Assignments         []model.Assignment
	UnassignedDemandIDs []string

	// Diagnostics is present iff at least one demand is unassigned
	Diagnostics *model.DiagnosticsReport

	// ObjectiveValue is set for the exact strategy only
	ObjectiveValue *float64
	BestBound      *float64
	NodesExplored  int64

	Duration      time.Duration
	SnapshotStamp string
}

// ResultData converts the result into its persisted form
func (r *Result) ResultData() model.ResultData {
	return model.ResultData{
		Mode:                r.Mode,
		Status:              r.Status,
		ObjectiveValue:      r.ObjectiveValue,
		BestBound:           r.BestBound,
		Assignments:         r.Assignments,
		UnassignedDemandIDs: r.UnassignedDemandIDs,
		Diagnostics:         r.Diagnostics,
		NodesExplored:       r.NodesExplored,
		DurationMillis:      r.Duration.Milliseconds(),
		SnapshotStamp:       r.SnapshotStamp,
	}
}

// SolverFor returns the strategy for a mode
func SolverFor(mode model.Mode) (roster.Solver, error) {
	switch mode {
	case model.ModeGreedy:
		return allocator.Greedy{}, nil
	case model.ModeExact:
		return solver.Exact{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown solve mode %q", feasibility.ErrMalformedInput, mode)
	}
}

// Solve runs one solve. Malformed input fails before any solving begins. Scheduling
// pressure never fails: uncovered demands are reported as unassigned with diagnostics.
func Solve(ctx context.Context, req Request, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(
		zap.String("hospital_id", req.HospitalID),
		zap.String("mode", string(req.Mode)),
	)

	strategy, err := SolverFor(req.Mode)
	if err != nil {
		return nil, err
	}

	rosterOpts := opts.Roster
	if req.TimeBudget > 0 {
		rosterOpts.TimeBudget = req.TimeBudget
	}

	stamp := req.SnapshotStamp
	if opts.Stamper != nil && stamp == "" {
		stamp, err = opts.Stamper.SnapshotStamp(ctx, req.HospitalID)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot stamp: %w", err)
		}
	}

	// Explicit vacations are validated before recurring blocks are folded in
	if err := feasibility.ValidateProfessionals(req.Professionals); err != nil {
		return nil, err
	}
	professionals, err := feasibility.SnapshotProfessionals(req.Professionals, req.PeriodStart, req.PeriodEnd)
	if err != nil {
		return nil, err
	}

	// NewInstance validates again; on the merged list that pass is only a guard
	inst, err := roster.NewInstance(req.HospitalID, req.PeriodStart, req.PeriodEnd, req.Demands, professionals,
		feasibility.Rules{SkillMatchHard: rosterOpts.SkillMatchHard})
	if err != nil {
		return nil, err
	}

	logger.Debug("Solving",
		zap.Int("demands", len(inst.Demands)),
		zap.Int("professionals", len(inst.Professionals)),
		zap.Duration("time_budget", rosterOpts.TimeBudget))

	started := time.Now()
	outcome, err := strategy.Solve(ctx, inst, rosterOpts)
	if err != nil {
		return nil, fmt.Errorf("%s solve failed: %w", strategy.Name(), err)
	}
	duration := time.Since(started)

	if err := criteria.Check(inst, outcome.Assignments); err != nil {
		logger.Error("Solver produced an invalid roster", zap.Error(err))
		return nil, fmt.Errorf("%s solver outcome failed validation: %w", strategy.Name(), err)
	}

	result := &Result{
		Mode:                req.Mode,
		Status:              outcome.Status,
		Assignments:         outcome.Assignments,
		UnassignedDemandIDs: outcome.Unassigned,
		BestBound:           outcome.BestBound,
		NodesExplored:       outcome.NodesExplored,
		Duration:            duration,
		SnapshotStamp:       stamp,
	}
	if req.Mode == model.ModeExact {
		value := outcome.Cost.Value
		result.ObjectiveValue = &value
	}
	if len(outcome.Unassigned) > 0 {
		result.Diagnostics = diagnostics.Diagnose(inst, outcome.Unassigned)
	}

	if opts.Stamper != nil {
		current, err := opts.Stamper.SnapshotStamp(ctx, req.HospitalID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read snapshot stamp: %w", err)
		}
		if current != stamp {
			logger.Warn("Discarding result of stale solve",
				zap.String("stamp_before", stamp),
				zap.String("stamp_after", current))
			return nil, ErrStaleSnapshot
		}
	}

	if opts.Metrics != nil {
		opts.Metrics.ObserveSolve(result.Mode, result.Status, duration, len(result.Assignments), len(result.UnassignedDemandIDs))
	}

	logger.Info("Solve finished",
		zap.String("status", string(result.Status)),
		zap.Int("assigned", len(result.Assignments)),
		zap.Int("unassigned", len(result.UnassignedDemandIDs)),
		zap.Duration("duration", duration))

	return result, nil
}
