package roster

import (
	"runtime"
	"time"
)

// Options configures a solve. It is passed explicitly to every solver; there is no
// package-level solver configuration.
type Options struct {
	// TimeBudget bounds the exact search. Zero means no deadline beyond the context's.
	TimeBudget time.Duration

	// SkillMatchHard makes required skills a hard eligibility constraint.
	// When false a missing skill costs MismatchWeight instead.
	SkillMatchHard bool

	// Objective weights. CoverageWeight is raised automatically so that one more
	// covered demand always outweighs every other term (see EffectiveCoverageWeight).
	CoverageWeight float64
	FairnessWeight float64
	MismatchWeight float64
	RotationWeight float64

	// Workers is the number of exact-search goroutines
	Workers int

	// CheckEvery is the number of search nodes between cancellation checks
	CheckEvery int

	// LPMaxCells caps the LP relaxation matrix size (variables x rows); larger
	// instances skip the LP bound
	LPMaxCells int
}

// DefaultOptions returns the documented default weights and search limits
func DefaultOptions() Options {
	return Options{
		TimeBudget:     10 * time.Second,
		SkillMatchHard: true,
		CoverageWeight: 1000,
		FairnessWeight: 10,
		MismatchWeight: 100,
		RotationWeight: 0.01,
		Workers:        runtime.NumCPU(),
		CheckEvery:     1024,
		LPMaxCells:     250_000,
	}
}

// Weights extracts the objective weights
func (o Options) Weights() Weights {
	return Weights{
		Coverage: o.CoverageWeight,
		Fairness: o.FairnessWeight,
		Mismatch: o.MismatchWeight,
		Rotation: o.RotationWeight,
	}
}

// Normalized fills zero search limits with their defaults
func (o Options) Normalized() Options {
	def := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.CheckEvery <= 0 {
		o.CheckEvery = def.CheckEvery
	}
	if o.LPMaxCells < 0 {
		o.LPMaxCells = 0
	}
	return o
}
