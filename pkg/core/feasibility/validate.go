package feasibility

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

var (
	// ErrMalformedInput is returned for input that is rejected before any solving begins
	ErrMalformedInput = errors.New("malformed input")

	// ErrUnknownReference is returned when an id does not resolve within the snapshot.
	// It is a kind of malformed input: errors.Is(err, ErrMalformedInput) also holds.
	ErrUnknownReference = fmt.Errorf("%w: unknown reference", ErrMalformedInput)
)

// InputError describes one malformed record
type InputError struct {
	Kind   string // "demand", "professional", "assignment", "period"
	ID     string
	Reason string
	base   error
}

func (e *InputError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Reason)
}

func (e *InputError) Unwrap() error {
	if e.base != nil {
		return e.base
	}
	return ErrMalformedInput
}

func malformed(kind, id, format string, args ...any) *InputError {
	return &InputError{Kind: kind, ID: id, Reason: fmt.Sprintf(format, args...)}
}

func unknownRef(kind, id, format string, args ...any) *InputError {
	return &InputError{Kind: kind, ID: id, Reason: fmt.Sprintf(format, args...), base: ErrUnknownReference}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidatePeriod checks that the solve period is a non-empty half-open interval
func ValidatePeriod(periodStart, periodEnd time.Time) error {
	if periodStart.IsZero() || periodEnd.IsZero() {
		return malformed("period", "", "period bounds are required")
	}
	if !periodStart.Before(periodEnd) {
		return malformed("period", "", "start %s must be before end %s",
			periodStart.Format(time.RFC3339), periodEnd.Format(time.RFC3339))
	}
	return nil
}

// ValidateDemands rejects demands with missing ids, duplicate ids, invalid enums or
// a window where start >= end. Inputs are never repaired.
func ValidateDemands(demands []model.Demand) error {
	seen := make(map[string]bool, len(demands))
	for i, d := range demands {
		if err := validate.Struct(d); err != nil {
			return malformed("demand", d.ID, "validation failed at index %d: %v", i, err)
		}
		if seen[d.ID] {
			return malformed("demand", d.ID, "duplicate id")
		}
		seen[d.ID] = true

		if !d.Start.Before(d.End) {
			return malformed("demand", d.ID, "start %s must be before end %s",
				d.Start.Format(time.RFC3339), d.End.Format(time.RFC3339))
		}
	}
	return nil
}

// ValidateProfessionals rejects professionals with missing or duplicate ids, empty vacation
// intervals, or vacation intervals that overlap each other.
func ValidateProfessionals(professionals []model.Professional) error {
	seen := make(map[string]bool, len(professionals))
	for i, p := range professionals {
		if err := validate.Struct(p); err != nil {
			return malformed("professional", p.ID, "validation failed at index %d: %v", i, err)
		}
		if seen[p.ID] {
			return malformed("professional", p.ID, "duplicate id")
		}
		seen[p.ID] = true

		for _, v := range p.Vacation {
			if !v.Start.Before(v.End) {
				return malformed("professional", p.ID, "vacation start %s must be before end %s",
					v.Start.Format(time.RFC3339), v.End.Format(time.RFC3339))
			}
		}

		// Pairwise check on a sorted copy; callers may not have ordered the list
		sorted := slices.Clone(p.Vacation)
		slices.SortFunc(sorted, func(a, b model.Interval) int {
			return a.Start.Compare(b.Start)
		})
		for j := 1; j < len(sorted); j++ {
			if IntervalsOverlap(sorted[j-1], sorted[j]) {
				return malformed("professional", p.ID, "vacation intervals overlap: [%s, %s) and [%s, %s)",
					sorted[j-1].Start.Format(time.RFC3339), sorted[j-1].End.Format(time.RFC3339),
					sorted[j].Start.Format(time.RFC3339), sorted[j].End.Format(time.RFC3339))
			}
		}
	}
	return nil
}

// ValidateAssignments checks that every assignment references a known demand and professional
// and that no demand is assigned twice.
func ValidateAssignments(assignments []model.Assignment, demands []model.Demand, professionals []model.Professional) error {
	demandIDs := make(map[string]bool, len(demands))
	for _, d := range demands {
		demandIDs[d.ID] = true
	}
	professionalIDs := make(map[string]bool, len(professionals))
	for _, p := range professionals {
		professionalIDs[p.ID] = true
	}

	assigned := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if !demandIDs[a.DemandID] {
			return unknownRef("assignment", a.DemandID, "demand not present in snapshot")
		}
		if !professionalIDs[a.ProfessionalID] {
			return unknownRef("assignment", a.DemandID, "professional %q not present in snapshot", a.ProfessionalID)
		}
		if assigned[a.DemandID] {
			return malformed("assignment", a.DemandID, "demand assigned more than once")
		}
		assigned[a.DemandID] = true
	}
	return nil
}
