package roster

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConstraintViolation is returned when a solver produces a roster that breaks a hard constraint
var ErrConstraintViolation = errors.New("roster violates hard constraints")

// Violation represents a hard-constraint breach for one demand
type Violation struct {
	DemandID       string
	ProfessionalID string
	CriterionName  string
	Description    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: demand %q -> %q: %s", v.CriterionName, v.DemandID, v.ProfessionalID, v.Description)
}

// Criterion is one hard constraint on assignments
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// IsAssignmentValid determines if professional p may take demand d given the roster so far.
	// This acts as a veto - if ANY criterion returns false, the assignment cannot be made.
	IsAssignmentValid(state *State, d, p int) bool

	// ValidateRoster checks a finished roster against this criterion.
	// Returns a slice of violations (empty if all valid).
	ValidateRoster(state *State) []Violation
}

// IsAssignmentValid returns true if no criterion vetoes assigning p to d
func IsAssignmentValid(state *State, d, p int, criteria []Criterion) bool {
	for _, criterion := range criteria {
		if !criterion.IsAssignmentValid(state, d, p) {
			return false
		}
	}
	return true
}

// ValidateRoster runs every criterion's roster check
func ValidateRoster(state *State, criteria []Criterion) []Violation {
	violations := []Violation{}
	for _, criterion := range criteria {
		violations = append(violations, criterion.ValidateRoster(state)...)
	}
	return violations
}

// ViolationError wraps ErrConstraintViolation with the offending violations
type ViolationError struct {
	Violations []Violation
}

func (e *ViolationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrConstraintViolation, strings.Join(parts, "; "))
}

func (e *ViolationError) Unwrap() error {
	return ErrConstraintViolation
}
