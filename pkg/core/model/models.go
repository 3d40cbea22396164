package model

import (
	"slices"
	"time"
)

// Priority of a demand. Higher values are scheduled first when start times tie.
type Priority string

const (
	PriorityNone      Priority = "none"
	PriorityUrgent    Priority = "urgent"
	PriorityEmergency Priority = "emergency"
)

// Rank returns the ordering weight of the priority (emergency > urgent > none)
func (p Priority) Rank() int {
	switch p {
	case PriorityEmergency:
		return 2
	case PriorityUrgent:
		return 1
	default:
		return 0
	}
}

func (p Priority) IsValid() bool {
	return p == PriorityNone || p == PriorityUrgent || p == PriorityEmergency
}

// Complexity of a surgical case. Empty means not specified.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

func (c Complexity) IsValid() bool {
	return c == "" || c == ComplexityLow || c == ComplexityMedium || c == ComplexityHigh
}

// Interval is a half-open time range [Start, End)
type Interval struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Demand is a time-bound work item (a surgical case) requiring one professional
type Demand struct {
	ID             string     `json:"id" yaml:"id" validate:"required"`
	Start          time.Time  `json:"start" yaml:"start" validate:"required"`
	End            time.Time  `json:"end" yaml:"end" validate:"required"`
	Procedure      string     `json:"procedure" yaml:"procedure"`
	AnesthesiaType string     `json:"anesthesiaType,omitempty" yaml:"anesthesiaType,omitempty"`
	Skills         []string   `json:"skills,omitempty" yaml:"skills,omitempty" validate:"dive,required"`
	Priority       Priority   `json:"priority" yaml:"priority" validate:"omitempty,oneof=none urgent emergency"`
	Complexity     Complexity `json:"complexity,omitempty" yaml:"complexity,omitempty" validate:"omitempty,oneof=low medium high"`
	IsPediatric    bool       `json:"isPediatric" yaml:"isPediatric"`
	HospitalID     string     `json:"hospitalId" yaml:"hospitalId"`

	// AssignedProfessionalID is empty until a published schedule assigns the demand
	AssignedProfessionalID string `json:"assignedProfessionalId,omitempty" yaml:"assignedProfessionalId,omitempty"`
}

// Interval returns the demand's time window
func (d Demand) Interval() Interval {
	return Interval{Start: d.Start, End: d.End}
}

// RecurringBlock is a repeating unavailability window, e.g. a weekly half day off.
// RRule follows RFC 5545 (without DTSTART, which is anchored to the solve period).
type RecurringBlock struct {
	RRule    string        `json:"rrule" yaml:"rrule" validate:"required"`
	Duration time.Duration `json:"duration" yaml:"duration" validate:"required,gt=0"`
}

// Professional is a member of the roster pool
type Professional struct {
	ID                string   `json:"id" yaml:"id" validate:"required"`
	Name              string   `json:"name" yaml:"name"`
	Skills            []string `json:"skills,omitempty" yaml:"skills,omitempty" validate:"dive,required"`
	CanTreatPediatric bool     `json:"canTreatPediatric" yaml:"canTreatPediatric"`

	// Vacation intervals, ordered by start and pairwise disjoint
	Vacation []Interval `json:"vacation,omitempty" yaml:"vacation,omitempty"`

	RecurringUnavailability []RecurringBlock `json:"recurringUnavailability,omitempty" yaml:"recurringUnavailability,omitempty" validate:"dive"`

	// Sequence is the rotation rank used for fairness tie-breaking (lower goes first)
	Sequence int  `json:"sequence" yaml:"sequence"`
	Active   bool `json:"active" yaml:"active"`
}

// HasSkill reports whether the professional holds the given skill tag
func (p Professional) HasSkill(skill string) bool {
	return slices.Contains(p.Skills, skill)
}

// Assignment pairs a demand with the professional covering it
type Assignment struct {
	DemandID       string `json:"demandId" yaml:"demandId"`
	ProfessionalID string `json:"professionalId" yaml:"professionalId"`
}

// Mode selects the solving strategy
type Mode string

const (
	ModeGreedy Mode = "greedy"
	ModeExact  Mode = "exact"
)

func (m Mode) IsValid() bool {
	return m == ModeGreedy || m == ModeExact
}

// SolveStatus summarises a solve outcome
type SolveStatus string

const (
	// StatusSolved means every demand was covered by greedy, or the exact search proved optimality
	StatusSolved SolveStatus = "SOLVED"
	// StatusPartialOptimal is the exact solver's best incumbent when the budget ran out before a proof
	StatusPartialOptimal SolveStatus = "PARTIAL_OPTIMAL"
	// StatusPartialHeuristic is a greedy result with at least one unassigned demand
	StatusPartialHeuristic SolveStatus = "PARTIAL_HEURISTIC"
	// StatusNoCoverage means there were demands and none could be assigned
	StatusNoCoverage SolveStatus = "NO_COVERAGE"
)

// VersionStatus is the lifecycle state of a schedule version
type VersionStatus string

const (
	VersionDraft     VersionStatus = "DRAFT"
	VersionPublished VersionStatus = "PUBLISHED"
	VersionArchived  VersionStatus = "ARCHIVED"
)

// ResultData is the persisted payload of a solve
type ResultData struct {
	Mode                Mode               `json:"mode"`
	Status              SolveStatus        `json:"status"`
	ObjectiveValue      *float64           `json:"objectiveValue,omitempty"`
	BestBound           *float64           `json:"bestBound,omitempty"`
	Assignments         []Assignment       `json:"assignments"`
	UnassignedDemandIDs []string           `json:"unassignedDemandIds"`
	Diagnostics         *DiagnosticsReport `json:"diagnostics,omitempty"`
	NodesExplored       int64              `json:"nodesExplored,omitempty"`
	DurationMillis      int64              `json:"durationMillis"`
	SnapshotStamp       string             `json:"snapshotStamp,omitempty"`
}

// ScheduleVersion is a versioned, publishable snapshot of a solve result
type ScheduleVersion struct {
	ID            string        `json:"id"`
	TenantID      string        `json:"tenantId"`
	HospitalID    string        `json:"hospitalId"`
	PeriodStart   time.Time     `json:"periodStart"`
	PeriodEnd     time.Time     `json:"periodEnd"`
	Status        VersionStatus `json:"status"`
	VersionNumber int           `json:"versionNumber"`
	ResultData    ResultData    `json:"resultData"`
	GeneratedAt   time.Time     `json:"generatedAt"`
	PublishedAt   *time.Time    `json:"publishedAt,omitempty"`
	ArchivedAt    *time.Time    `json:"archivedAt,omitempty"`
	JobID         string        `json:"jobId"`
	PdfFileID     string        `json:"pdfFileId,omitempty"`
}

// SamePeriod reports whether the version covers the given hospital and period
func (v ScheduleVersion) SamePeriod(hospitalID string, periodStart, periodEnd time.Time) bool {
	return v.HospitalID == hospitalID && v.PeriodStart.Equal(periodStart) && v.PeriodEnd.Equal(periodEnd)
}
