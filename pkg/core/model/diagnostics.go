package model

import "time"

// Exclusion names the first hard constraint that rules a professional out of a demand
type Exclusion string

const (
	ExclusionNone        Exclusion = ""
	ExclusionInactive    Exclusion = "inactive"
	ExclusionUnavailable Exclusion = "unavailable"
	ExclusionPediatric   Exclusion = "pediatric"
	ExclusionSkills      Exclusion = "skills"
)

// EligibilityClass tells apart demands lost to contention from demands nobody could cover
type EligibilityClass string

const (
	// ClassContention: eligible professionals exist but were all committed elsewhere
	ClassContention EligibilityClass = "CONTENTION"
	// ClassEligibilityGap: no professional satisfies the demand's hard constraints
	ClassEligibilityGap EligibilityClass = "ELIGIBILITY_GAP"
)

// ProfessionalExclusion records why one professional cannot take a demand
type ProfessionalExclusion struct {
	ProfessionalID string    `json:"professionalId"`
	Reason         Exclusion `json:"reason"`
}

// DemandEligibility is the eligibility report for one unassigned demand
type DemandEligibility struct {
	DemandID                string                  `json:"demandId"`
	EligibleProfessionalIDs []string                `json:"eligibleProfessionalIds"`
	Class                   EligibilityClass        `json:"class"`
	Exclusions              []ProfessionalExclusion `json:"exclusions,omitempty"`
}

// Segment is the span between two consecutive time points of the instance
type Segment struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	ActiveDemandIDs          []string `json:"activeDemandIds"`
	AvailableProfessionalIDs []string `json:"availableProfessionalIds"`

	PediatricDemandIDs       []string `json:"pediatricDemandIds,omitempty"`
	PediatricProfessionalIDs []string `json:"pediatricProfessionalIds,omitempty"`

	// Bottleneck: more active demands than available professionals (with at least one available)
	Bottleneck bool `json:"bottleneck"`
	// Uncovered: active demands and no available professional at all
	Uncovered bool `json:"uncovered"`

	PediatricBottleneck bool `json:"pediatricBottleneck"`
	PediatricUncovered  bool `json:"pediatricUncovered"`
}

// DiagnosticsReport explains why a solve left demands unassigned
type DiagnosticsReport struct {
	Eligibility []DemandEligibility `json:"eligibility"`

	// Segments with at least one active demand, in time order
	Segments []Segment `json:"segments"`

	// Inconclusive is set when neither an eligibility gap nor a bottleneck explains the shortfall
	Inconclusive bool `json:"inconclusive"`
}

// GapDemandIDs returns the demands with an empty eligibility set
func (r *DiagnosticsReport) GapDemandIDs() []string {
	var ids []string
	for _, e := range r.Eligibility {
		if e.Class == ClassEligibilityGap {
			ids = append(ids, e.DemandID)
		}
	}
	return ids
}

// Bottlenecks returns the segments flagged as general or pediatric bottlenecks
func (r *DiagnosticsReport) Bottlenecks() []Segment {
	var segments []Segment
	for _, s := range r.Segments {
		if s.Bottleneck || s.PediatricBottleneck {
			segments = append(segments, s)
		}
	}
	return segments
}
