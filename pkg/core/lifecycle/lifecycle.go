// Package lifecycle governs how a solve result becomes an authoritative schedule:
// DRAFT -> PUBLISHED -> ARCHIVED, strictly forward.
package lifecycle

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

var (
	// ErrInvalidTransition is returned for any transition other than DRAFT->PUBLISHED or PUBLISHED->ARCHIVED
	ErrInvalidTransition = errors.New("invalid schedule version transition")

	// ErrNotPublishable is returned when a draft's solve status may not be published
	ErrNotPublishable = errors.New("schedule version is not publishable")
)

// Policy configures which solve statuses may be published
type Policy struct {
	// AllowPartialHeuristic permits publishing greedy results with unassigned demands
	AllowPartialHeuristic bool
}

// DraftParams identifies the solve a draft is created from
type DraftParams struct {
	TenantID    string
	HospitalID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	JobID       string
	Result      model.ResultData
	GeneratedAt time.Time
}

// NextVersionNumber returns one more than the highest version number among existing
// versions of the same hospital and period (1 when there are none)
func NextVersionNumber(existing []model.ScheduleVersion, hospitalID string, periodStart, periodEnd time.Time) int {
	highest := 0
	for _, v := range existing {
		if v.SamePeriod(hospitalID, periodStart, periodEnd) && v.VersionNumber > highest {
			highest = v.VersionNumber
		}
	}
	return highest + 1
}

// NewDraft wraps a solve result in a new DRAFT version numbered after the existing
// versions of its hospital and period. Every solve produces a draft, including
// NO_COVERAGE results.
func NewDraft(existing []model.ScheduleVersion, params DraftParams) model.ScheduleVersion {
	return model.ScheduleVersion{
		ID:            uuid.New().String(),
		TenantID:      params.TenantID,
		HospitalID:    params.HospitalID,
		PeriodStart:   params.PeriodStart,
		PeriodEnd:     params.PeriodEnd,
		Status:        model.VersionDraft,
		VersionNumber: NextVersionNumber(existing, params.HospitalID, params.PeriodStart, params.PeriodEnd),
		ResultData:    params.Result,
		GeneratedAt:   params.GeneratedAt,
		JobID:         params.JobID,
	}
}

// IsPublishable reports whether a solve status may be published under the policy
func IsPublishable(status model.SolveStatus, policy Policy) bool {
	switch status {
	case model.StatusSolved, model.StatusPartialOptimal:
		return true
	case model.StatusPartialHeuristic:
		return policy.AllowPartialHeuristic
	default:
		return false
	}
}

// Publish moves a DRAFT to PUBLISHED and stamps PublishedAt. Other published versions
// of the same period are left untouched.
func Publish(v *model.ScheduleVersion, policy Policy, now time.Time) error {
	if v.Status != model.VersionDraft {
		return fmt.Errorf("%w: cannot publish version %s in status %s", ErrInvalidTransition, v.ID, v.Status)
	}
	if !IsPublishable(v.ResultData.Status, policy) {
		return fmt.Errorf("%w: version %s has solve status %s", ErrNotPublishable, v.ID, v.ResultData.Status)
	}
	v.Status = model.VersionPublished
	v.PublishedAt = &now
	return nil
}

// Archive moves a PUBLISHED version to ARCHIVED. Archived versions are terminal.
func Archive(v *model.ScheduleVersion, now time.Time) error {
	if v.Status != model.VersionPublished {
		return fmt.Errorf("%w: cannot archive version %s in status %s", ErrInvalidTransition, v.ID, v.Status)
	}
	v.Status = model.VersionArchived
	v.ArchivedAt = &now
	return nil
}

// Transition applies the transition to the target status
func Transition(v *model.ScheduleVersion, to model.VersionStatus, policy Policy, now time.Time) error {
	switch to {
	case model.VersionPublished:
		return Publish(v, policy, now)
	case model.VersionArchived:
		return Archive(v, now)
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, v.Status, to)
	}
}

// Current returns the published version with the highest version number for the
// hospital and period. Drafts and archived versions are never current.
func Current(versions []model.ScheduleVersion, hospitalID string, periodStart, periodEnd time.Time) (model.ScheduleVersion, bool) {
	var current model.ScheduleVersion
	found := false
	for _, v := range versions {
		if v.Status != model.VersionPublished || !v.SamePeriod(hospitalID, periodStart, periodEnd) {
			continue
		}
		if !found || v.VersionNumber > current.VersionNumber {
			current = v
			found = true
		}
	}
	return current, found
}

// AttachPDF records the rendered artifact of a published version
func AttachPDF(v *model.ScheduleVersion, fileID string) error {
	if v.Status != model.VersionPublished {
		return fmt.Errorf("%w: cannot attach pdf to version %s in status %s", ErrInvalidTransition, v.ID, v.Status)
	}
	if fileID == "" {
		return errors.New("pdf file id is required")
	}
	v.PdfFileID = fileID
	return nil
}

// DemandWriteBack is the assignment each demand of a period should record
type DemandWriteBack struct {
	Assign []model.Assignment
	Clear  []string
}

// WriteBack returns the demand assignments after changed was published or archived.
// Demands follow the current version of the period. Demands of changed that the current
// version does not mention, or all of them when nothing is current, are cleared.
func WriteBack(versions []model.ScheduleVersion, changed model.ScheduleVersion) DemandWriteBack {
	var out DemandWriteBack
	mentioned := make(map[string]bool)

	if current, ok := Current(versions, changed.HospitalID, changed.PeriodStart, changed.PeriodEnd); ok {
		out.Assign = slices.Clone(current.ResultData.Assignments)
		for _, a := range current.ResultData.Assignments {
			mentioned[a.DemandID] = true
		}
		for _, id := range current.ResultData.UnassignedDemandIDs {
			mentioned[id] = true
			out.Clear = append(out.Clear, id)
		}
	}

	for _, a := range changed.ResultData.Assignments {
		if !mentioned[a.DemandID] {
			mentioned[a.DemandID] = true
			out.Clear = append(out.Clear, a.DemandID)
		}
	}
	for _, id := range changed.ResultData.UnassignedDemandIDs {
		if !mentioned[id] {
			mentioned[id] = true
			out.Clear = append(out.Clear, id)
		}
	}

	slices.Sort(out.Clear)
	return out
}
