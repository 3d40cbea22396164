// Package diagnostics explains why a solve left demands unassigned. Everything here is a
// pure function of the instance and the outcome; presentation belongs to the caller.
package diagnostics

import (
	"slices"
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/feasibility"
	"github.com/jakechorley/theatre-rota/pkg/core/model"
	"github.com/jakechorley/theatre-rota/pkg/core/roster"
)

// Diagnose builds the eligibility and bottleneck report for the unassigned demands of
// an outcome. Unknown demand ids are skipped.
func Diagnose(inst *roster.Instance, unassigned []string) *model.DiagnosticsReport {
	report := &model.DiagnosticsReport{
		Eligibility: []model.DemandEligibility{},
		Segments:    Segments(inst),
	}

	for _, id := range unassigned {
		d, ok := inst.DemandIndex(id)
		if !ok {
			continue
		}
		report.Eligibility = append(report.Eligibility, Eligibility(inst, d))
	}

	report.Inconclusive = len(report.GapDemandIDs()) == 0 && len(report.Bottlenecks()) == 0
	return report
}

// Eligibility reports which professionals could take demand d ignoring contention.
// For an eligibility gap it also records why each professional is excluded.
func Eligibility(inst *roster.Instance, d int) model.DemandEligibility {
	demand := inst.Demands[d]
	entry := model.DemandEligibility{
		DemandID:                demand.ID,
		EligibleProfessionalIDs: []string{},
	}
	for _, p := range inst.Candidates(d) {
		entry.EligibleProfessionalIDs = append(entry.EligibleProfessionalIDs, inst.Professionals[p].ID)
	}

	if len(entry.EligibleProfessionalIDs) > 0 {
		entry.Class = model.ClassContention
		return entry
	}

	entry.Class = model.ClassEligibilityGap
	for _, p := range inst.Professionals {
		entry.Exclusions = append(entry.Exclusions, model.ProfessionalExclusion{
			ProfessionalID: p.ID,
			Reason:         feasibility.Explain(p, demand, inst.Rules),
		})
	}
	return entry
}

// TimePoints returns the ordered distinct instants formed by every demand start and end,
// every vacation start and end and the period bounds
func TimePoints(inst *roster.Instance) []time.Time {
	points := []time.Time{inst.PeriodStart, inst.PeriodEnd}
	for _, d := range inst.Demands {
		points = append(points, d.Start, d.End)
	}
	for _, p := range inst.Professionals {
		for _, v := range p.Vacation {
			points = append(points, v.Start, v.End)
		}
	}

	slices.SortFunc(points, func(a, b time.Time) int {
		return a.Compare(b)
	})
	return slices.CompactFunc(points, func(a, b time.Time) bool {
		return a.Equal(b)
	})
}

// Segments splits the timeline at TimePoints and compares demand with supply in each
// piece that has at least one active demand. Supply counts active professionals with
// no vacation in the segment; the pediatric comparison is restricted to pediatric
// demands and pediatric-capable professionals.
//
// A segment with demand but no supply at all is marked Uncovered rather than Bottleneck:
// its demands necessarily have empty eligibility sets and show up as gaps.
func Segments(inst *roster.Instance) []model.Segment {
	points := TimePoints(inst)
	segments := []model.Segment{}

	for i := 1; i < len(points); i++ {
		start, end := points[i-1], points[i]

		segment := model.Segment{
			Start:                    start,
			End:                      end,
			ActiveDemandIDs:          []string{},
			AvailableProfessionalIDs: []string{},
		}
		for _, d := range inst.Demands {
			if !feasibility.Overlaps(d.Start, d.End, start, end) {
				continue
			}
			segment.ActiveDemandIDs = append(segment.ActiveDemandIDs, d.ID)
			if d.IsPediatric {
				segment.PediatricDemandIDs = append(segment.PediatricDemandIDs, d.ID)
			}
		}
		if len(segment.ActiveDemandIDs) == 0 {
			continue
		}

		for _, p := range inst.Professionals {
			if !p.Active || !feasibility.IsAvailable(p, start, end) {
				continue
			}
			segment.AvailableProfessionalIDs = append(segment.AvailableProfessionalIDs, p.ID)
			if p.CanTreatPediatric {
				segment.PediatricProfessionalIDs = append(segment.PediatricProfessionalIDs, p.ID)
			}
		}

		demand, supply := len(segment.ActiveDemandIDs), len(segment.AvailableProfessionalIDs)
		segment.Uncovered = supply == 0
		segment.Bottleneck = supply > 0 && demand > supply

		pedDemand, pedSupply := len(segment.PediatricDemandIDs), len(segment.PediatricProfessionalIDs)
		segment.PediatricUncovered = pedDemand > 0 && pedSupply == 0
		segment.PediatricBottleneck = pedSupply > 0 && pedDemand > pedSupply

		segments = append(segments, segment)
	}

	return segments
}
