package feasibility

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// ExpandRecurring turns a professional's recurring unavailability into concrete intervals
// that overlap [periodStart, periodEnd).
//
// Rules are anchored at midnight of the day the search window starts (in periodStart's location),
// so rules without BYHOUR/BYMINUTE start at midnight. Occurrences that begin before the period
// but reach into it are included.
func ExpandRecurring(p model.Professional, periodStart, periodEnd time.Time) ([]model.Interval, error) {
	var intervals []model.Interval

	for i, block := range p.RecurringUnavailability {
		rule, err := rrule.StrToRRule(block.RRule)
		if err != nil {
			return nil, malformed("professional", p.ID, "invalid rrule in recurringUnavailability[%d]: %v", i, err)
		}
		if block.Duration <= 0 {
			return nil, malformed("professional", p.ID, "recurringUnavailability[%d] duration must be positive", i)
		}

		searchStart := startOfDay(periodStart.Add(-block.Duration))
		rule.DTStart(searchStart)

		for _, occurrence := range rule.Between(searchStart, periodEnd, true) {
			end := occurrence.Add(block.Duration)
			if Overlaps(occurrence, end, periodStart, periodEnd) {
				intervals = append(intervals, model.Interval{Start: occurrence, End: end})
			}
		}
	}

	return intervals, nil
}

// MergeIntervals sorts intervals and merges those that overlap or touch.
// The result is ordered and pairwise disjoint.
func MergeIntervals(intervals []model.Interval) []model.Interval {
	if len(intervals) == 0 {
		return nil
	}

	sorted := slices.Clone(intervals)
	slices.SortFunc(sorted, func(a, b model.Interval) int {
		return a.Start.Compare(b.Start)
	})

	merged := []model.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// SnapshotProfessionals deep-copies the professionals for one solve and folds recurring
// unavailability into each vacation list. The solve only ever reads the snapshot, so edits
// to the caller's records during a long solve cannot change its results.
func SnapshotProfessionals(professionals []model.Professional, periodStart, periodEnd time.Time) ([]model.Professional, error) {
	snapshot := make([]model.Professional, len(professionals))
	for i, p := range professionals {
		expanded, err := ExpandRecurring(p, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}

		vacation := make([]model.Interval, 0, len(p.Vacation)+len(expanded))
		vacation = append(vacation, p.Vacation...)
		vacation = append(vacation, expanded...)

		snapshot[i] = p
		snapshot[i].Skills = slices.Clone(p.Skills)
		snapshot[i].RecurringUnavailability = slices.Clone(p.RecurringUnavailability)
		snapshot[i].Vacation = MergeIntervals(vacation)
	}
	return snapshot, nil
}

// SnapshotDemands deep-copies the demands for one solve
func SnapshotDemands(demands []model.Demand) []model.Demand {
	snapshot := make([]model.Demand, len(demands))
	for i, d := range demands {
		snapshot[i] = d
		snapshot[i].Skills = slices.Clone(d.Skills)
	}
	return snapshot
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ValidateRRule checks RRULE syntax without expanding it
func ValidateRRule(s string) error {
	if _, err := rrule.StrToRRule(s); err != nil {
		return fmt.Errorf("invalid rrule %q: %w", s, err)
	}
	return nil
}
