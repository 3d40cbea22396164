package feasibility

import (
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and [bStart, bEnd) collide.
// Intervals that only touch (aEnd == bStart) do not overlap.
//
// Every component decides "do two time ranges collide" through this function.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// IntervalsOverlap is Overlaps for two model intervals
func IntervalsOverlap(a, b model.Interval) bool {
	return Overlaps(a.Start, a.End, b.Start, b.End)
}

// OverlapsAny reports whether [start, end) overlaps any of the given intervals
func OverlapsAny(start, end time.Time, intervals []model.Interval) bool {
	for _, iv := range intervals {
		if Overlaps(start, end, iv.Start, iv.End) {
			return true
		}
	}
	return false
}
