// Package rostertest builds rostering instances for tests
package rostertest

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

// Day is the reference day every generated instance lives on
var Day = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

// At returns Day at the given hour and minute
func At(hour, minute int) time.Time {
	return Day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// Shape bounds a random instance
type Shape struct {
	Demands       int
	Professionals int
	// Hours is the span demands are spread across, starting at 06:00
	Hours int
	// Skills is the size of the skill vocabulary
	Skills int
}

var skillNames = []string{"cardiac", "neuro", "ortho", "vascular", "obstetric"}

var priorities = []model.Priority{model.PriorityNone, model.PriorityUrgent, model.PriorityEmergency}

// Random generates a valid instance: demands with 30-minute granularity windows,
// professionals with disjoint vacation, mixed pediatric and skill flags and a few
// inactive members.
func Random(rng *rand.Rand, shape Shape) ([]model.Demand, []model.Professional) {
	if shape.Hours <= 0 {
		shape.Hours = 10
	}
	if shape.Skills <= 0 || shape.Skills > len(skillNames) {
		shape.Skills = 3
	}
	slots := shape.Hours * 2

	demands := make([]model.Demand, shape.Demands)
	for i := range demands {
		startSlot := rng.Intn(slots)
		length := 1 + rng.Intn(6)
		start := At(6, 0).Add(time.Duration(startSlot) * 30 * time.Minute)
		demands[i] = model.Demand{
			ID:          fmt.Sprintf("d%02d", i),
			Start:       start,
			End:         start.Add(time.Duration(length) * 30 * time.Minute),
			Procedure:   "procedure",
			Priority:    priorities[rng.Intn(len(priorities))],
			IsPediatric: rng.Intn(4) == 0,
			HospitalID:  "h1",
		}
		if rng.Intn(2) == 0 {
			demands[i].Skills = []string{skillNames[rng.Intn(shape.Skills)]}
		}
	}

	professionals := make([]model.Professional, shape.Professionals)
	for i := range professionals {
		p := model.Professional{
			ID:                fmt.Sprintf("p%02d", i),
			Name:              fmt.Sprintf("Professional %d", i),
			CanTreatPediatric: rng.Intn(2) == 0,
			Sequence:          rng.Intn(shape.Professionals + 1),
			Active:            rng.Intn(8) != 0,
		}
		for s := 0; s < shape.Skills; s++ {
			if rng.Intn(2) == 0 {
				p.Skills = append(p.Skills, skillNames[s])
			}
		}
		// At most two disjoint vacation blocks
		cursor := At(6, 0)
		blocks := rng.Intn(3)
		for v := 0; v < blocks; v++ {
			start := cursor.Add(time.Duration(rng.Intn(slots/2+1)) * 30 * time.Minute)
			end := start.Add(time.Duration(1+rng.Intn(4)) * 30 * time.Minute)
			p.Vacation = append(p.Vacation, model.Interval{Start: start, End: end})
			cursor = end
		}
		professionals[i] = p
	}

	return demands, professionals
}

// DoubleBookings returns, per professional id, pairs of overlapping demand ids in the assignments.
// It scans every pair directly rather than going through the solver's structures.
func DoubleBookings(demands []model.Demand, assignments []model.Assignment) []string {
	byID := make(map[string]model.Demand, len(demands))
	for _, d := range demands {
		byID[d.ID] = d
	}

	var clashes []string
	for i := 0; i < len(assignments); i++ {
		for j := i + 1; j < len(assignments); j++ {
			if assignments[i].ProfessionalID != assignments[j].ProfessionalID {
				continue
			}
			a, b := byID[assignments[i].DemandID], byID[assignments[j].DemandID]
			if a.Start.Before(b.End) && b.Start.Before(a.End) {
				clashes = append(clashes, fmt.Sprintf("%s: %s/%s", assignments[i].ProfessionalID, a.ID, b.ID))
			}
		}
	}
	return clashes
}
