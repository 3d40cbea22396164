package feasibility

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

var base = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return base.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{"disjoint", at(8, 0), at(9, 0), at(10, 0), at(11, 0), false},
		{"touching end to start", at(8, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"touching start to end", at(10, 0), at(11, 0), at(8, 0), at(10, 0), false},
		{"partial overlap", at(8, 0), at(10, 0), at(9, 0), at(11, 0), true},
		{"contained", at(8, 0), at(12, 0), at(9, 0), at(10, 0), true},
		{"identical", at(8, 0), at(9, 0), at(8, 0), at(9, 0), true},
		{"one minute overlap", at(8, 0), at(9, 1), at(9, 0), at(10, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}

func TestOverlaps_SymmetricAndTouchNeverOverlaps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		aStart := at(rng.Intn(24), rng.Intn(60))
		aEnd := aStart.Add(time.Duration(1+rng.Intn(300)) * time.Minute)
		bStart := at(rng.Intn(24), rng.Intn(60))
		bEnd := bStart.Add(time.Duration(1+rng.Intn(300)) * time.Minute)

		assert.Equal(t, Overlaps(aStart, aEnd, bStart, bEnd), Overlaps(bStart, bEnd, aStart, aEnd),
			"overlaps must be symmetric for [%s,%s) and [%s,%s)", aStart, aEnd, bStart, bEnd)

		// Zero-width touch
		cEnd := aEnd.Add(time.Duration(1+rng.Intn(120)) * time.Minute)
		assert.False(t, Overlaps(aStart, aEnd, aEnd, cEnd), "touching intervals must not overlap")
		assert.False(t, Overlaps(aEnd, cEnd, aStart, aEnd), "touching intervals must not overlap")
	}
}

func TestOverlapsAny(t *testing.T) {
	vacation := []model.Interval{
		{Start: at(6, 0), End: at(8, 0)},
		{Start: at(12, 0), End: at(13, 0)},
	}

	assert.False(t, OverlapsAny(at(8, 0), at(12, 0), vacation))
	assert.True(t, OverlapsAny(at(7, 59), at(9, 0), vacation))
	assert.True(t, OverlapsAny(at(11, 0), at(12, 30), vacation))
	assert.False(t, OverlapsAny(at(8, 0), at(12, 0), nil))
}
