package commands

import (
	"fmt"
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

const defaultPeriodDays = 7

// parseTime accepts a date (midnight UTC) or an RFC 3339 timestamp
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", s)
	}
	return t.UTC(), nil
}

// parsePeriod parses the --start and --end flags. An empty end means a week after start.
func parsePeriod(start, end string) (time.Time, time.Time, error) {
	if start == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("--start is required")
	}
	periodStart, err := parseTime(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
	}

	periodEnd := periodStart.AddDate(0, 0, defaultPeriodDays)
	if end != "" {
		periodEnd, err = parseTime(end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
	}

	if !periodStart.Before(periodEnd) {
		return time.Time{}, time.Time{}, fmt.Errorf("--start %s must be before --end %s",
			periodStart.Format(time.RFC3339), periodEnd.Format(time.RFC3339))
	}
	return periodStart, periodEnd, nil
}

// parseMode validates the --mode flag; empty keeps the configured default
func parseMode(s string) (model.Mode, error) {
	mode := model.Mode(s)
	if s != "" && !mode.IsValid() {
		return "", fmt.Errorf("--mode must be greedy or exact, got %q", s)
	}
	return mode, nil
}
