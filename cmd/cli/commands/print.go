package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

const clock = "Mon 15:04"

// printVersion prints a schedule version header
func printVersion(w io.Writer, v model.ScheduleVersion) {
	fmt.Fprintf(w, "Version:  %s (#%d)\n", v.ID, v.VersionNumber)
	fmt.Fprintf(w, "Period:   %s to %s\n", v.PeriodStart.Format(time.DateOnly), v.PeriodEnd.Format(time.DateOnly))
	fmt.Fprintf(w, "State:    %s\n", v.Status)
	if v.PdfFileID != "" {
		fmt.Fprintf(w, "PDF:      %s\n", v.PdfFileID)
	}
}

// printResult prints a solve outcome: status, assignments and, when demands were left
// unassigned, why
func printResult(w io.Writer, r model.ResultData) {
	fmt.Fprintf(w, "Mode:     %s\n", r.Mode)
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	if r.ObjectiveValue != nil {
		fmt.Fprintf(w, "Cost:     %.2f\n", *r.ObjectiveValue)
	}
	fmt.Fprintf(w, "Assigned: %d, unassigned: %d (%s)\n\n",
		len(r.Assignments), len(r.UnassignedDemandIDs), time.Duration(r.DurationMillis)*time.Millisecond)

	if len(r.Assignments) > 0 {
		fmt.Fprintln(w, "Assignments:")
		for _, a := range r.Assignments {
			fmt.Fprintf(w, "  %-16s -> %s\n", a.DemandID, a.ProfessionalID)
		}
		fmt.Fprintln(w)
	}

	if r.Diagnostics == nil {
		return
	}

	fmt.Fprintln(w, "Unassigned demands:")
	for _, e := range r.Diagnostics.Eligibility {
		line := fmt.Sprintf("  %-16s %s", e.DemandID, e.Class)
		if len(e.EligibleProfessionalIDs) > 0 {
			line += " (eligible: " + strings.Join(e.EligibleProfessionalIDs, ", ") + ")"
		}
		fmt.Fprintln(w, line)
		for _, x := range e.Exclusions {
			fmt.Fprintf(w, "      %s: %s\n", x.ProfessionalID, x.Reason)
		}
	}
	fmt.Fprintln(w)

	bottlenecks := r.Diagnostics.Bottlenecks()
	if len(bottlenecks) > 0 {
		fmt.Fprintln(w, "Bottlenecks:")
		for _, s := range bottlenecks {
			fmt.Fprintf(w, "  %s - %s  %d demands, %d available\n",
				s.Start.Format(clock), s.End.Format(clock), len(s.ActiveDemandIDs), len(s.AvailableProfessionalIDs))
		}
		fmt.Fprintln(w)
	}

	if r.Diagnostics.Inconclusive {
		fmt.Fprintln(w, "No eligibility gap or bottleneck explains the shortfall.")
		fmt.Fprintln(w)
	}
}
