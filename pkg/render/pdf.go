// Package render turns a schedule version into a printable PDF roster
package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/jakechorley/theatre-rota/pkg/core/model"
)

const timeLayout = "2006-01-02 15:04"

// Row is one line of the rendered roster
type Row struct {
	Start        string
	End          string
	DemandID     string
	Procedure    string
	Professional string
}

// Table is the tabular form of a schedule version, ordered by demand start
type Table struct {
	Title      string
	Subtitle   string
	Assigned   []Row
	Unassigned []Row
}

// PDFRenderer renders schedule versions with gofpdf
type PDFRenderer struct{}

// NewPDFRenderer constructs a PDF renderer
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// BuildTable joins a version's assignments with the demand and professional records.
// Records missing from the lookups are rendered by id.
func BuildTable(version model.ScheduleVersion, demands []model.Demand, professionals []model.Professional) Table {
	demandsByID := make(map[string]model.Demand, len(demands))
	for _, d := range demands {
		demandsByID[d.ID] = d
	}
	namesByID := make(map[string]string, len(professionals))
	for _, p := range professionals {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		namesByID[p.ID] = name
	}

	row := func(demandID, professionalID string) Row {
		r := Row{DemandID: demandID}
		if d, ok := demandsByID[demandID]; ok {
			r.Start = d.Start.Format(timeLayout)
			r.End = d.End.Format(timeLayout)
			r.Procedure = d.Procedure
		}
		if professionalID != "" {
			r.Professional = professionalID
			if name, ok := namesByID[professionalID]; ok {
				r.Professional = name
			}
		}
		return r
	}

	table := Table{
		Title: fmt.Sprintf("Theatre rota %s to %s",
			version.PeriodStart.Format("2006-01-02"), version.PeriodEnd.Format("2006-01-02")),
		Subtitle: fmt.Sprintf("Hospital %s, version %d (%s), solve status %s",
			version.HospitalID, version.VersionNumber, version.Status, version.ResultData.Status),
	}
	for _, a := range version.ResultData.Assignments {
		table.Assigned = append(table.Assigned, row(a.DemandID, a.ProfessionalID))
	}
	for _, id := range version.ResultData.UnassignedDemandIDs {
		table.Unassigned = append(table.Unassigned, row(id, ""))
	}

	byStart := func(a, b Row) int {
		if c := strings.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.DemandID, b.DemandID)
	}
	slices.SortFunc(table.Assigned, byStart)
	slices.SortFunc(table.Unassigned, byStart)

	return table
}

// Render creates a PDF with the assigned demands and, when present, the unassigned ones
func (r *PDFRenderer) Render(version model.ScheduleVersion, demands []model.Demand, professionals []model.Professional) ([]byte, error) {
	table := BuildTable(version, demands, professionals)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, table.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, table.Subtitle, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	writeRows(pdf, []string{"Start", "End", "Case", "Procedure", "Professional"}, table.Assigned)

	if len(table.Unassigned) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, fmt.Sprintf("Unassigned cases (%d)", len(table.Unassigned)), "", 1, "L", false, 0, "")
		writeRows(pdf, []string{"Start", "End", "Case", "Procedure", ""}, table.Unassigned)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var columnWidths = []float64{40, 40, 40, 97, 60}

func writeRows(pdf *gofpdf.Fpdf, headers []string, rows []Row) {
	pdf.SetFont("Arial", "B", 10)
	for i, header := range headers {
		pdf.CellFormat(columnWidths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		for i, value := range []string{row.Start, row.End, row.DemandID, row.Procedure, row.Professional} {
			pdf.CellFormat(columnWidths[i], 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
