package report

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"orgmap/pkg/schema"
)

// Sheet names of the workbook.
const (
	SheetSummary    = "Summary"
	SheetHierarchy  = "Hierarchy"
	SheetEmployees  = "Employees"
	SheetMismatches = "Campus Mismatches"
)

// WriteXLSX renders r as a workbook with a summary, the manager/location
// counts, the filtered employees and the campus mismatches.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	for _, name := range []string{SheetHierarchy, SheetEmployees, SheetMismatches} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "create sheet %s", name)
		}
	}

	sw := sheetWriter{f: f}
	sw.rows(SheetSummary, summaryRows(r))
	sw.rows(SheetHierarchy, hierarchyRows(r))
	sw.rows(SheetEmployees, employeeRows(r))
	sw.rows(SheetMismatches, mismatchRows(r))
	if sw.err != nil {
		return sw.err
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

type sheetWriter struct {
	f   *excelize.File
	err error
}

func (sw *sheetWriter) rows(sheet string, rows [][]any) {
	for i, row := range rows {
		if sw.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			sw.err = errors.Wrap(err, "cell name")
			return
		}
		if err := sw.f.SetSheetRow(sheet, cell, &row); err != nil {
			sw.err = errors.Wrapf(err, "write %s row %d", sheet, i+1)
		}
	}
}

func summaryRows(r *Report) [][]any {
	rows := [][]any{
		{"File", r.FileName},
		{"View", r.Caption},
		{"Employees", r.Totals.Employees},
		{"Shown after filters", r.Totals.Filtered},
		{"Placed in hierarchy", r.Totals.Placed},
		{"Excluded (no manager)", r.Totals.ExcludedNoManager},
		{"Unknown location", r.Totals.UnknownLocation},
		{"Managers", r.Totals.Managers},
		{"Campus mismatches", r.Totals.CampusMismatches},
		{},
		{"Field", "Column"},
	}
	for _, f := range schema.Fields {
		h, _ := r.Mapping.Header(f)
		rows = append(rows, []any{f.Label(), h})
	}
	return rows
}

func hierarchyRows(r *Report) [][]any {
	rows := [][]any{{"Manager", "Location", "Employees", "Share of manager", "Path", "Manager on roster"}}
	for _, m := range r.Managers {
		for _, l := range m.Locations {
			rows = append(rows, []any{m.Manager, l.Location, l.Count, l.Share, l.Path, m.Found})
		}
	}
	return rows
}

func employeeRows(r *Report) [][]any {
	header := []any{"Row"}
	for _, f := range schema.Fields {
		header = append(header, f.Label())
	}
	rows := [][]any{header}
	for i := range r.Filtered {
		e := &r.Filtered[i]
		row := []any{e.ID + 1}
		for _, f := range schema.Fields {
			row = append(row, e.Value(f))
		}
		rows = append(rows, row)
	}
	return rows
}

func mismatchRows(r *Report) [][]any {
	rows := [][]any{{"Row", "Manager", "Employee location", "Manager location"}}
	for _, m := range r.Mismatches {
		rows = append(rows, []any{m.EmployeeID + 1, m.Manager, m.EmployeeLocation, m.ManagerLocation})
	}
	return rows
}
