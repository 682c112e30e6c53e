package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/xuri/excelize/v2"
)

const (
	detailSheet = "Detalhamento"
	courseSheet = "Por curso"
)

// WriteCSV writes the detail rows with the source columns the file carried.
func WriteCSV(w io.Writer, d Detail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range d.Rows {
		row := make([]string, len(d.Columns))
		for i, column := range d.Columns {
			switch v := r.Field(column).(type) {
			case string:
				row[i] = v
			case int:
				row[i] = strconv.Itoa(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a workbook with the detail rows on one sheet and the
// per-course totals on another.
func WriteXLSX(w io.Writer, d Detail) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", detailSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := setRow(f, detailSheet, 1, toAny(d.Columns)); err != nil {
		return err
	}
	for i, r := range d.Rows {
		values := make([]any, len(d.Columns))
		for j, column := range d.Columns {
			values[j] = r.Field(column)
		}
		if err := setRow(f, detailSheet, i+2, values); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(courseSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}
	header := []any{constants.ColumnCourse, constants.ColumnCompletions, constants.ColumnClasses}
	if err := setRow(f, courseSheet, 1, header); err != nil {
		return err
	}
	for i, c := range d.ByCourse {
		if err := setRow(f, courseSheet, i+2, []any{c.Course, c.Completions, c.Classes}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
