package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/superdango/embodied-carbon/model/aggregate"
)

const (
	elementsSheet   = "Elements"
	categoriesSheet = "Categories"
	levelsSheet     = "Levels"
	totalsSheet     = "Totals"
)

var bucketHeader = []any{"Steel", "Concrete", "Timber", "Rebar", "Unknown", "Total"}

// WriteXLSX writes a workbook with the element listing, the category and
// level buckets and the totals.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", elementsSheet); err != nil {
		return fmt.Errorf("failed to create xlsx sheet: %w", err)
	}
	for _, sheet := range []string{categoriesSheet, levelsSheet, totalsSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create xlsx sheet %s: %w", sheet, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create xlsx style: %w", err)
	}

	rows := [][]any{make([]any, 0, len(columns))}
	for _, c := range columns {
		rows[0] = append(rows[0], c.name)
	}
	for _, a := range sortedRows(doc.Report.Assessments) {
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = c.value(a)
		}
		rows = append(rows, row)
	}
	if err := writeSheet(f, elementsSheet, rows, bold); err != nil {
		return err
	}

	if err := writeSheet(f, categoriesSheet, bucketRows("Category", doc.Report.Categories, false), bold); err != nil {
		return err
	}
	if err := writeSheet(f, levelsSheet, bucketRows("Level", doc.Report.Levels, true), bold); err != nil {
		return err
	}

	totals := [][]any{{"Material", "Embodied Carbon (KG)"}}
	for _, t := range doc.Report.Totals {
		totals = append(totals, []any{t.Name, t.Value})
	}
	totals = append(totals,
		[]any{},
		[]any{"Building", doc.Building},
		[]any{"Floor Area (SF)", doc.Report.FloorArea},
		[]any{"Building Use", doc.Rating.Use},
		[]any{"Intensity (KG/M2)", doc.Rating.Intensity},
		[]any{"Benchmark", string(doc.Rating.Band)},
	)
	if err := writeSheet(f, totalsSheet, totals, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func bucketRows(label string, buckets []aggregate.PlotData, withElevation bool) [][]any {
	header := []any{label}
	if withElevation {
		header = append(header, "Elevation")
	}
	rows := [][]any{append(header, bucketHeader...)}

	for _, b := range buckets {
		row := []any{b.Label}
		if withElevation {
			row = append(row, b.Elevation)
		}
		rows = append(rows, append(row, b.Steel, b.Concrete, b.Timber, b.Rebar, b.Unknown, b.Total()))
	}
	return rows
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}
