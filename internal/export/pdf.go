package export

import (
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"

	"github.com/superdango/embodied-carbon/model/aggregate"
)

// WritePDF writes a one page summary: totals, benchmark rating and the
// category and level breakdowns.
func WritePDF(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("Embodied Carbon - %s", doc.Building))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", time.Now().Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Floor area: %.0f SF", doc.Report.FloorArea))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Benchmark: %s", doc.Rating))
	pdf.Ln(10)

	pdfSection(pdf, "Totals (KG CO2e)")
	for _, t := range doc.Report.Totals {
		pdf.CellFormat(50, 6, t.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.0f", t.Value), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	pdfSection(pdf, "By category (KG CO2e)")
	pdfBuckets(pdf, doc.Report.Categories)
	pdf.Ln(6)

	pdfSection(pdf, "By level (KG CO2e)")
	pdfBuckets(pdf, doc.Report.Levels)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

func pdfSection(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
}

func pdfBuckets(pdf *gofpdf.Fpdf, buckets []aggregate.PlotData) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(40, 6, "", "1", 0, "L", false, 0, "")
	for _, h := range bucketHeader {
		pdf.CellFormat(24, 6, h.(string), "1", 0, "R", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, b := range buckets {
		pdf.CellFormat(40, 6, b.Label, "1", 0, "L", false, 0, "")
		for _, v := range []float64{b.Steel, b.Concrete, b.Timber, b.Rebar, b.Unknown, b.Total()} {
			pdf.CellFormat(24, 6, fmt.Sprintf("%.0f", v), "1", 0, "R", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
