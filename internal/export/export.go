// Package export writes a report to the formats users share: CSV element
// listings, XLSX workbooks and a PDF summary.
package export

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/superdango/embodied-carbon/model/aggregate"
	"github.com/superdango/embodied-carbon/model/benchmark"
)

// ErrUnknownFormat is returned for an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, XLSX, PDF}

// ParseFormat resolves a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

func (f Format) ContentType() string {
	switch f {
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	}
	return "text/csv"
}

// Document is everything an export needs.
type Document struct {
	Building string
	Report   aggregate.Report
	Rating   benchmark.Rating
}

// Write exports the document in the given format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case CSV:
		return WriteCSV(w, doc.Report.Assessments)
	case XLSX:
		return WriteXLSX(w, doc)
	case PDF:
		return WritePDF(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

type column struct {
	name  string
	value func(a aggregate.Assessment) any
}

// columns of the element listing, in order. The level elevation is left out.
var columns = []column{
	{"Id", func(a aggregate.Assessment) any { return a.ID }},
	{"Name", func(a aggregate.Assessment) any { return a.Name }},
	{"AssociatedLevel", func(a aggregate.Assessment) any { return a.Level }},
	{"Volume (CF)", func(a aggregate.Assessment) any { return a.Volume }},
	{"Density (PCF)", func(a aggregate.Assessment) any { return a.Density() }},
	{"Weight (LB)", func(a aggregate.Assessment) any { return a.Weight() }},
	{"VolumeFactor", func(a aggregate.Assessment) any { return a.VolumeFactor }},
	{"FactoredVolume", func(a aggregate.Assessment) any { return a.FactoredVolume }},
	{"FactoredWeight", func(a aggregate.Assessment) any { return a.FactoredWeight }},
	{"Area (SF)", func(a aggregate.Assessment) any { return a.Area }},
	{"Material", func(a aggregate.Assessment) any { return string(a.Material) }},
	{"MaterialName", func(a aggregate.Assessment) any { return a.MaterialName }},
	{"Category", func(a aggregate.Assessment) any { return string(a.Category) }},
	{"GwpType", func(a aggregate.Assessment) any { return a.GwpType }},
	{"Gwp", func(a aggregate.Assessment) any { return a.Gwp }},
	{"GwpUnit", func(a aggregate.Assessment) any { return a.GwpUnit() }},
	{"EmbodiedCarbon (KG)", func(a aggregate.Assessment) any { return a.EmbodiedCarbon }},
	{"RebarMultiplier", func(a aggregate.Assessment) any { return a.RebarMultiplier }},
	{"RebarMultiplierUnit", func(a aggregate.Assessment) any { return a.RebarMultiplierUnit() }},
	{"RebarWeight (LB)", func(a aggregate.Assessment) any { return a.RebarWeight }},
	{"RebarGwp (KG/SHORT TON)", func(a aggregate.Assessment) any { return a.RebarGwp }},
	{"RebarEmbodiedCarbon (KG)", func(a aggregate.Assessment) any { return a.RebarEmbodiedCarbon }},
}

// sortedRows orders assessments by material, material name then category.
func sortedRows(assessments []aggregate.Assessment) []aggregate.Assessment {
	rows := slices.Clone(assessments)
	slices.SortStableFunc(rows, func(a, b aggregate.Assessment) int {
		return cmp.Or(
			cmp.Compare(a.Material, b.Material),
			cmp.Compare(a.MaterialName, b.MaterialName),
			cmp.Compare(a.Category, b.Category),
		)
	})
	return rows
}
