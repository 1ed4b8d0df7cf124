package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/model/aggregate"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/group"
	"github.com/superdango/embodied-carbon/model/gwp"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
)

var bandColors = map[benchmark.Band]lipgloss.Color{
	benchmark.Below:  lipgloss.Color("42"),
	benchmark.Within: lipgloss.Color("214"),
	benchmark.Above:  lipgloss.Color("196"),
}

// newTable returns a table whose first numeric column is firstNumber.
func newTable(headers []string, rows [][]string, firstNumber int) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= firstNumber:
				return numberStyle
			}
			return cellStyle
		})
}

func bucketTable(label string, buckets []aggregate.PlotData) *table.Table {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{
			b.Label,
			Number(b.Steel, 0),
			Number(b.Concrete, 0),
			Number(b.Timber, 0),
			Number(b.Rebar, 0),
			Number(b.Unknown, 0),
			Number(b.Total(), 0),
		})
	}
	return newTable([]string{label, "Steel", "Concrete", "Timber", "Rebar", "Unknown", "Total"}, rows, 1)
}

// Report writes the totals, the benchmark rating and the category and level
// breakdowns of a building.
func Report(w io.Writer, building string, report aggregate.Report, rating benchmark.Rating) error {
	totals := make([][]string, 0, len(report.Totals))
	for _, t := range report.Totals {
		totals = append(totals, []string{t.Name, Carbon(t.Value)})
	}

	ratingStyle := lipgloss.NewStyle().Bold(true).Foreground(bandColors[rating.Band])

	out := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Embodied carbon of %s", building)),
		sectionStyle.Render("Totals (kg CO2e)"),
		newTable([]string{"Material", "Embodied Carbon"}, totals, 1).String(),
		fmt.Sprintf("Floor area: %s SF", Number(report.FloorArea, 0)),
		"Benchmark: "+ratingStyle.Render(rating.String()),
		"",
		sectionStyle.Render("By category (kg CO2e)"),
		bucketTable("Category", report.Categories).String(),
		"",
		sectionStyle.Render("By level (kg CO2e)"),
		bucketTable("Level", report.Levels).String(),
	)

	_, err := fmt.Fprintln(w, out)
	return err
}

// Groups writes one row per material group.
func Groups(w io.Writer, groups []group.MaterialGroup) error {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rebar := []string{"", "", ""}
		if g.HasRebar() {
			rebar = []string{
				fmt.Sprintf("%s %s", Number(g.RebarMultiplier, 2), embodiedcarbon.RebarMultiplierUnit(g.Category)),
				RebarBasis(g),
				Weight(g.RebarWeight),
			}
		}
		rows = append(rows, append([]string{
			string(g.Material),
			string(g.Category),
			g.MaterialName,
			g.GwpType(),
			Number(g.Gwp, 2),
			Volume(g.Volume),
			Density(g.Density),
			Number(g.VolumeFactor, 2),
			Carbon(g.Carbon().KgCO2eq()),
		}, rebar...))
	}

	t := newTable([]string{
		"Material", "Category", "Material Name", "GWP Type", "GWP", "Volume", "Density",
		"Volume Factor", "Embodied Carbon", "Rebar Multiplier", "Rebar Basis", "Rebar Weight",
	}, rows, 4)

	_, err := fmt.Fprintln(w, t.String())
	return err
}

// Presets writes the coefficient presets of a family.
func Presets(w io.Writer, catalog gwp.Catalog, family embodiedcarbon.MaterialType) error {
	presets := catalog.Presets(family)
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		unit := "KG CO2e PER CUBIC YARD"
		if p.Basis == gwp.ByWeight {
			unit = "KG CO2e PER SHORT TON"
		}
		rows = append(rows, []string{p.Name, unit, Number(p.Value, 2)})
	}

	out := lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(strings.ToUpper(string(family))),
		newTable([]string{"Preset", "Unit", "GWP"}, rows, 2).String(),
	)
	_, err := fmt.Fprintln(w, out)
	return err
}

// Members writes the elements behind a group or a totals line.
func Members(w io.Writer, assessments []aggregate.Assessment) error {
	rows := make([][]string, 0, len(assessments))
	for _, a := range assessments {
		rows = append(rows, []string{
			a.ID,
			a.Name,
			a.Level,
			Volume(a.Volume),
			Number(a.FactoredVolume, 2),
			Carbon(a.EmbodiedCarbon),
			Weight(a.RebarWeight),
			Carbon(a.RebarEmbodiedCarbon),
		})
	}

	t := newTable([]string{"Id", "Name", "Level", "Volume", "Factored Volume", "Embodied Carbon", "Rebar Weight", "Rebar Carbon"}, rows, 3)
	_, err := fmt.Fprintln(w, t.String())
	return err
}
