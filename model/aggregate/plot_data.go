package aggregate

import (
	"gonum.org/v1/gonum/floats"

	embodiedcarbon "github.com/superdango/embodied-carbon"
)

// PlotData is the embodied carbon of a category or a level, in kg CO2e,
// split by material. Values are kept rounded to two decimals.
type PlotData struct {
	Label     string  `json:"label"`
	Elevation float64 `json:"elevation"`
	Steel     float64 `json:"steel"`
	Concrete  float64 `json:"concrete"`
	Timber    float64 `json:"timber"`
	Unknown   float64 `json:"unknown"`
	Rebar     float64 `json:"rebar"`
}

func (p PlotData) Total() float64 {
	return p.Steel + p.Concrete + p.Rebar + p.Timber + p.Unknown
}

// Value returns the carbon of one material.
func (p PlotData) Value(m embodiedcarbon.MaterialType) float64 {
	switch m {
	case embodiedcarbon.Steel:
		return p.Steel
	case embodiedcarbon.Concrete:
		return p.Concrete
	case embodiedcarbon.Timber:
		return p.Timber
	case embodiedcarbon.Unknown:
		return p.Unknown
	case embodiedcarbon.Rebar:
		return p.Rebar
	}
	return 0
}

// Add accumulates carbon of a material, rounding the new value.
func (p *PlotData) Add(m embodiedcarbon.MaterialType, kg float64) {
	switch m {
	case embodiedcarbon.Steel:
		p.Steel = embodiedcarbon.Round2(p.Steel + kg)
	case embodiedcarbon.Concrete:
		p.Concrete = embodiedcarbon.Round2(p.Concrete + kg)
	case embodiedcarbon.Timber:
		p.Timber = embodiedcarbon.Round2(p.Timber + kg)
	case embodiedcarbon.Unknown:
		p.Unknown = embodiedcarbon.Round2(p.Unknown + kg)
	case embodiedcarbon.Rebar:
		p.Rebar = embodiedcarbon.Round2(p.Rebar + kg)
	}
}

// TotalName is the label of the grand total.
const TotalName = "Total"

// Total is one line of the report totals, in whole kg CO2e.
type Total struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Totals are ordered Steel, Concrete, Timber, Rebar, Unknown then Total.
type Totals []Total

// TotalOrder lists the materials of the totals in display order.
var TotalOrder = []embodiedcarbon.MaterialType{
	embodiedcarbon.Steel,
	embodiedcarbon.Concrete,
	embodiedcarbon.Timber,
	embodiedcarbon.Rebar,
	embodiedcarbon.Unknown,
}

// NewTotals sums each material over the category buckets.
func NewTotals(categories []PlotData) Totals {
	totals := make(Totals, 0, len(TotalOrder)+1)
	grand := make([]float64, len(categories))
	for i, c := range categories {
		grand[i] = c.Total()
	}

	for _, m := range TotalOrder {
		values := make([]float64, len(categories))
		for i, c := range categories {
			values[i] = c.Value(m)
		}
		totals = append(totals, Total{Name: string(m), Value: embodiedcarbon.Round(floats.Sum(values), 0)})
	}

	return append(totals, Total{Name: TotalName, Value: embodiedcarbon.Round(floats.Sum(grand), 0)})
}

// Get returns the value of a total line, zero when absent.
func (t Totals) Get(name string) float64 {
	for _, total := range t {
		if total.Name == name {
			return total.Value
		}
	}
	return 0
}
