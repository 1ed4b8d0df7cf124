// Package aggregate computes the embodied carbon of every element and rolls
// it up by category and by level.
package aggregate

import (
	"cmp"
	"log/slog"
	"maps"
	"slices"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/model/group"
)

// Assessment holds the values derived for one element.
type Assessment struct {
	embodiedcarbon.Element

	// Grouped is false when no group matched the element; every derived
	// value is then zero.
	Grouped             bool
	VolumeFactor        float64
	FactoredVolume      float64
	FactoredWeight      float64
	GwpType             string
	Gwp                 float64
	EmbodiedCarbon      float64
	RebarMultiplier     float64
	RebarWeight         float64
	RebarGwp            float64
	RebarEmbodiedCarbon float64
}

// Report is the outcome of an aggregation.
type Report struct {
	Categories  []PlotData   `json:"categories"`
	Levels      []PlotData   `json:"levels"`
	Totals      Totals       `json:"totals"`
	Assessments []Assessment `json:"-"`
	// FloorArea in ft2.
	FloorArea float64 `json:"floor_area"`
}

type buckets struct {
	index map[string]int
	data  []PlotData
}

func newBuckets() *buckets {
	return &buckets{index: make(map[string]int)}
}

func (b *buckets) get(label string, elevation float64) *PlotData {
	i, found := b.index[label]
	if !found {
		i = len(b.data)
		b.index[label] = i
		b.data = append(b.data, PlotData{Label: label, Elevation: elevation})
	}
	return &b.data[i]
}

// Assess computes the derived values of an element belonging to g.
func Assess(e embodiedcarbon.Element, g group.MaterialGroup) Assessment {
	a := Assessment{
		Element:        e,
		Grouped:        true,
		VolumeFactor:   g.VolumeFactor,
		FactoredVolume: e.Volume * g.VolumeFactor,
	}
	a.FactoredWeight = a.FactoredVolume * e.Density()

	coefficient := g.Coefficient()
	a.GwpType = coefficient.Name
	a.Gwp = coefficient.Value
	a.EmbodiedCarbon = coefficient.Carbon(a.FactoredVolume, a.FactoredWeight).KgCO2eq()

	if g.HasRebar() {
		a.RebarMultiplier = g.RebarMultiplier
		a.RebarWeight = g.ElementRebarWeight(e)
		a.RebarGwp = g.RebarGwp
		a.RebarEmbodiedCarbon = g.RebarGwp * embodiedcarbon.ShortTons(a.RebarWeight)
	}

	return a
}

// Aggregate computes the report of the elements with the given groups. It
// does not modify its inputs and can be run again whenever a group changes.
//
// Rebar carbon is added once per category, from the first concrete group
// reaching it: to the category bucket as a whole and to the level buckets
// in proportion of the rebar basis each level contributed to that group.
func Aggregate(elements []embodiedcarbon.Element, groups group.Groups) Report {
	categories := newBuckets()
	levels := newBuckets()
	report := Report{Assessments: make([]Assessment, 0, len(elements))}

	var rebarGroups []group.Key
	rebarCategories := make(map[embodiedcarbon.Category]bool)

	for _, e := range elements {
		if e.Area > 0 {
			report.FloorArea += e.Area
		}

		category := categories.get(string(e.Category), 0)
		level := levels.get(e.Level, e.LevelElevation)

		key := group.KeyOf(e)
		g, found := groups.Get(key)
		if !found {
			slog.Debug("element has no material group", "element_id", e.ID, "group", key.String())
			report.Assessments = append(report.Assessments, Assessment{Element: e})
			continue
		}

		a := Assess(e, g)
		report.Assessments = append(report.Assessments, a)

		category.Add(e.Material, a.EmbodiedCarbon)
		level.Add(e.Material, a.EmbodiedCarbon)

		if g.HasRebar() && !rebarCategories[e.Category] {
			rebarCategories[e.Category] = true
			rebarGroups = append(rebarGroups, key)
		}
	}

	for _, key := range rebarGroups {
		g := groups[key]
		carbon := g.RebarCarbon().KgCO2eq()
		categories.get(string(key.Category), 0).Add(embodiedcarbon.Rebar, carbon)

		ratios := g.RebarLevelRatio()
		for _, levelName := range slices.Sorted(maps.Keys(ratios)) {
			if ratios[levelName] == 0 {
				continue
			}
			levels.get(levelName, 0).Add(embodiedcarbon.Rebar, ratios[levelName]*carbon)
		}
	}

	report.Categories = categories.data
	report.Levels = levels.data
	slices.SortStableFunc(report.Levels, func(a, b PlotData) int {
		return cmp.Compare(a.Elevation, b.Elevation)
	})
	report.Totals = NewTotals(report.Categories)

	return report
}

// Members returns the assessments of the elements behind a totals line:
// a material, Rebar for concrete elements or Total for every element. They
// are sorted by name then level.
func (r Report) Members(name string) []Assessment {
	var members []Assessment
	for _, a := range r.Assessments {
		switch name {
		case TotalName:
		case string(embodiedcarbon.Rebar):
			if a.Material != embodiedcarbon.Concrete {
				continue
			}
		default:
			if string(a.Material) != name {
				continue
			}
		}
		members = append(members, a)
	}
	sortAssessments(members)
	return members
}

// GroupMembers returns the assessments of a group, sorted by name then level.
func (r Report) GroupMembers(key group.Key) []Assessment {
	var members []Assessment
	for _, a := range r.Assessments {
		if group.KeyOf(a.Element) == key {
			members = append(members, a)
		}
	}
	sortAssessments(members)
	return members
}

func sortAssessments(assessments []Assessment) {
	slices.SortStableFunc(assessments, func(a, b Assessment) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Level, b.Level))
	})
}
