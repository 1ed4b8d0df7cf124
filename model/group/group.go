// Package group gathers elements sharing a category and a material into
// material groups carrying the coefficients the user can adjust.
package group

import (
	"errors"
	"fmt"
	"maps"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/model/gwp"
)

// ErrGroupNotFound is returned by edits addressing a missing group.
var ErrGroupNotFound = errors.New("material group not found")

// Key identifies a group within a material family.
type Key struct {
	Material     embodiedcarbon.MaterialType `json:"material" yaml:"material"`
	Category     embodiedcarbon.Category     `json:"category" yaml:"category"`
	MaterialName string                      `json:"material_name" yaml:"material_name"`
}

// KeyOf returns the group key of an element.
func KeyOf(e embodiedcarbon.Element) Key {
	return Key{Material: e.Material, Category: e.Category, MaterialName: e.MaterialName}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Material, k.Category, k.MaterialName)
}

// MaterialGroup accumulates the elements of a key. Values are never shared:
// edits return a modified copy.
type MaterialGroup struct {
	Key

	// Volume is the raw accumulated volume in ft3, before the volume factor.
	Volume       float64
	VolumeFactor float64
	// Density of the first element of the group in lb/ft3.
	Density float64

	Presets  []gwp.Preset
	Selected gwp.Preset
	// Gwp is the coefficient in use. It differs from Selected.Value when
	// the user typed a value.
	Gwp float64

	RebarMultiplier float64
	// RawRebarBasis is the sum of the members' rebar basis, in CY or SF.
	RawRebarBasis float64
	// RebarWeight in lb.
	RebarWeight float64
	// RebarGwp in kg CO2e per short ton.
	RebarGwp            float64
	RebarLevelBreakdown map[string]float64
}

func newMaterialGroup(key Key, density float64, catalog gwp.Catalog, rules gwp.Rules) MaterialGroup {
	selected := catalog.Default(rules, key.Material, key.Category, key.MaterialName)
	g := MaterialGroup{
		Key:          key,
		VolumeFactor: 1.0,
		Density:      density,
		Presets:      catalog.Presets(key.Material),
		Selected:     selected,
		Gwp:          selected.Value,
	}

	if g.HasRebar() {
		g.RebarMultiplier = gwp.ConcreteDefaults[key.Category].RebarMultiplier
		g.RebarGwp = gwp.DefaultRebarGwp
		g.RebarLevelBreakdown = make(map[string]float64)
	}

	return g
}

// HasRebar reports whether the group carries a rebar estimate.
func (g MaterialGroup) HasRebar() bool {
	return g.Material == embodiedcarbon.Concrete
}

// Basis returns the quantity the coefficient applies to. Steel is always
// weighed, concrete and timber are always measured by volume and unknown
// materials follow the selected preset.
func (g MaterialGroup) Basis() gwp.Basis {
	switch g.Material {
	case embodiedcarbon.Steel:
		return gwp.ByWeight
	case embodiedcarbon.Concrete, embodiedcarbon.Timber:
		return gwp.ByVolume
	}
	if g.Selected.Basis == "" {
		return gwp.ByVolume
	}
	return g.Selected.Basis
}

// GwpType is the name of the selected preset, or "User Input" when the
// coefficient was typed.
func (g MaterialGroup) GwpType() string {
	if g.Gwp == g.Selected.Value {
		return g.Selected.Name
	}
	return gwp.UserInput
}

// Coefficient returns the coefficient in use as a preset.
func (g MaterialGroup) Coefficient() gwp.Preset {
	return gwp.Preset{Name: g.GwpType(), Value: g.Gwp, Basis: g.Basis()}
}

func (g MaterialGroup) FactoredVolume() float64 {
	return g.Volume * g.VolumeFactor
}

// Weight of the factored volume in lb.
func (g MaterialGroup) Weight() float64 {
	return g.FactoredVolume() * g.Density
}

// Carbon is the embodied carbon of the group material, rebar excluded.
func (g MaterialGroup) Carbon() embodiedcarbon.Emissions {
	return g.Coefficient().Carbon(g.FactoredVolume(), g.Weight())
}

// RebarEstimateBasis is the rebar basis scaled by the volume factor.
func (g MaterialGroup) RebarEstimateBasis() float64 {
	return g.VolumeFactor * g.RawRebarBasis
}

// RebarCarbon is the embodied carbon of the whole group rebar.
func (g MaterialGroup) RebarCarbon() embodiedcarbon.Emissions {
	return embodiedcarbon.Emissions(g.RebarGwp * embodiedcarbon.ShortTons(g.RebarWeight))
}

// RebarLevelRatio returns the share of the rebar basis contributed by each
// level. It is computed on every call from the breakdown.
func (g MaterialGroup) RebarLevelRatio() map[string]float64 {
	ratios := make(map[string]float64, len(g.RebarLevelBreakdown))
	if g.RawRebarBasis == 0 {
		return ratios
	}
	for level, basis := range g.RebarLevelBreakdown {
		ratios[level] = basis / g.RawRebarBasis
	}
	return ratios
}

// ElementRebarWeight returns the part of the group rebar weight carried by
// a member element, proportional to its basis.
func (g MaterialGroup) ElementRebarWeight(e embodiedcarbon.Element) float64 {
	total := g.VolumeFactor * g.RebarMultiplier * g.RawRebarBasis
	if total == 0 {
		return 0
	}
	contribution := g.VolumeFactor * g.RebarMultiplier * e.RebarBasis()
	return contribution / total * g.RebarWeight
}

func (g MaterialGroup) clone() MaterialGroup {
	c := g
	c.Presets = append([]gwp.Preset(nil), g.Presets...)
	if g.RebarLevelBreakdown != nil {
		c.RebarLevelBreakdown = maps.Clone(g.RebarLevelBreakdown)
	}
	return c
}

func (g *MaterialGroup) add(e embodiedcarbon.Element) {
	g.Volume += e.Volume
	if g.HasRebar() {
		basis := e.RebarBasis()
		g.RawRebarBasis += basis
		g.RebarLevelBreakdown[e.Level] += basis
	}
}

func (g *MaterialGroup) estimateRebarWeight() {
	if g.HasRebar() {
		g.RebarWeight = embodiedcarbon.Round2(g.RebarEstimateBasis() * g.RebarMultiplier)
	}
}

// WithPreset selects a preset and its coefficient.
func (g MaterialGroup) WithPreset(p gwp.Preset) MaterialGroup {
	c := g.clone()
	c.Selected = p
	c.Gwp = p.Value
	return c
}

// WithGwp sets a typed coefficient, keeping the selected preset.
func (g MaterialGroup) WithGwp(value float64) MaterialGroup {
	c := g.clone()
	c.Gwp = value
	return c
}

// WithVolumeFactor sets the volume factor and estimates the rebar weight
// again.
func (g MaterialGroup) WithVolumeFactor(factor float64) MaterialGroup {
	c := g.clone()
	c.VolumeFactor = factor
	c.estimateRebarWeight()
	return c
}

// WithRebarMultiplier sets the rebar multiplier and estimates the rebar
// weight again.
func (g MaterialGroup) WithRebarMultiplier(multiplier float64) MaterialGroup {
	c := g.clone()
	c.RebarMultiplier = multiplier
	c.estimateRebarWeight()
	return c
}

// WithRebarWeight overrides the estimated rebar weight.
func (g MaterialGroup) WithRebarWeight(weight float64) MaterialGroup {
	c := g.clone()
	c.RebarWeight = weight
	return c
}

func (g MaterialGroup) WithRebarGwp(value float64) MaterialGroup {
	c := g.clone()
	c.RebarGwp = value
	return c
}
