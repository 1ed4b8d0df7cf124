package embodiedcarbon

import (
	"fmt"
	"strings"
)

// Category is the structural category of a building element.
type Category string

const (
	Framing    Category = "Framing"
	Column     Category = "Column"
	Floor      Category = "Floor"
	Wall       Category = "Wall"
	Foundation Category = "Foundation"
)

// Categories lists every supported category in reading order.
var Categories = []Category{Framing, Column, Floor, Wall, Foundation}

// ParseCategory resolves a category name, ignoring case.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported category %q", s)
}

// MaterialType is the material family of an element.
type MaterialType string

const (
	Unknown  MaterialType = "Unknown"
	Steel    MaterialType = "Steel"
	Concrete MaterialType = "Concrete"
	Rebar    MaterialType = "Rebar"
	Timber   MaterialType = "Timber"
)

// MaterialTypes lists the families that can own material groups. Rebar is
// derived from concrete groups and never holds elements on its own.
var MaterialTypes = []MaterialType{Concrete, Steel, Timber, Unknown}

// ParseMaterialType resolves a material type name, ignoring case.
func ParseMaterialType(s string) (MaterialType, error) {
	for _, m := range []MaterialType{Unknown, Steel, Concrete, Rebar, Timber} {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported material type %q", s)
}

// Element is a structural component, or one level fragment of it, reduced
// to the quantities the carbon estimation needs.
type Element struct {
	ID       string
	Name     string
	Category Category
	// Level is the reporting level name, already remapped.
	Level          string
	LevelElevation float64
	// Volume in ft3
	Volume float64
	// Area in ft2, floors only
	Area         float64
	MaterialName string
	Material     MaterialType

	density float64
}

// NewElement returns an element with its density set. A zero density forces
// the material type to Unknown.
func NewElement(category Category, id, name, level string, levelElevation, volume float64, materialName string, material MaterialType, density float64) Element {
	e := Element{
		ID:             id,
		Name:           name,
		Category:       category,
		Level:          level,
		LevelElevation: levelElevation,
		Volume:         volume,
		MaterialName:   materialName,
		Material:       material,
	}
	e.SetDensity(density)
	return e
}

// Density in lb/ft3.
func (e Element) Density() float64 {
	return e.density
}

// SetDensity updates the density. Elements without density cannot be
// weighed so they are downgraded to the Unknown family.
func (e *Element) SetDensity(density float64) {
	e.density = density
	if density == 0.0 {
		e.Material = Unknown
	}
}

// Weight in lb.
func (e Element) Weight() float64 {
	return e.Volume * e.density
}

// AtLevel returns a copy of the element attributed to another level with
// another volume.
func (e Element) AtLevel(level string, elevation, volume float64) Element {
	fragment := e
	fragment.Level = level
	fragment.LevelElevation = elevation
	fragment.Volume = volume
	return fragment
}

// GwpUnit describes the unit of the coefficient applied to the element.
func (e Element) GwpUnit() string {
	if e.Material == Steel || e.Material == Rebar {
		return "KG CO2e PER SHORT TON"
	}
	return "KG CO2e PER CUBIC YARD"
}

// RebarMultiplierUnit is pounds per square foot for floors and pounds per
// cubic yard otherwise.
func (e Element) RebarMultiplierUnit() string {
	return RebarMultiplierUnit(e.Category)
}

func RebarMultiplierUnit(c Category) string {
	if c == Floor {
		return "PSF"
	}
	return "PCY"
}

// RebarBasis is the quantity used to estimate the rebar of a concrete
// element: its area for floors, its volume in cubic yards otherwise.
func (e Element) RebarBasis() float64 {
	if e.Category == Floor {
		return e.Area
	}
	return CubicYards(e.Volume)
}
