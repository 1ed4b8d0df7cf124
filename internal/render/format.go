// Package render prints reports, material groups and presets as terminal
// tables.
package render

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/model/group"
)

var printer = message.NewPrinter(language.English)

// Volume formats ft3, e.g. "1,234 CF".
func Volume(cubicFeet float64) string {
	return printer.Sprintf("%.0f CF", cubicFeet)
}

// Density formats lb/ft3, e.g. "150 PCF".
func Density(poundsPerCubicFoot float64) string {
	return printer.Sprintf("%.0f PCF", poundsPerCubicFoot)
}

func Weight(pounds float64) string {
	return printer.Sprintf("%.0f LB", pounds)
}

func Carbon(kg float64) string {
	return printer.Sprintf("%.0f KG", kg)
}

// RebarBasis formats the rebar estimate basis of a group: square feet for
// floors, cubic yards otherwise.
func RebarBasis(g group.MaterialGroup) string {
	unit := "CY"
	if g.Category == embodiedcarbon.Floor {
		unit = "SF"
	}
	return printer.Sprintf("%.2f %s", g.RebarEstimateBasis(), unit)
}

// Number formats v with thousands separators and the given decimals.
func Number(v float64, decimals int) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v)
}
