package embodiedcarbon

import (
	"math"
)

const (
	CubicFeetPerCubicYard    = 27.0
	PoundsPerShortTon        = 2000.0
	SquareFeetPerSquareMeter = 10.764
)

// Emissions in kgCO2eq
type Emissions float64

func (e Emissions) KgCO2eq() float64 {
	return float64(e)
}

func (e Emissions) TCO2eq() float64 {
	return e.KgCO2eq() / 1000
}

// CubicYards converts a volume in ft3.
func CubicYards(cubicFeet float64) float64 {
	return cubicFeet / CubicFeetPerCubicYard
}

// ShortTons converts a weight in lb.
func ShortTons(pounds float64) float64 {
	return pounds / PoundsPerShortTon
}

// SquareMeters converts an area in ft2.
func SquareMeters(squareFeet float64) float64 {
	return squareFeet / SquareFeetPerSquareMeter
}

// Round rounds v to the given number of decimals, ties to even.
func Round(v float64, decimals int) float64 {
	if decimals == 0 {
		return math.RoundToEven(v)
	}
	pow := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*pow) / pow
}

// Round2 rounds v to two decimals, ties to even.
func Round2(v float64) float64 {
	return Round(v, 2)
}
