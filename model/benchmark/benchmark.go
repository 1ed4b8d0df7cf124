// Package benchmark compares the embodied carbon intensity of a building to
// the distribution observed for buildings of the same use.
package benchmark

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/must"
)

// DefaultUse is the building use assumed when none is configured.
const DefaultUse = "Commercial"

// Quartiles of the embodied carbon intensity in kg CO2e per m2. The first
// quartile is the highest value.
type Quartiles struct {
	Use    string  `json:"use"`
	First  float64 `json:"first_quartile"`
	Median float64 `json:"median"`
	Third  float64 `json:"third_quartile"`
}

//go:embed data/benchmarks.csv
var benchmarksCSV []byte

var benchmarks []Quartiles

func init() {
	reader := csv.NewReader(bytes.NewReader(benchmarksCSV))
	reader.Read() // skip header line
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		must.NoError(err)
		must.Assert(len(record) == 4, "benchmark csv line must be 4 fields length")

		benchmarks = append(benchmarks, Quartiles{
			Use:    record[0],
			First:  must.CastFloat64(record[1]),
			Median: must.CastFloat64(record[2]),
			Third:  must.CastFloat64(record[3]),
		})
	}
}

// Uses lists the known building uses.
func Uses() []string {
	uses := make([]string, len(benchmarks))
	for i, b := range benchmarks {
		uses[i] = b.Use
	}
	return uses
}

// Lookup returns the quartiles of a building use, ignoring case.
func Lookup(use string) (Quartiles, error) {
	for _, b := range benchmarks {
		if strings.EqualFold(b.Use, strings.TrimSpace(use)) {
			return b, nil
		}
	}
	return Quartiles{}, fmt.Errorf("unknown building use %q (expected one of %s)", use, strings.Join(Uses(), ", "))
}

// Band places a rating relative to the median.
type Band string

const (
	Below  Band = "Below"
	Within Band = "Within"
	Above  Band = "Above"
)

// Rating is the intensity of a building and its band.
type Rating struct {
	Use string `json:"use"`
	// Intensity in kg CO2e per m2 of floor area.
	Intensity float64 `json:"intensity"`
	Median    float64 `json:"median"`
	Band      Band    `json:"band"`
}

// Rate computes the intensity of totalKg over a floor area in ft2. A
// building without floor area has no intensity and is rated Below.
func Rate(q Quartiles, totalKg, floorArea float64) Rating {
	r := Rating{Use: q.Use, Median: q.Median}
	if area := embodiedcarbon.SquareMeters(floorArea); area > 0 {
		r.Intensity = totalKg / area
	}

	top := q.Median + q.Median*0.1
	bottom := q.Median - q.Median*0.1
	switch {
	case r.Intensity > top:
		r.Band = Above
	case r.Intensity >= bottom:
		r.Band = Within
	default:
		r.Band = Below
	}
	return r
}

func (r Rating) String() string {
	return fmt.Sprintf("%.0f kg-CO2e/m2 (%s +/-10%% of median %.0f kg-CO2e/m2 for %s)", r.Intensity, r.Band, r.Median, r.Use)
}
