// Package gwp holds the global warming potential coefficients applied to
// building materials and the rules selecting a default coefficient for a
// material group.
package gwp

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/must"
)

// ErrPresetNotFound is returned when no preset matches a name.
var ErrPresetNotFound = errors.New("gwp preset not found")

const (
	// DefaultRebarGwp in kg CO2e per short ton of reinforcement steel.
	DefaultRebarGwp = 714.2
	// UnknownPresetName is the placeholder coefficient of unclassified materials.
	UnknownPresetName = "Unknown"
	// UserInput labels a coefficient typed by the user instead of a preset.
	UserInput = "User Input"
)

// Basis is the quantity a coefficient multiplies.
type Basis string

const (
	// ByVolume coefficients are expressed per cubic yard.
	ByVolume Basis = "volume"
	// ByWeight coefficients are expressed per short ton.
	ByWeight Basis = "weight"
)

// Preset is a named emission coefficient.
type Preset struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
	Basis Basis   `json:"basis" yaml:"basis"`
}

// Carbon returns the embodied carbon in kg CO2e of a factored quantity.
func (p Preset) Carbon(factoredVolume, factoredWeight float64) embodiedcarbon.Emissions {
	if p.Basis == ByWeight {
		return embodiedcarbon.Emissions(p.Value * embodiedcarbon.ShortTons(factoredWeight))
	}
	return embodiedcarbon.Emissions(p.Value * embodiedcarbon.CubicYards(factoredVolume))
}

//go:embed data/presets.csv
var presetsCSV []byte

var defaultCatalog Catalog

func init() {
	presets := make(map[embodiedcarbon.MaterialType][]Preset)

	reader := csv.NewReader(bytes.NewReader(presetsCSV))
	reader.Read() // skip header line
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		must.NoError(err)
		must.Assert(len(record) == 4, "preset csv line must be 4 fields length")

		family, err := embodiedcarbon.ParseMaterialType(record[0])
		must.NoError(err)

		presets[family] = append(presets[family], Preset{
			Name:  record[1],
			Value: must.CastFloat64(record[2]),
			Basis: Basis(record[3]),
		})
	}

	defaultCatalog = NewCatalog(presets[embodiedcarbon.Concrete], presets[embodiedcarbon.Steel], presets[embodiedcarbon.Timber])
}

// Catalog lists the presets offered to each material family. The zero value
// is empty; use DefaultCatalog for the built-in coefficients.
type Catalog struct {
	presets map[embodiedcarbon.MaterialType][]Preset
}

// DefaultCatalog returns the built-in presets.
func DefaultCatalog() Catalog {
	return defaultCatalog
}

// NewCatalog builds a catalog from the concrete, steel and timber presets.
// The Unknown family is offered a neutral coefficient followed by every
// other preset.
func NewCatalog(concrete, steel, timber []Preset) Catalog {
	unknown := []Preset{{Name: UnknownPresetName, Value: 1.0, Basis: ByVolume}}
	unknown = append(unknown, steel...)
	unknown = append(unknown, timber...)
	unknown = append(unknown, concrete...)

	return Catalog{
		presets: map[embodiedcarbon.MaterialType][]Preset{
			embodiedcarbon.Concrete: slices.Clone(concrete),
			embodiedcarbon.Steel:    slices.Clone(steel),
			embodiedcarbon.Timber:   slices.Clone(timber),
			embodiedcarbon.Unknown:  unknown,
		},
	}
}

// Presets returns the ordered presets of a family.
func (c Catalog) Presets(family embodiedcarbon.MaterialType) []Preset {
	return slices.Clone(c.presets[family])
}

// Find returns the preset with the exact name.
func (c Catalog) Find(family embodiedcarbon.MaterialType, name string) (Preset, error) {
	for _, p := range c.presets[family] {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s %q", ErrPresetNotFound, family, name)
}

// Lookup resolves a loosely typed preset name, as entered on the command
// line, to the closest preset of the family.
func (c Catalog) Lookup(family embodiedcarbon.MaterialType, query string) (Preset, error) {
	presets := c.presets[family]
	names := make([]string, len(presets))
	for i, p := range presets {
		if strings.EqualFold(p.Name, query) {
			return p, nil
		}
		names[i] = p.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	if len(ranks) == 0 {
		return Preset{}, fmt.Errorf("%w: %s %q", ErrPresetNotFound, family, query)
	}
	sort.Sort(ranks)

	best := presets[ranks[0].OriginalIndex]
	slog.Debug("fuzzy found the closest gwp preset", "query", query, "match", best.Name)

	return best, nil
}
