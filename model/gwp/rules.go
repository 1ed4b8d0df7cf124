package gwp

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"io"
	"strings"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/must"
)

// Rule selects a preset for materials whose name contains every keyword.
type Rule struct {
	Family   embodiedcarbon.MaterialType `yaml:"family" mapstructure:"family"`
	Preset   string                      `yaml:"preset" mapstructure:"preset"`
	Keywords []string                    `yaml:"keywords" mapstructure:"keywords"`
}

// Matches reports whether the material name contains all the keywords,
// ignoring case.
func (r Rule) Matches(materialName string) bool {
	if len(r.Keywords) == 0 {
		return false
	}
	name := strings.ToUpper(materialName)
	for _, keyword := range r.Keywords {
		if !strings.Contains(name, strings.ToUpper(keyword)) {
			return false
		}
	}
	return true
}

// Rules are evaluated in order, the first matching rule wins.
type Rules []Rule

//go:embed data/rules.csv
var rulesCSV []byte

var defaultRules Rules

func init() {
	reader := csv.NewReader(bytes.NewReader(rulesCSV))
	reader.Read() // skip header line
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		must.NoError(err)
		must.Assert(len(record) == 3, "rule csv line must be 3 fields length")

		family, err := embodiedcarbon.ParseMaterialType(record[0])
		must.NoError(err)

		defaultRules = append(defaultRules, Rule{
			Family:   family,
			Preset:   record[1],
			Keywords: strings.Split(record[2], "+"),
		})
	}
}

// DefaultRules returns the built-in classification rules.
func DefaultRules() Rules {
	return append(Rules(nil), defaultRules...)
}

// Classify returns the preset name of the first rule of the family matching
// the material name.
func (rules Rules) Classify(family embodiedcarbon.MaterialType, materialName string) (string, bool) {
	for _, r := range rules {
		if r.Family == family && r.Matches(materialName) {
			return r.Preset, true
		}
	}
	return "", false
}

// ConcreteDefault is the starting point of a concrete group.
type ConcreteDefault struct {
	RebarMultiplier float64
	Preset          string
}

// ConcreteDefaults by category. Floors use pounds of rebar per square foot,
// other categories pounds per cubic yard.
var ConcreteDefaults = map[embodiedcarbon.Category]ConcreteDefault{
	embodiedcarbon.Framing:    {RebarMultiplier: 200, Preset: "6000-00-FA/SL"},
	embodiedcarbon.Column:     {RebarMultiplier: 150, Preset: "8000-00-FA/SL"},
	embodiedcarbon.Floor:      {RebarMultiplier: 6, Preset: "6000-00-FA/SL"},
	embodiedcarbon.Wall:       {RebarMultiplier: 250, Preset: "8000-00-FA/SL"},
	embodiedcarbon.Foundation: {RebarMultiplier: 200, Preset: "4000-00-FA/SL"},
}

// Default returns the preset a new group starts with. Concrete is looked
// up by category, steel and timber by rules on the material name. Without a
// match the first preset of the family is used.
func (c Catalog) Default(rules Rules, family embodiedcarbon.MaterialType, category embodiedcarbon.Category, materialName string) Preset {
	presets := c.presets[family]
	if len(presets) == 0 {
		return Preset{Name: UnknownPresetName, Value: 1.0, Basis: ByVolume}
	}

	name := ""
	switch family {
	case embodiedcarbon.Concrete:
		name = ConcreteDefaults[category].Preset
	case embodiedcarbon.Steel, embodiedcarbon.Timber:
		name, _ = rules.Classify(family, materialName)
	}

	if name != "" {
		if p, err := c.Find(family, name); err == nil {
			return p
		}
	}
	return presets[0]
}
