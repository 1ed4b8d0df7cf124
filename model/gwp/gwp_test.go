package gwp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/model/gwp"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := gwp.DefaultCatalog()

	concrete := catalog.Presets(embodiedcarbon.Concrete)
	assert.Len(t, concrete, 48)
	assert.Equal(t, gwp.Preset{Name: "2500-00-FA/SL", Value: 236.73, Basis: gwp.ByVolume}, concrete[0])
	assert.Equal(t, gwp.Preset{Name: "8000-50-FA/SL", Value: 293.63, Basis: gwp.ByVolume}, concrete[47])

	steel := catalog.Presets(embodiedcarbon.Steel)
	assert.Equal(t, []gwp.Preset{
		{Name: "Primary Steel", Value: 1350.8, Basis: gwp.ByWeight},
		{Name: "HSS Steel", Value: 2168.2, Basis: gwp.ByWeight},
	}, steel)

	assert.Len(t, catalog.Presets(embodiedcarbon.Timber), 5)

	unknown := catalog.Presets(embodiedcarbon.Unknown)
	assert.Len(t, unknown, 1+2+5+48)
	assert.Equal(t, gwp.Preset{Name: gwp.UnknownPresetName, Value: 1.0, Basis: gwp.ByVolume}, unknown[0])
	assert.Equal(t, "Primary Steel", unknown[1].Name)

	assert.Empty(t, catalog.Presets(embodiedcarbon.Rebar))
}

func TestCatalogFind(t *testing.T) {
	catalog := gwp.DefaultCatalog()

	p, err := catalog.Find(embodiedcarbon.Concrete, "6000-00-FA/SL")
	require.NoError(t, err)
	assert.Equal(t, 420.89, p.Value)

	_, err = catalog.Find(embodiedcarbon.Steel, "6000-00-FA/SL")
	assert.ErrorIs(t, err, gwp.ErrPresetNotFound)
}

func TestCatalogLookup(t *testing.T) {
	catalog := gwp.DefaultCatalog()

	p, err := catalog.Lookup(embodiedcarbon.Timber, "glulam")
	require.NoError(t, err)
	assert.Equal(t, "Glulam", p.Name)

	p, err = catalog.Lookup(embodiedcarbon.Steel, "hss")
	require.NoError(t, err)
	assert.Equal(t, "HSS Steel", p.Name)

	_, err = catalog.Lookup(embodiedcarbon.Steel, "concrete")
	assert.ErrorIs(t, err, gwp.ErrPresetNotFound)
}

func TestPresetCarbon(t *testing.T) {
	byWeight := gwp.Preset{Value: 1350.8, Basis: gwp.ByWeight}
	assert.InDelta(t, 1350.8, byWeight.Carbon(10, 2000).KgCO2eq(), 1e-9)

	byVolume := gwp.Preset{Value: 420.89, Basis: gwp.ByVolume}
	assert.InDelta(t, 420.89*2, byVolume.Carbon(54, 8100).KgCO2eq(), 1e-9)
}

func TestRulesClassify(t *testing.T) {
	rules := gwp.DefaultRules()

	tests := []struct {
		family   embodiedcarbon.MaterialType
		material string
		preset   string
		found    bool
	}{
		{embodiedcarbon.Steel, "Steel ASTM A992", "Primary Steel", true},
		{embodiedcarbon.Steel, "steel, astm a500, grade b", "HSS Steel", true},
		{embodiedcarbon.Steel, "Steel A36", "", false},
		{embodiedcarbon.Timber, "Softwood - Lumber", "Softwood Lumber", true},
		{embodiedcarbon.Timber, "Plywood, Softwood", "Softwood Plywood", true},
		{embodiedcarbon.Timber, "Oriented Strand Board", "Oriented Strand Board", true},
		{embodiedcarbon.Timber, "Glulam 24F", "Glulam", true},
		{embodiedcarbon.Timber, "Laminated Veneer Lumber", "Laminated Veneer Lumber", true},
		{embodiedcarbon.Timber, "2.0E LVL", "Laminated Veneer Lumber", true},
		{embodiedcarbon.Timber, "Softwood", "", false},
		{embodiedcarbon.Concrete, "A992", "", false},
	}

	for _, test := range tests {
		preset, found := rules.Classify(test.family, test.material)
		assert.Equal(t, test.found, found, test.material)
		assert.Equal(t, test.preset, preset, test.material)
	}
}

func TestRulesFirstMatchWins(t *testing.T) {
	rules := gwp.Rules{
		{Family: embodiedcarbon.Timber, Preset: "Glulam", Keywords: []string{"LUMBER"}},
		{Family: embodiedcarbon.Timber, Preset: "Softwood Lumber", Keywords: []string{"SOFTWOOD", "LUMBER"}},
		{Family: embodiedcarbon.Timber, Preset: "Never", Keywords: nil},
	}
	preset, found := rules.Classify(embodiedcarbon.Timber, "softwood lumber")
	assert.True(t, found)
	assert.Equal(t, "Glulam", preset)
}

func TestCatalogDefault(t *testing.T) {
	catalog := gwp.DefaultCatalog()
	rules := gwp.DefaultRules()

	assert.Equal(t, "6000-00-FA/SL", catalog.Default(rules, embodiedcarbon.Concrete, embodiedcarbon.Floor, "Concrete").Name)
	assert.Equal(t, "8000-00-FA/SL", catalog.Default(rules, embodiedcarbon.Concrete, embodiedcarbon.Column, "Concrete").Name)
	assert.Equal(t, "4000-00-FA/SL", catalog.Default(rules, embodiedcarbon.Concrete, embodiedcarbon.Foundation, "Concrete").Name)
	assert.Equal(t, "HSS Steel", catalog.Default(rules, embodiedcarbon.Steel, embodiedcarbon.Framing, "A500").Name)
	assert.Equal(t, "Primary Steel", catalog.Default(rules, embodiedcarbon.Steel, embodiedcarbon.Framing, "Metal").Name)
	assert.Equal(t, "Softwood Lumber", catalog.Default(rules, embodiedcarbon.Timber, embodiedcarbon.Framing, "Oak").Name)
	assert.Equal(t, gwp.UnknownPresetName, catalog.Default(rules, embodiedcarbon.Unknown, embodiedcarbon.Wall, "A992").Name)
	assert.Equal(t, gwp.UnknownPresetName, catalog.Default(rules, embodiedcarbon.Rebar, embodiedcarbon.Wall, "").Name)
}
