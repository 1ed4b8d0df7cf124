package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	embodiedcarbon "github.com/superdango/embodied-carbon"
)

const towerYAML = `
name: Test Tower
levels:
  - {name: L2, elevation: 10}
  - {name: L1, elevation: 0}
  - {name: L3, elevation: 20}
  - {name: Roof, elevation: 30}
elements:
  - id: 1
    name: Column C1
    category: column
    level: L1
    phase: New Construction
    volume: 50
    material: {name: Concrete 8000, class: Concrete, density: 150}
    extent: {bottom: 0, top: 25}
  - id: 2
    name: Wall W1
    category: Wall
    level: L1
    volume: 60
    material: {name: Block, class: Masonry, density: 140}
    wall: {base_offset: 0, unconnected_height: 30}
  - id: 3
    name: Slab
    category: Floor
    level: L2
    volume: 400
    area: 1000
    material: {name: Concrete 4000, class: Concrete, density: 150}
    deck:
      family: Composite Deck
      profile: 3in
      hr: 0.25
      wr: 0.5
      rr: 0.5
      sr: 1
      thickness: 0.005
      material: {name: Metal Deck, class: Metal, density: 490}
  - id: 4
    name: Beam
    category: Framing
    level: Basement
    volume: 2
    material: {name: A992, class: metal, density: 0}
  - id: 5
    name: Demolished
    category: Framing
    level: L1
    phase: Existing
    volume: 2
  - id: 6
    category: Roof
  - id: 7
    category: Foundation
    volume: abc
`

func readTower(t *testing.T) embodiedcarbon.Building {
	doc, err := Decode(strings.NewReader(towerYAML), YAML)
	require.NoError(t, err)

	return Read(t.Context(), doc, Options{
		LevelMap: embodiedcarbon.LevelMap{{Name: "Podium", Levels: []string{"L1", "L2"}}},
		Phases:   []string{"new construction"},
	})
}

type placement struct {
	Name      string
	Level     string
	Elevation float64
	Volume    float64
	Material  embodiedcarbon.MaterialType
}

func placements(elements []embodiedcarbon.Element) []placement {
	p := make([]placement, len(elements))
	for i, e := range elements {
		p[i] = placement{Name: e.Name, Level: e.Level, Elevation: e.LevelElevation, Volume: embodiedcarbon.Round(e.Volume, 6), Material: e.Material}
	}
	return p
}

func TestRead(t *testing.T) {
	building := readTower(t)

	assert.Equal(t, "Test Tower", building.Name)
	assert.Equal(t, []string{"L1", "L2", "L3", "Roof"}, building.Levels.Names())

	assert.Equal(t, []placement{
		{"Column C1", "Podium", 10, 20, embodiedcarbon.Concrete},
		{"Column C1", "L3", 20, 20, embodiedcarbon.Concrete},
		{"Column C1", "Roof", 30, 10, embodiedcarbon.Concrete},
		{"Wall W1", "Podium", 10, 20, embodiedcarbon.Concrete},
		{"Wall W1", "L3", 20, 20, embodiedcarbon.Concrete},
		{"Wall W1", "Roof", 30, 20, embodiedcarbon.Concrete},
		{"Composite Deck - 3in", "Podium", 10, 7.5, embodiedcarbon.Steel},
		{"Slab", "Podium", 10, 275, embodiedcarbon.Concrete},
		{"Beam", embodiedcarbon.UnknownLevelName, -100, 2, embodiedcarbon.Unknown},
	}, placements(building.Elements))

	deck := building.Elements[6]
	assert.Equal(t, "3", deck.ID)
	assert.Equal(t, 1000.0, deck.Area)
	assert.Equal(t, 490.0, deck.Density())
	assert.Equal(t, "Metal Deck", deck.MaterialName)
	assert.Equal(t, 1000.0, building.Elements[7].Area)
	assert.Zero(t, building.Elements[0].Area)

	require.Len(t, building.Errors, 2)
	elementErr := new(embodiedcarbon.ElementErr)
	require.ErrorAs(t, building.Errors[0], &elementErr)
	assert.Equal(t, "6", elementErr.ElementID)
	assert.Equal(t, "category", elementErr.Operation)
	require.ErrorAs(t, building.Errors[1], &elementErr)
	assert.Equal(t, "7", elementErr.ElementID)
	assert.Equal(t, "decode", elementErr.Operation)
}

func TestReadWithoutLevels(t *testing.T) {
	doc, err := Decode(strings.NewReader(`{"elements": [
		{"id": 1001, "name": "C1", "category": "Column", "level": "L1", "volume": 10,
		 "material": {"name": "Concrete", "class": "Concrete", "density": 150},
		 "extent": {"bottom": 0, "top": 10}},
		{"id": 1002, "name": "W1", "category": "Wall", "volume": 10,
		 "wall": {"base_offset": 0, "unconnected_height": 0}}
	]}`), JSON)
	require.NoError(t, err)

	building := Read(context.Background(), doc, Options{})
	require.Len(t, building.Elements, 2)
	assert.Empty(t, building.Errors)

	column := building.Elements[0]
	assert.Equal(t, "1001", column.ID)
	assert.Equal(t, embodiedcarbon.UnknownLevelName, column.Level)
	assert.Equal(t, 0.0, column.LevelElevation)
	assert.Equal(t, 10.0, column.Volume)

	wall := building.Elements[1]
	assert.Equal(t, embodiedcarbon.Unknown, wall.Material)
	assert.Equal(t, "", wall.MaterialName)
}

func TestReadKeepsUnsplitElement(t *testing.T) {
	doc := Document{
		Levels: []embodiedcarbon.Level{{Name: "L1", Elevation: 0}, {Name: "L2", Elevation: 10}},
		Elements: []map[string]any{{
			"id": "c", "category": "Column", "level": "L2", "volume": 4.0,
			"material": map[string]any{"class": "Wood", "density": 35.0, "name": "Glulam"},
			"extent":   map[string]any{"bottom": 2.0, "top": 2.0},
		}},
	}

	building := Read(t.Context(), doc, Options{})
	require.Len(t, building.Elements, 1)
	assert.Equal(t, "L2", building.Elements[0].Level)
	assert.Equal(t, 4.0, building.Elements[0].Volume)
	assert.Equal(t, embodiedcarbon.Timber, building.Elements[0].Material)
}

func TestReadKeepsInvertedColumn(t *testing.T) {
	doc := Document{
		Levels: []embodiedcarbon.Level{{Name: "L1", Elevation: 0}, {Name: "L2", Elevation: 10}, {Name: "L3", Elevation: 20}},
		Elements: []map[string]any{{
			"id": "c", "category": "Column", "level": "L1", "volume": 50.0,
			"material": map[string]any{"class": "Concrete", "density": 150.0, "name": "Concrete"},
			"extent":   map[string]any{"bottom": 25.0, "top": 0.0},
		}},
	}

	building := Read(t.Context(), doc, Options{})
	require.Len(t, building.Elements, 1)
	assert.Equal(t, "L1", building.Elements[0].Level)
	assert.Equal(t, 0.0, building.Elements[0].LevelElevation)
	assert.Equal(t, 50.0, building.Elements[0].Volume)
}

func TestReadCancelled(t *testing.T) {
	doc, err := Decode(strings.NewReader(towerYAML), YAML)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	building := Read(ctx, doc, Options{})
	assert.Empty(t, building.Elements)
	require.Len(t, building.Errors, 1)
	assert.ErrorIs(t, building.Errors[0], context.Canceled)
}

func TestMaterialTypeOf(t *testing.T) {
	assert.Equal(t, embodiedcarbon.Steel, MaterialTypeOf("Metal"))
	assert.Equal(t, embodiedcarbon.Timber, MaterialTypeOf("wood"))
	assert.Equal(t, embodiedcarbon.Concrete, MaterialTypeOf("CONCRETE"))
	assert.Equal(t, embodiedcarbon.Concrete, MaterialTypeOf("Masonry"))
	assert.Equal(t, embodiedcarbon.Unknown, MaterialTypeOf("Plastic"))
}

func TestExtractDeckNeedsProfile(t *testing.T) {
	floor := embodiedcarbon.NewElement(embodiedcarbon.Floor, "1", "Slab", "L1", 0, 100, "Concrete", embodiedcarbon.Concrete, 150)
	floor.Area = 100

	_, ok := extractDeck(&floor, Deck{RibHeight: 0.25, RibWidth: 0.5, RibRoot: 0.5, RibSpacing: 1, Thickness: 0.005})
	assert.False(t, ok)
	assert.Equal(t, 100.0, floor.Volume)
}

func TestFileLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tower.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Replace(towerYAML, "name: Test Tower\n", "", 1)), 0o600))

	building, err := Load(t.Context(), File{Path: path}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "tower", building.Name)
	assert.Len(t, building.Elements, 10)

	_, err = Load(t.Context(), File{Path: "building.txt"}, Options{})
	assert.Error(t, err)
}
