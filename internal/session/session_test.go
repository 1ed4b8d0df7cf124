package session

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/settings"
	"github.com/superdango/embodied-carbon/model/aggregate"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/group"
	"github.com/superdango/embodied-carbon/model/gwp"
)

func testBuilding() embodiedcarbon.Building {
	floor := embodiedcarbon.NewElement(embodiedcarbon.Floor, "1", "Slab", "L1", 0, 800, "Concrete", embodiedcarbon.Concrete, 150)
	floor.Area = 1000
	return embodiedcarbon.Building{
		Name:   "Test",
		Levels: embodiedcarbon.NewLevelTable(embodiedcarbon.Level{Name: "L1", Elevation: 0}),
		Elements: []embodiedcarbon.Element{
			floor,
			embodiedcarbon.NewElement(embodiedcarbon.Framing, "2", "Beam", "L1", 0, 2, "A992", embodiedcarbon.Steel, 490),
		},
	}
}

var (
	floorKey = group.Key{Material: embodiedcarbon.Concrete, Category: embodiedcarbon.Floor, MaterialName: "Concrete"}
	beamKey  = group.Key{Material: embodiedcarbon.Steel, Category: embodiedcarbon.Framing, MaterialName: "A992"}
)

func TestNew(t *testing.T) {
	s := New(testBuilding())

	assert.NotEmpty(t, s.ID())
	assert.Equal(t, uint64(1), s.Revision())
	assert.Len(t, s.Groups(""), 2)
	assert.Len(t, s.Groups(embodiedcarbon.Rebar), 1)
	assert.Equal(t, 2143.0, s.Report().Totals.Get("Rebar"))
	assert.Equal(t, "Commercial", s.Rating().Use)
}

func TestEditsRecompute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := New(testBuilding(), WithSettingsPath(path))

	require.NoError(t, s.SetRebarGwp(floorKey, 1000))
	assert.Equal(t, 3000.0, s.Report().Totals.Get("Rebar"))
	assert.Equal(t, uint64(2), s.Revision())

	require.NoError(t, s.SetRebarMultiplier(floorKey, 5))
	assert.Equal(t, 2500.0, s.Report().Totals.Get("Rebar"))

	require.NoError(t, s.SetRebarWeight(floorKey, 2000))
	assert.Equal(t, 1000.0, s.Report().Totals.Get("Rebar"))

	require.NoError(t, s.SetVolumeFactor(floorKey, 2))
	g, err := s.Group(floorKey)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, g.RebarWeight)

	require.NoError(t, s.SelectPreset(beamKey, "hss"))
	g, err = s.Group(beamKey)
	require.NoError(t, err)
	assert.Equal(t, "HSS Steel", g.GwpType())

	require.NoError(t, s.SetGwp(beamKey, 1000))
	// 2 ft3 * 490 lb/ft3 = 0.49 short ton
	assert.Equal(t, 490.0, s.Report().Totals.Get("Steel"))

	assert.ErrorIs(t, s.SetRebarWeight(beamKey, 10), ErrNoRebar)
	assert.ErrorIs(t, s.SetGwp(group.Key{Material: embodiedcarbon.Timber}, 1), group.ErrGroupNotFound)
	assert.ErrorIs(t, s.SetVolumeFactor(floorKey, -1), ErrInvalidValue)
	assert.ErrorIs(t, s.SelectPreset(beamKey, "glulam"), gwp.ErrPresetNotFound)

	saved, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Settings(), saved)
	require.Len(t, saved.Selections(embodiedcarbon.Steel), 1)
	assert.Equal(t, "HSS Steel", saved.Selections(embodiedcarbon.Steel)[0].Preset)
	assert.Equal(t, 1000.0, saved.Selections(embodiedcarbon.Steel)[0].Gwp)

	restored := New(testBuilding(), WithSettings(saved))
	assert.Equal(t, s.Report().Totals, restored.Report().Totals)

	require.NoError(t, s.Reset(embodiedcarbon.Rebar))
	g, err = s.Group(floorKey)
	require.NoError(t, err)
	assert.Equal(t, 6000.0, g.RebarWeight)
	assert.Equal(t, 1.0, g.VolumeFactor)
	assert.Equal(t, 2143.0, s.Report().Totals.Get("Rebar"))
	assert.Equal(t, 490.0, s.Report().Totals.Get("Steel"))

	assert.ErrorIs(t, s.Reset("Plastic"), ErrUnknownFamily)
}

func TestApplyIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := New(testBuilding(), WithSettingsPath(path))
	beamKey := group.Key{Material: embodiedcarbon.Steel, Category: embodiedcarbon.Framing, MaterialName: "A992"}
	before, revision := s.Report(), s.Revision()

	gwpValue, factor := 42.0, -1.0
	err := s.Apply(beamKey, Change{Gwp: &gwpValue, VolumeFactor: &factor})
	assert.ErrorIs(t, err, ErrInvalidValue)

	g, err := s.Group(beamKey)
	require.NoError(t, err)
	assert.Equal(t, "Primary Steel", g.GwpType())
	assert.Equal(t, 1.0, g.VolumeFactor)
	assert.Equal(t, revision, s.Revision())
	assert.Equal(t, before, s.Report())
	assert.NoFileExists(t, path)

	// rebar edits on steel reject the whole change
	preset, weight := "hss", 10.0
	assert.ErrorIs(t, s.Apply(beamKey, Change{Preset: &preset, RebarWeight: &weight}), ErrNoRebar)
	g, err = s.Group(beamKey)
	require.NoError(t, err)
	assert.Equal(t, "Primary Steel", g.GwpType())

	factor = 2
	require.NoError(t, s.Apply(beamKey, Change{Preset: &preset, Gwp: &gwpValue, VolumeFactor: &factor}))
	g, err = s.Group(beamKey)
	require.NoError(t, err)
	assert.Equal(t, "HSS Steel", g.Selected.Name)
	assert.Equal(t, 42.0, g.Gwp)
	assert.Equal(t, 2.0, g.VolumeFactor)
	assert.Equal(t, revision+1, s.Revision())
	assert.FileExists(t, path)
}

func TestRating(t *testing.T) {
	q, err := benchmark.Lookup("Office")
	require.NoError(t, err)

	s := New(testBuilding(), WithBuildingUse(q))
	rating := s.Rating()
	assert.Equal(t, "Office", rating.Use)
	assert.InDelta(t, s.Report().Totals.Get(aggregate.TotalName)/embodiedcarbon.SquareMeters(1000), rating.Intensity, 1e-9)
}

func TestCollectMetrics(t *testing.T) {
	s := New(testBuilding())

	metrics := make(chan *embodiedcarbon.Metric, 100)
	errs := make(chan error, 1)
	s.CollectMetrics(t.Context(), metrics, errs)
	close(metrics)

	count := 0
	var intensity *embodiedcarbon.Metric
	for m := range metrics {
		count++
		assert.Equal(t, "Test", m.Labels["building"])
		if strings.HasPrefix(m.Name, "embodied_carbon_intensity") {
			intensity = m
		}
	}
	assert.Equal(t, len(s.Report().Metrics())+1, count)
	require.NotNil(t, intensity)
	assert.Equal(t, "Commercial", intensity.Labels["use"])
	assert.Empty(t, errs)
}
