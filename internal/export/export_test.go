package export_test

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/export"
	"github.com/superdango/embodied-carbon/model/aggregate"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/group"
	"github.com/superdango/embodied-carbon/model/gwp"
)

func testDocument() export.Document {
	slab := embodiedcarbon.NewElement(embodiedcarbon.Floor, "1", "Slab, level 1", "L1", 0, 800, "Concrete", embodiedcarbon.Concrete, 150)
	slab.Area = 1000
	elements := []embodiedcarbon.Element{
		embodiedcarbon.NewElement(embodiedcarbon.Framing, "2", "W12X26", "L1", 0, 2, "A992", embodiedcarbon.Steel, 490),
		slab,
	}
	groups := group.NewBuilder(gwp.DefaultCatalog(), gwp.DefaultRules()).Build(elements)
	report := aggregate.Aggregate(elements, groups)
	q, _ := benchmark.Lookup(benchmark.DefaultUse)

	return export.Document{
		Building: "Tower",
		Report:   report,
		Rating:   benchmark.Rate(q, report.Totals.Get(aggregate.TotalName), report.FloorArea),
	}
}

func TestParseFormat(t *testing.T) {
	f, err := export.ParseFormat(".XLSX")
	assert.NoError(t, err)
	assert.Equal(t, export.XLSX, f)

	_, err = export.ParseFormat("docx")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)

	assert.ErrorIs(t, export.Write(new(bytes.Buffer), "docx", testDocument()), export.ErrUnknownFormat)
	assert.Equal(t, "application/pdf", export.PDF.ContentType())
}

func TestWriteCSV(t *testing.T) {
	doc := testDocument()
	buf := new(bytes.Buffer)
	require.NoError(t, export.Write(buf, export.CSV, doc))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "Id, Name, AssociatedLevel, Volume (CF), Density (PCF), Weight (LB), VolumeFactor, "+
		"FactoredVolume, FactoredWeight, Area (SF), Material, MaterialName, Category, GwpType, Gwp, GwpUnit, "+
		"EmbodiedCarbon (KG), RebarMultiplier, RebarMultiplierUnit, RebarWeight (LB), "+
		"RebarGwp (KG/SHORT TON), RebarEmbodiedCarbon (KG)", lines[0])
	assert.NotContains(t, lines[0], "AssociatedElevation")

	// concrete sorts before steel
	slab := strings.Split(lines[1], ", ")
	require.Len(t, slab, 22)
	assert.Equal(t, []string{"1", "Slab; level 1", "L1", "800", "150", "120000", "1", "800", "120000", "1000", "Concrete", "Concrete", "Floor", "6000-00-FA/SL"}, slab[:14])
	assert.Equal(t, "KG CO2e PER CUBIC YARD", slab[15])
	assert.Equal(t, "PSF", slab[18])
	rebar, err := strconv.ParseFloat(slab[21], 64)
	require.NoError(t, err)
	assert.InDelta(t, 2142.6, rebar, 1e-9)

	beam := strings.Split(lines[2], ", ")
	require.Len(t, beam, 22)
	assert.Equal(t, []string{"2", "W12X26", "L1", "2", "490", "980"}, beam[:6])
	assert.Equal(t, "Primary Steel", beam[13])
	assert.Equal(t, "KG CO2e PER SHORT TON", beam[15])
	assert.Equal(t, "0", beam[19])
}

func TestWriteXLSX(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, export.Write(buf, export.XLSX, testDocument()))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Elements", "Categories", "Levels", "Totals"}, f.GetSheetList())

	rows, err := f.GetRows("Elements")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Id", rows[0][0])
	assert.Equal(t, "Slab, level 1", rows[1][1])

	rows, err = f.GetRows("Levels")
	require.NoError(t, err)
	assert.Equal(t, []string{"Level", "Elevation", "Steel", "Concrete", "Timber", "Rebar", "Unknown", "Total"}, rows[0])
	assert.Equal(t, "L1", rows[1][0])

	rows, err = f.GetRows("Totals")
	require.NoError(t, err)
	assert.Equal(t, "Steel", rows[1][0])
	assert.Equal(t, "Total", rows[6][0])
	assert.Contains(t, rows, []string{"Building", "Tower"})
}

func TestWritePDF(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, export.Write(buf, export.PDF, testDocument()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
