package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/server"
	"github.com/superdango/embodied-carbon/internal/session"
)

func newServer(t *testing.T) *server.Server {
	slab := embodiedcarbon.NewElement(embodiedcarbon.Floor, "1", "Slab", "L1", 0, 800, "Concrete 4000/6000", embodiedcarbon.Concrete, 150)
	slab.Area = 1000
	building := embodiedcarbon.Building{
		Name:   "Tower",
		Levels: embodiedcarbon.NewLevelTable(embodiedcarbon.Level{Name: "L1"}),
		Elements: []embodiedcarbon.Element{
			slab,
			embodiedcarbon.NewElement(embodiedcarbon.Framing, "2", "Beam", "L1", 0, 2, "A992", embodiedcarbon.Steel, 490),
		},
	}
	return server.New(t.Context(), session.New(building))
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestReport(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodGet, "/report", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := struct {
		Building string `json:"building"`
		Revision uint64 `json:"revision"`
		Report   struct {
			Totals []struct {
				Name  string  `json:"name"`
				Value float64 `json:"value"`
			} `json:"totals"`
			FloorArea float64 `json:"floor_area"`
		} `json:"report"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Tower", resp.Building)
	assert.Equal(t, uint64(1), resp.Revision)
	assert.Len(t, resp.Report.Totals, 6)
	assert.Equal(t, 1000.0, resp.Report.FloorArea)
}

func TestMetrics(t *testing.T) {
	rec := do(t, newServer(t), http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `estimated_total_embodied_emissions_kgCO2eq{building="Tower",collector="embodied_carbon",material="Rebar"} 2143.0000000000`)
}

func TestGroups(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodGet, "/groups?family=steel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	groups := []map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "A992", groups[0]["material_name"])
	assert.Equal(t, "Primary Steel", groups[0]["gwp_type"])

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/groups?family=plastic", "").Code)

	// the material name carries an escaped slash
	path := "/groups/Concrete/Floor/Concrete%204000%2F6000"
	rec = do(t, srv, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rebar_weight":6000`)

	rec = do(t, srv, http.MethodPatch, path, `{"rebar_gwp": 1000, "volume_factor": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rebar_weight":12000`)
	assert.Contains(t, rec.Body.String(), `"rebar_embodied_carbon":6000`)

	rec = do(t, srv, http.MethodGet, path+"/elements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"factored_volume":1600`)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/groups/Timber/Floor/Glulam", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, "/groups/Steel/Framing/A992", `{"rebar_weight": 10}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, "/groups/Steel/Framing/A992", `{"gwp": -1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, "/groups/Steel/Framing/A992", `{`).Code)

	// a rejected field discards the whole edit
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, "/groups/Steel/Framing/A992", `{"gwp": 42, "volume_factor": -1}`).Code)
	rec = do(t, srv, http.MethodGet, "/groups/Steel/Framing/A992", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gwp_type":"Primary Steel"`)
	assert.Contains(t, rec.Body.String(), `"volume_factor":1`)
	assert.NotContains(t, rec.Body.String(), `"gwp":42`)

	rec = do(t, srv, http.MethodPatch, "/groups/Steel/Framing/A992", `{"preset": "hss"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gwp_type":"HSS Steel"`)

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodPost, "/groups/Rebar/reset", "").Code)
	rec = do(t, srv, http.MethodGet, path, "")
	assert.Contains(t, rec.Body.String(), `"rebar_weight":6000`)

	rec = do(t, srv, http.MethodGet, "/totals/rebar/elements", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"1"`)
	assert.NotContains(t, rec.Body.String(), `"id":"2"`)
}

func TestExport(t *testing.T) {
	srv := newServer(t)

	rec := do(t, srv, http.MethodGet, "/export/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Tower.csv"`, rec.Header().Get("Content-Disposition"))
	first := rec.Body.String()
	assert.True(t, strings.HasPrefix(first, "Id, Name, AssociatedLevel"))

	// served from the cache while the session is unchanged
	assert.Equal(t, first, do(t, srv, http.MethodGet, "/export/csv", "").Body.String())

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPatch, "/groups/Steel/Framing/A992", `{"gwp": 1000}`).Code)
	assert.NotEqual(t, first, do(t, srv, http.MethodGet, "/export/csv", "").Body.String())

	rec = do(t, srv, http.MethodGet, "/export/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/export/docx", "").Code)
}
