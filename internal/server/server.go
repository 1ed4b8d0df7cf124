// Package server exposes a building session over HTTP: OpenMetrics
// scraping, JSON report and group edits, and export downloads.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/cache"
	"github.com/superdango/embodied-carbon/internal/export"
	"github.com/superdango/embodied-carbon/internal/session"
	"github.com/superdango/embodied-carbon/model/aggregate"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/group"
	"github.com/superdango/embodied-carbon/model/gwp"
)

const collectorName = "embodied_carbon"

// Server routes requests to a session.
type Server struct {
	session *session.Session
	exports *cache.Memory
	router  *mux.Router
}

// Option configures a server.
type Option func(srv *Server)

// WithExportCache replaces the cache memoizing exports.
func WithExportCache(c *cache.Memory) Option {
	return func(srv *Server) {
		srv.exports = c
	}
}

// New returns a server for s. Cached exports live until ctx is done or the
// session revision changes.
func New(ctx context.Context, s *session.Session, opts ...Option) *Server {
	srv := &Server{session: s}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.exports == nil {
		srv.exports = cache.NewMemory(ctx, 10*time.Minute)
	}

	// material names are path segments and may contain escaped slashes
	r := mux.NewRouter().UseEncodedPath()
	r.Handle("/metrics", embodiedcarbon.NewOpenMetricsHandler(collectorName, s)).Methods(http.MethodGet)
	r.HandleFunc("/report", srv.getReport).Methods(http.MethodGet)
	r.HandleFunc("/totals/{name}/elements", srv.getTotalMembers).Methods(http.MethodGet)
	r.HandleFunc("/groups", srv.listGroups).Methods(http.MethodGet)
	r.HandleFunc("/groups/{family}/reset", srv.resetFamily).Methods(http.MethodPost)
	r.HandleFunc("/groups/{material}/{category}/{name}", srv.getGroup).Methods(http.MethodGet)
	r.HandleFunc("/groups/{material}/{category}/{name}", srv.editGroup).Methods(http.MethodPatch)
	r.HandleFunc("/groups/{material}/{category}/{name}/elements", srv.getGroupMembers).Methods(http.MethodGet)
	r.HandleFunc("/export/{format}", srv.getExport).Methods(http.MethodGet)
	r.Use(logRequests)
	srv.router = r

	return srv
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.router.ServeHTTP(w, r)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

type reportResponse struct {
	Session  string           `json:"session"`
	Building string           `json:"building"`
	Revision uint64           `json:"revision"`
	Report   aggregate.Report `json:"report"`
	Rating   benchmark.Rating `json:"rating"`
}

func (srv *Server) getReport(w http.ResponseWriter, r *http.Request) {
	report, revision := srv.session.Snapshot()
	writeJSON(w, http.StatusOK, reportResponse{
		Session:  srv.session.ID(),
		Building: srv.session.Building().Name,
		Revision: revision,
		Report:   report,
		Rating:   srv.session.Rating(),
	})
}

// groupView is the JSON representation of a material group.
type groupView struct {
	group.Key
	GwpType         string       `json:"gwp_type"`
	Gwp             float64      `json:"gwp"`
	Basis           gwp.Basis    `json:"basis"`
	Presets         []gwp.Preset `json:"presets"`
	Volume          float64      `json:"volume"`
	VolumeFactor    float64      `json:"volume_factor"`
	Density         float64      `json:"density"`
	EmbodiedCarbon  float64      `json:"embodied_carbon"`
	RebarMultiplier float64      `json:"rebar_multiplier,omitempty"`
	RebarBasis      float64      `json:"rebar_basis,omitempty"`
	RebarWeight     float64      `json:"rebar_weight,omitempty"`
	RebarGwp        float64      `json:"rebar_gwp,omitempty"`
	RebarCarbon     float64      `json:"rebar_embodied_carbon,omitempty"`
}

func newGroupView(g group.MaterialGroup) groupView {
	v := groupView{
		Key:            g.Key,
		GwpType:        g.GwpType(),
		Gwp:            g.Gwp,
		Basis:          g.Basis(),
		Presets:        g.Presets,
		Volume:         g.Volume,
		VolumeFactor:   g.VolumeFactor,
		Density:        g.Density,
		EmbodiedCarbon: g.Carbon().KgCO2eq(),
	}
	if g.HasRebar() {
		v.RebarMultiplier = g.RebarMultiplier
		v.RebarBasis = g.RebarEstimateBasis()
		v.RebarWeight = g.RebarWeight
		v.RebarGwp = g.RebarGwp
		v.RebarCarbon = g.RebarCarbon().KgCO2eq()
	}
	return v
}

func (srv *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	var family embodiedcarbon.MaterialType
	if f := r.URL.Query().Get("family"); f != "" {
		var err error
		if family, err = embodiedcarbon.ParseMaterialType(f); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	groups := srv.session.Groups(family)
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, newGroupView(g))
	}
	writeJSON(w, http.StatusOK, views)
}

func groupKey(r *http.Request) (group.Key, error) {
	vars := mux.Vars(r)
	material, err := embodiedcarbon.ParseMaterialType(vars["material"])
	if err != nil {
		return group.Key{}, err
	}
	category, err := embodiedcarbon.ParseCategory(vars["category"])
	if err != nil {
		return group.Key{}, err
	}
	name, err := url.PathUnescape(vars["name"])
	if err != nil {
		return group.Key{}, fmt.Errorf("invalid material name: %w", err)
	}
	return group.Key{Material: material, Category: category, MaterialName: name}, nil
}

func (srv *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	key, err := groupKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	g, err := srv.session.Group(key)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupView(g))
}

// GroupEdit lists the changes to apply to a group. Nil fields are left
// untouched.
type GroupEdit struct {
	Preset          *string  `json:"preset"`
	Gwp             *float64 `json:"gwp"`
	VolumeFactor    *float64 `json:"volume_factor"`
	RebarMultiplier *float64 `json:"rebar_multiplier"`
	RebarWeight     *float64 `json:"rebar_weight"`
	RebarGwp        *float64 `json:"rebar_gwp"`
}

// Apply applies every edit to the group at once. A rejected edit leaves
// the group untouched.
func (e GroupEdit) Apply(s *session.Session, key group.Key) error {
	return s.Apply(key, session.Change(e))
}

func (srv *Server) editGroup(w http.ResponseWriter, r *http.Request) {
	key, err := groupKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	edit := GroupEdit{}
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid group edit: %w", err))
		return
	}

	if err := edit.Apply(srv.session, key); err != nil {
		writeError(w, statusOf(err), err)
		return
	}

	g, err := srv.session.Group(key)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newGroupView(g))
}

func (srv *Server) resetFamily(w http.ResponseWriter, r *http.Request) {
	family, err := embodiedcarbon.ParseMaterialType(mux.Vars(r)["family"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := srv.session.Reset(family); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) getGroupMembers(w http.ResponseWriter, r *http.Request) {
	key, err := groupKey(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := srv.session.Group(key); err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newMemberViews(srv.session.Report().GroupMembers(key)))
}

func (srv *Server) getTotalMembers(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !strings.EqualFold(name, aggregate.TotalName) {
		m, err := embodiedcarbon.ParseMaterialType(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		name = string(m)
	} else {
		name = aggregate.TotalName
	}
	writeJSON(w, http.StatusOK, newMemberViews(srv.session.Report().Members(name)))
}

type memberView struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Category            string  `json:"category"`
	Level               string  `json:"level"`
	Material            string  `json:"material"`
	MaterialName        string  `json:"material_name"`
	Volume              float64 `json:"volume"`
	Area                float64 `json:"area,omitempty"`
	FactoredVolume      float64 `json:"factored_volume"`
	FactoredWeight      float64 `json:"factored_weight"`
	GwpType             string  `json:"gwp_type"`
	Gwp                 float64 `json:"gwp"`
	EmbodiedCarbon      float64 `json:"embodied_carbon"`
	RebarWeight         float64 `json:"rebar_weight,omitempty"`
	RebarEmbodiedCarbon float64 `json:"rebar_embodied_carbon,omitempty"`
}

func newMemberViews(assessments []aggregate.Assessment) []memberView {
	views := make([]memberView, 0, len(assessments))
	for _, a := range assessments {
		views = append(views, memberView{
			ID:                  a.ID,
			Name:                a.Name,
			Category:            string(a.Category),
			Level:               a.Level,
			Material:            string(a.Material),
			MaterialName:        a.MaterialName,
			Volume:              a.Volume,
			Area:                a.Area,
			FactoredVolume:      a.FactoredVolume,
			FactoredWeight:      a.FactoredWeight,
			GwpType:             a.GwpType,
			Gwp:                 a.Gwp,
			EmbodiedCarbon:      a.EmbodiedCarbon,
			RebarWeight:         a.RebarWeight,
			RebarEmbodiedCarbon: a.RebarEmbodiedCarbon,
		})
	}
	return views
}

func (srv *Server) getExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	report, revision := srv.session.Snapshot()
	doc := export.Document{
		Building: srv.session.Building().Name,
		Report:   report,
		Rating:   srv.session.Rating(),
	}

	key := fmt.Sprintf("export/%s/%d", format, revision)
	v, err := srv.exports.GetOrSet(r.Context(), key, func(ctx context.Context) (any, error) {
		buf := new(bytes.Buffer)
		if err := export.Write(buf, format, doc); err != nil {
			return nil, err
		}
		slog.Info("export rendered", "format", format, "revision", revision, "bytes", buf.Len())
		return buf.Bytes(), nil
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// older revisions will never be served again
	srv.exports.Delete(func(k string) bool {
		return strings.HasPrefix(k, "export/") && !strings.HasSuffix(k, fmt.Sprintf("/%d", revision))
	})

	filename := strings.ReplaceAll(doc.Building, `"`, "") + "." + string(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(v.([]byte))
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, group.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, gwp.ErrPresetNotFound),
		errors.Is(err, session.ErrNoRebar),
		errors.Is(err, session.ErrUnknownFamily),
		errors.Is(err, session.ErrInvalidValue):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
