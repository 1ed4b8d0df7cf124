// Package session keeps a building, its material groups and the latest
// report consistent while the user edits coefficients.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/settings"
	"github.com/superdango/embodied-carbon/model/aggregate"
	"github.com/superdango/embodied-carbon/model/benchmark"
	"github.com/superdango/embodied-carbon/model/group"
	"github.com/superdango/embodied-carbon/model/gwp"
)

var (
	// ErrUnknownFamily is returned for a material family without groups.
	ErrUnknownFamily = errors.New("unknown material family")
	// ErrNoRebar is returned when editing the rebar of a group without any.
	ErrNoRebar = errors.New("rebar is only estimated for concrete groups")
	// ErrInvalidValue is returned for negative coefficients or factors.
	ErrInvalidValue = errors.New("invalid value")
)

// Session owns a building and recomputes its report after every edit.
type Session struct {
	mu sync.RWMutex

	id           string
	building     embodiedcarbon.Building
	catalog      gwp.Catalog
	rules        gwp.Rules
	builder      group.Builder
	groups       group.Groups
	settings     settings.Settings
	settingsPath string
	quartiles    benchmark.Quartiles
	report       aggregate.Report
	revision     uint64
}

// Option configures a session.
type Option func(s *Session)

// WithCatalog replaces the built-in presets.
func WithCatalog(catalog gwp.Catalog) Option {
	return func(s *Session) {
		s.catalog = catalog
	}
}

// WithRules replaces the built-in classification rules.
func WithRules(rules gwp.Rules) Option {
	return func(s *Session) {
		s.rules = rules
	}
}

// WithSettings restores saved selections.
func WithSettings(saved settings.Settings) Option {
	return func(s *Session) {
		s.settings = saved
	}
}

// WithSettingsPath saves the selections to path after every edit.
func WithSettingsPath(path string) Option {
	return func(s *Session) {
		s.settingsPath = path
	}
}

// WithBuildingUse sets the benchmark the building is rated against.
func WithBuildingUse(q benchmark.Quartiles) Option {
	return func(s *Session) {
		s.quartiles = q
	}
}

// New groups the elements of the building, restores the saved selections
// and computes the first report.
func New(building embodiedcarbon.Building, opts ...Option) *Session {
	quartiles, _ := benchmark.Lookup(benchmark.DefaultUse)
	s := &Session{
		id:        uuid.NewString(),
		building:  building,
		catalog:   gwp.DefaultCatalog(),
		rules:     gwp.DefaultRules(),
		quartiles: quartiles,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.builder = group.NewBuilder(s.catalog, s.rules)

	s.groups = s.builder.Build(building.Elements)
	for _, family := range embodiedcarbon.MaterialTypes {
		s.groups = s.groups.Restore(family, s.settings.Selections(family))
	}
	s.recompute()

	slog.Info("session ready", "session_id", s.id, "building", building.Name, "elements", len(building.Elements), "groups", len(s.groups))

	return s
}

func (s *Session) recompute() {
	s.report = aggregate.Aggregate(s.building.Elements, s.groups)
	s.revision++
}

// ID identifies the session.
func (s *Session) ID() string {
	return s.id
}

// Revision increases every time the report changes.
func (s *Session) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Session) Building() embodiedcarbon.Building {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.building
}

// Report returns the latest report.
func (s *Session) Report() aggregate.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Snapshot returns the report and its revision atomically.
func (s *Session) Snapshot() (aggregate.Report, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report, s.revision
}

// Groups returns the groups of a family, or every group when family is
// empty.
func (s *Session) Groups(family embodiedcarbon.MaterialType) []group.MaterialGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if family == "" {
		return s.groups.Sorted()
	}
	if family == embodiedcarbon.Rebar {
		family = embodiedcarbon.Concrete
	}
	return s.groups.Family(family)
}

// Group returns one group.
func (s *Session) Group(key group.Key) (group.MaterialGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, found := s.groups.Get(key)
	if !found {
		return group.MaterialGroup{}, fmt.Errorf("%w: %s", group.ErrGroupNotFound, key)
	}
	return g, nil
}

// Rating rates the latest report against the building use benchmark.
func (s *Session) Rating() benchmark.Rating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return benchmark.Rate(s.quartiles, s.report.Totals.Get(aggregate.TotalName), s.report.FloorArea)
}

// Settings returns the selections as they would be saved.
func (s *Session) Settings() settings.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// edit applies an edit to a group, recomputes the report and saves the
// selections.
func (s *Session) edit(key group.Key, edit func(group.MaterialGroup) (group.MaterialGroup, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var editErr error
	groups, err := s.groups.Update(key, func(g group.MaterialGroup) group.MaterialGroup {
		edited, err := edit(g)
		if err != nil {
			editErr = err
			return g
		}
		return edited
	})
	if err != nil {
		return err
	}
	if editErr != nil {
		return editErr
	}

	s.groups = groups
	s.settings = s.settings.WithSelections(key.Material, s.groups.Selections(key.Material))
	s.recompute()

	slog.Debug("material group edited", "group", key.String(), "revision", s.revision)

	return s.save()
}

func (s *Session) save() error {
	if s.settingsPath == "" {
		return nil
	}
	if err := settings.Save(s.settingsPath, s.settings); err != nil {
		return fmt.Errorf("group updated but not saved: %w", err)
	}
	return nil
}

// SelectPreset selects the preset of the group family closest to name.
func (s *Session) SelectPreset(key group.Key, name string) error {
	return s.Apply(key, Change{Preset: &name})
}

// SetGwp sets a typed coefficient.
func (s *Session) SetGwp(key group.Key, value float64) error {
	return s.Apply(key, Change{Gwp: &value})
}

func (s *Session) SetVolumeFactor(key group.Key, factor float64) error {
	return s.Apply(key, Change{VolumeFactor: &factor})
}

func (s *Session) SetRebarMultiplier(key group.Key, multiplier float64) error {
	return s.Apply(key, Change{RebarMultiplier: &multiplier})
}

// SetRebarWeight overrides the estimated rebar weight of a concrete group.
func (s *Session) SetRebarWeight(key group.Key, weight float64) error {
	return s.Apply(key, Change{RebarWeight: &weight})
}

func (s *Session) SetRebarGwp(key group.Key, value float64) error {
	return s.Apply(key, Change{RebarGwp: &value})
}

// Change lists edits applied to a group at once. Nil fields are left
// untouched.
type Change struct {
	Preset          *string
	Gwp             *float64
	VolumeFactor    *float64
	RebarMultiplier *float64
	RebarWeight     *float64
	RebarGwp        *float64
}

// Apply runs the edits of c in the order a restore would: preset, gwp,
// volume factor, rebar multiplier, rebar weight then rebar gwp. Either every
// edit is kept, with a single recompute and save, or none is.
func (s *Session) Apply(key group.Key, c Change) error {
	return s.edit(key, func(g group.MaterialGroup) (group.MaterialGroup, error) {
		if c.Preset != nil {
			p, err := s.catalog.Lookup(g.Material, *c.Preset)
			if err != nil {
				return g, err
			}
			g = g.WithPreset(p)
		}

		steps := []struct {
			name  string
			value *float64
			rebar bool
			apply func(group.MaterialGroup, float64) group.MaterialGroup
		}{
			{"gwp", c.Gwp, false, group.MaterialGroup.WithGwp},
			{"volume factor", c.VolumeFactor, false, group.MaterialGroup.WithVolumeFactor},
			{"rebar multiplier", c.RebarMultiplier, true, group.MaterialGroup.WithRebarMultiplier},
			{"rebar weight", c.RebarWeight, true, group.MaterialGroup.WithRebarWeight},
			{"rebar gwp", c.RebarGwp, true, group.MaterialGroup.WithRebarGwp},
		}
		for _, step := range steps {
			if step.value == nil {
				continue
			}
			if step.rebar && !g.HasRebar() {
				return g, ErrNoRebar
			}
			if *step.value < 0 {
				return g, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidValue, step.name, *step.value)
			}
			g = step.apply(g, *step.value)
		}
		return g, nil
	})
}

// Reset rebuilds the groups of a family with their defaults and forgets
// the saved selections. Resetting Rebar resets the concrete groups.
func (s *Session) Reset(family embodiedcarbon.MaterialType) error {
	if family == embodiedcarbon.Rebar {
		family = embodiedcarbon.Concrete
	}
	if family == "" || !isFamily(family) {
		return fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := s.builder.Build(s.building.Elements, family)
	s.groups = s.groups.ReplaceFamily(family, fresh)
	s.settings = s.settings.Reset(family)
	s.recompute()

	slog.Info("material family reset", "family", family, "revision", s.revision)

	return s.save()
}

func isFamily(m embodiedcarbon.MaterialType) bool {
	for _, family := range embodiedcarbon.MaterialTypes {
		if family == m {
			return true
		}
	}
	return false
}

// CollectMetrics implements embodiedcarbon.Collector.
func (s *Session) CollectMetrics(ctx context.Context, metrics chan *embodiedcarbon.Metric, errs chan error) {
	report := s.Report()
	rating := s.Rating()
	building := s.Building().Name

	send := func(m *embodiedcarbon.Metric) bool {
		select {
		case <-ctx.Done():
			return false
		case metrics <- m.AddLabel("building", building):
			return true
		}
	}

	for _, metric := range report.Metrics() {
		if !send(metric) {
			errs <- ctx.Err()
			return
		}
	}

	send(&embodiedcarbon.Metric{
		Name:   "embodied_carbon_intensity_kgCO2eq_m2",
		Labels: map[string]string{"use": rating.Use, "band": string(rating.Band)},
		Value:  rating.Intensity,
	})
}
