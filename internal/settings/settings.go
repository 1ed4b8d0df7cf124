// Package settings persists the user choices of a building between runs:
// the level map and the selections made on material groups.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/model/group"
)

// Settings of one building.
type Settings struct {
	LevelMap embodiedcarbon.LevelMap                         `yaml:"level_map,omitempty"`
	Groups   map[embodiedcarbon.MaterialType][]group.Selection `yaml:"groups,omitempty"`
}

// family maps Rebar to Concrete: rebar choices live on concrete groups.
func family(m embodiedcarbon.MaterialType) embodiedcarbon.MaterialType {
	if m == embodiedcarbon.Rebar {
		return embodiedcarbon.Concrete
	}
	return m
}

// Selections returns the saved selections of a family.
func (s Settings) Selections(m embodiedcarbon.MaterialType) []group.Selection {
	return slices.Clone(s.Groups[family(m)])
}

// WithSelections returns settings where the selections of a family are
// replaced.
func (s Settings) WithSelections(m embodiedcarbon.MaterialType, selections []group.Selection) Settings {
	updated := s.clone()
	if len(selections) == 0 {
		delete(updated.Groups, family(m))
		return updated
	}
	updated.Groups[family(m)] = slices.Clone(selections)
	return updated
}

// Reset forgets the selections of a family.
func (s Settings) Reset(m embodiedcarbon.MaterialType) Settings {
	return s.WithSelections(m, nil)
}

// WithLevelMap returns settings using another level map.
func (s Settings) WithLevelMap(levelMap embodiedcarbon.LevelMap) Settings {
	updated := s.clone()
	updated.LevelMap = slices.Clone(levelMap)
	return updated
}

func (s Settings) clone() Settings {
	c := Settings{
		LevelMap: slices.Clone(s.LevelMap),
		Groups:   make(map[embodiedcarbon.MaterialType][]group.Selection, len(s.Groups)),
	}
	maps.Copy(c.Groups, s.Groups)
	return c
}

// Load reads settings from path. A missing file yields empty settings.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s := Settings{}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to path, replacing the previous file only once the
// new one is complete.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
