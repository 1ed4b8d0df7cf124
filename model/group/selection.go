package group

import (
	embodiedcarbon "github.com/superdango/embodied-carbon"
)

// Selection is what the user changed on a group, kept between sessions.
type Selection struct {
	Category        embodiedcarbon.Category `yaml:"category" mapstructure:"category"`
	MaterialName    string                  `yaml:"material_name" mapstructure:"material_name"`
	Preset          string                  `yaml:"preset" mapstructure:"preset"`
	Gwp             float64                 `yaml:"gwp" mapstructure:"gwp"`
	VolumeFactor    float64                 `yaml:"volume_factor" mapstructure:"volume_factor"`
	RebarMultiplier float64                 `yaml:"rebar_multiplier,omitempty" mapstructure:"rebar_multiplier"`
	RebarWeight     float64                 `yaml:"rebar_weight,omitempty" mapstructure:"rebar_weight"`
	RebarGwp        float64                 `yaml:"rebar_gwp,omitempty" mapstructure:"rebar_gwp"`
}

// Selection returns the current choices of the group.
func (g MaterialGroup) Selection() Selection {
	s := Selection{
		Category:     g.Category,
		MaterialName: g.MaterialName,
		Preset:       g.Selected.Name,
		Gwp:          g.Gwp,
		VolumeFactor: g.VolumeFactor,
	}
	if g.HasRebar() {
		s.RebarMultiplier = g.RebarMultiplier
		s.RebarWeight = g.RebarWeight
		s.RebarGwp = g.RebarGwp
	}
	return s
}

// Restore applies the selection to the group. The volume factor is applied
// before the rebar multiplier and the saved rebar weight comes last so a
// custom weight survives the estimation.
func (g MaterialGroup) Restore(s Selection) MaterialGroup {
	restored := g.clone()
	for _, p := range restored.Presets {
		if p.Name == s.Preset {
			restored.Selected = p
			break
		}
	}
	restored.Gwp = s.Gwp
	restored = restored.WithVolumeFactor(s.VolumeFactor)

	if restored.HasRebar() {
		restored = restored.
			WithRebarMultiplier(s.RebarMultiplier).
			WithRebarWeight(s.RebarWeight).
			WithRebarGwp(s.RebarGwp)
	}

	return restored
}

// Restore returns a copy of the groups with the saved selections of a
// family applied. Selections without a matching group are ignored.
func (groups Groups) Restore(family embodiedcarbon.MaterialType, selections []Selection) Groups {
	restored := make(Groups, len(groups))
	for key, g := range groups {
		restored[key] = g
	}
	for _, s := range selections {
		key := Key{Material: family, Category: s.Category, MaterialName: s.MaterialName}
		if g, found := restored[key]; found {
			restored[key] = g.Restore(s)
		}
	}
	return restored
}

// Selections returns the selections of a family, sorted like the groups.
func (groups Groups) Selections(family embodiedcarbon.MaterialType) []Selection {
	var selections []Selection
	for _, g := range groups.Family(family) {
		selections = append(selections, g.Selection())
	}
	return selections
}
