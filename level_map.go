package embodiedcarbon

import "slices"

// LevelMapping collapses several model levels into one reporting level.
type LevelMapping struct {
	Name   string   `json:"name" yaml:"name" mapstructure:"name"`
	Levels []string `json:"levels" yaml:"levels" mapstructure:"levels"`
}

// LevelMap is an ordered list of mappings. When a level appears in several
// mappings the first one wins.
type LevelMap []LevelMapping

// Resolve returns the reporting name of a model level. Unmapped levels keep
// their name.
func (m LevelMap) Resolve(level string) string {
	for _, mapping := range m {
		if slices.Contains(mapping.Levels, level) {
			return mapping.Name
		}
	}
	return level
}

// Add appends a mapping. It returns false when a mapping with the same name
// already exists.
func (m *LevelMap) Add(name string, levels ...string) bool {
	for _, mapping := range *m {
		if mapping.Name == name {
			return false
		}
	}
	*m = append(*m, LevelMapping{Name: name, Levels: slices.Clone(levels)})
	return true
}

// Prune drops the levels that do not exist in the table and the mappings
// left empty, keeping saved maps consistent with the current model.
func (m LevelMap) Prune(table LevelTable) LevelMap {
	pruned := make(LevelMap, 0, len(m))
	for _, mapping := range m {
		levels := make([]string, 0, len(mapping.Levels))
		for _, l := range mapping.Levels {
			if _, found := table.Find(l); found {
				levels = append(levels, l)
			}
		}
		if len(levels) > 0 {
			pruned = append(pruned, LevelMapping{Name: mapping.Name, Levels: levels})
		}
	}
	return pruned
}
