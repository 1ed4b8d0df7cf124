package embodiedcarbon

import (
	"slices"
)

// UnknownLevelName labels elements without a resolvable level.
const UnknownLevelName = "Unknown Level"

// Level is a building story.
type Level struct {
	Name      string  `json:"name" yaml:"name" mapstructure:"name"`
	Elevation float64 `json:"elevation" yaml:"elevation" mapstructure:"elevation"`
}

// LevelTable holds the building levels sorted bottom to top. The zero value
// is an empty table.
type LevelTable struct {
	levels []Level
}

// NewLevelTable sorts the given levels by ascending elevation. Levels with
// the same elevation keep their relative order.
func NewLevelTable(levels ...Level) LevelTable {
	sorted := slices.Clone(levels)
	slices.SortStableFunc(sorted, func(a, b Level) int {
		switch {
		case a.Elevation < b.Elevation:
			return -1
		case a.Elevation > b.Elevation:
			return 1
		}
		return 0
	})
	return LevelTable{levels: sorted}
}

func (t LevelTable) Len() int {
	return len(t.levels)
}

// Levels returns a copy of the sorted levels.
func (t LevelTable) Levels() []Level {
	return slices.Clone(t.levels)
}

// Names returns the level names, bottom to top.
func (t LevelTable) Names() []string {
	names := make([]string, len(t.levels))
	for i, l := range t.levels {
		names[i] = l.Name
	}
	return names
}

// Find returns the first level with the given name.
func (t LevelTable) Find(name string) (Level, bool) {
	for _, l := range t.levels {
		if l.Name == name {
			return l, true
		}
	}
	return Level{}, false
}

// Unknown is the synthetic level absorbing elements without level. It sits
// 100 ft under the lowest level, or at 0 for an empty table.
func (t LevelTable) Unknown() Level {
	if len(t.levels) == 0 {
		return Level{Name: UnknownLevelName, Elevation: 0}
	}
	return Level{Name: UnknownLevelName, Elevation: t.levels[0].Elevation - 100}
}

// Resolve returns the named level, or the Unknown level.
func (t LevelTable) Resolve(name string) Level {
	if l, found := t.Find(name); found && name != "" {
		return l
	}
	return t.Unknown()
}

// Fragment is the share of an element volume attributed to one level.
type Fragment struct {
	Level  Level
	Length float64
	Volume float64
}

// Split apportions the volume of an element spanning [bottomElev, topElev]
// across the levels. Each fragment is attributed to the level on top of the
// slab it covers. Portions under the lowest level go to the lowest level and
// portions above the highest level go to the highest level.
//
// The three cases are evaluated independently and every match is emitted, so
// an inconsistent height can yield more volume than the element holds.
//
// Split returns nil when height is not positive or the table is empty; the
// caller keeps the element whole on its own level.
func (t LevelTable) Split(volume, bottomElev, topElev, height float64) []Fragment {
	if height <= 0 || len(t.levels) == 0 {
		return nil
	}

	l := t.levels
	fragments := make([]Fragment, 0, len(l))
	emit := func(level Level, length float64) {
		fragments = append(fragments, Fragment{
			Level:  level,
			Length: length,
			Volume: (length / height) * volume,
		})
	}

	// below the lowest level
	if l[0].Elevation > bottomElev && l[0].Elevation <= topElev {
		emit(l[0], l[0].Elevation-bottomElev)
	}

	for i := 1; i < len(l); i++ {
		below, above := l[i-1].Elevation, l[i].Elevation
		switch {
		// base inside the slab, top at or past the level above
		case bottomElev < above && bottomElev >= below && topElev >= above:
			emit(l[i], above-bottomElev)
		// spans the whole slab
		case bottomElev <= below && topElev >= above:
			emit(l[i], above-below)
		// top ends inside the slab
		case bottomElev <= below && topElev > below && topElev <= above:
			emit(l[i], topElev-below)
		}
	}

	// above the highest level
	if last := l[len(l)-1]; last.Elevation < topElev {
		emit(last, topElev-last.Elevation)
	}

	return fragments
}
