package group

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/model/gwp"
)

// Groups is the result of a build. It is never modified in place.
type Groups map[Key]MaterialGroup

// Get returns the group of a key.
func (groups Groups) Get(key Key) (MaterialGroup, bool) {
	g, found := groups[key]
	return g, found
}

// Sorted returns the groups ordered by material, category then material name.
func (groups Groups) Sorted() []MaterialGroup {
	sorted := slices.Collect(maps.Values(groups))
	slices.SortFunc(sorted, func(a, b MaterialGroup) int {
		return compareKeys(a.Key, b.Key)
	})
	return sorted
}

// Family returns the sorted groups of one material family.
func (groups Groups) Family(family embodiedcarbon.MaterialType) []MaterialGroup {
	var members []MaterialGroup
	for _, g := range groups.Sorted() {
		if g.Material == family {
			members = append(members, g)
		}
	}
	return members
}

// Update returns a copy of the groups where the group of key is replaced
// by edit(group).
func (groups Groups) Update(key Key, edit func(MaterialGroup) MaterialGroup) (Groups, error) {
	g, found := groups[key]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, key)
	}
	updated := maps.Clone(groups)
	updated[key] = edit(g)
	return updated, nil
}

// ReplaceFamily returns a copy of the groups where every group of the
// family comes from fresh.
func (groups Groups) ReplaceFamily(family embodiedcarbon.MaterialType, fresh Groups) Groups {
	replaced := make(Groups, len(groups))
	for key, g := range groups {
		if key.Material != family {
			replaced[key] = g
		}
	}
	for key, g := range fresh {
		if key.Material == family {
			replaced[key] = g
		}
	}
	return replaced
}

func compareKeys(a, b Key) int {
	return cmp.Or(
		cmp.Compare(a.Material, b.Material),
		cmp.Compare(a.Category, b.Category),
		cmp.Compare(a.MaterialName, b.MaterialName),
	)
}

// Builder groups elements, seeding each new group with the default
// coefficients of its material.
type Builder struct {
	catalog gwp.Catalog
	rules   gwp.Rules
}

func NewBuilder(catalog gwp.Catalog, rules gwp.Rules) Builder {
	return Builder{catalog: catalog, rules: rules}
}

// Build groups the elements of the given families, or of every family when
// none is given. Rebar never forms groups on its own.
func (b Builder) Build(elements []embodiedcarbon.Element, families ...embodiedcarbon.MaterialType) Groups {
	if len(families) == 0 {
		families = embodiedcarbon.MaterialTypes
	}

	groups := make(Groups)
	for _, e := range elements {
		if e.Material == embodiedcarbon.Rebar || !slices.Contains(families, e.Material) {
			continue
		}

		key := KeyOf(e)
		g, found := groups[key]
		if !found {
			g = newMaterialGroup(key, e.Density(), b.catalog, b.rules)
			slog.Debug("new material group", "group", key.String(), "gwp", g.Selected.Name)
		}
		g.add(e)
		groups[key] = g
	}

	for key, g := range groups {
		g.estimateRebarWeight()
		groups[key] = g
	}

	return groups
}

// Members returns the elements of a group sorted by name then level.
func Members(elements []embodiedcarbon.Element, key Key) []embodiedcarbon.Element {
	var members []embodiedcarbon.Element
	for _, e := range elements {
		if KeyOf(e) == key {
			members = append(members, e)
		}
	}
	SortByNameAndLevel(members)
	return members
}

// SortByNameAndLevel sorts elements in place.
func SortByNameAndLevel(elements []embodiedcarbon.Element) {
	slices.SortStableFunc(elements, func(a, b embodiedcarbon.Element) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Level, b.Level))
	})
}
