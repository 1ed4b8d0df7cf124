package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	embodiedcarbon "github.com/superdango/embodied-carbon"
)

// Options tune how a document is read.
type Options struct {
	// LevelMap renames levels after splitting.
	LevelMap embodiedcarbon.LevelMap
	// Phases lists the construction phases to keep. Empty keeps all,
	// elements without phase are always kept.
	Phases []string
}

func (o Options) includes(phase string) bool {
	if len(o.Phases) == 0 || phase == "" {
		return true
	}
	return slices.ContainsFunc(o.Phases, func(p string) bool {
		return strings.EqualFold(p, phase)
	})
}

// MaterialTypeOf classifies a model material class.
func MaterialTypeOf(class string) embodiedcarbon.MaterialType {
	switch strings.ToUpper(strings.TrimSpace(class)) {
	case "METAL":
		return embodiedcarbon.Steel
	case "WOOD":
		return embodiedcarbon.Timber
	case "CONCRETE", "MASONRY":
		return embodiedcarbon.Concrete
	}
	return embodiedcarbon.Unknown
}

// Read turns a document into a building. Elements that cannot be read are
// reported in Building.Errors and skipped.
func Read(ctx context.Context, doc Document, opts Options) embodiedcarbon.Building {
	building := embodiedcarbon.Building{
		Name:   doc.Name,
		Levels: embodiedcarbon.NewLevelTable(doc.Levels...),
	}

	for i, raw := range doc.Elements {
		if err := ctx.Err(); err != nil {
			building.Errors = append(building.Errors, fmt.Errorf("reading interrupted after %d elements: %w", i, err))
			break
		}

		record := Record{}
		if err := decode(raw, &record); err != nil {
			building.Errors = append(building.Errors, &embodiedcarbon.ElementErr{
				ElementID: fmt.Sprint(raw["id"]),
				Operation: "decode",
				Err:       err,
			})
			continue
		}

		if !opts.includes(record.Phase) {
			slog.Debug("element phase excluded", "element_id", record.ID, "phase", record.Phase)
			continue
		}

		elements, err := readRecord(record, building.Levels, opts.LevelMap)
		if err != nil {
			building.Errors = append(building.Errors, err)
			continue
		}
		building.Elements = append(building.Elements, elements...)
	}

	for _, err := range building.Errors {
		elementErr := new(embodiedcarbon.ElementErr)
		if errors.As(err, &elementErr) {
			slog.Warn("element skipped", "element_id", elementErr.ElementID, "op", elementErr.Operation, "err", elementErr.Err.Error())
			continue
		}
		slog.Warn("building read incomplete", "err", err.Error())
	}

	return building
}

func readRecord(record Record, levels embodiedcarbon.LevelTable, levelMap embodiedcarbon.LevelMap) ([]embodiedcarbon.Element, error) {
	fail := func(op string, err error) error {
		return &embodiedcarbon.ElementErr{ElementID: record.ID, Operation: op, Err: err}
	}

	category, err := embodiedcarbon.ParseCategory(record.Category)
	if err != nil {
		return nil, fail("category", err)
	}

	if record.Volume < 0 || math.IsNaN(record.Volume) || math.IsInf(record.Volume, 0) {
		return nil, fail("volume", fmt.Errorf("invalid volume %v", record.Volume))
	}

	level, levelFound := levels.Find(record.Level)
	if !levelFound || record.Level == "" {
		level = levels.Unknown()
		levelFound = false
		slog.Debug("element has no known level", "element_id", record.ID, "level", record.Level)
	}

	material := Material{}
	if record.Material != nil {
		material = *record.Material
	}

	element := embodiedcarbon.NewElement(
		category,
		record.ID,
		record.Name,
		levelMap.Resolve(level.Name),
		level.Elevation,
		record.Volume,
		material.Name,
		MaterialTypeOf(material.Class),
		material.Density,
	)

	var elements []embodiedcarbon.Element

	if category == embodiedcarbon.Floor {
		element.Area = max(record.Area, 0)
		if record.Deck != nil {
			if deck, ok := extractDeck(&element, *record.Deck); ok {
				elements = append(elements, deck)
			}
		}
	}

	bottom, top, height, splittable := extent(record, category, level, levelFound)
	if !splittable || levels.Len() == 0 {
		return append(elements, element), nil
	}

	fragments := levels.Split(element.Volume, bottom, top, height)
	if len(fragments) == 0 {
		slog.Debug("element not split, kept on its level", "element_id", record.ID, "bottom", bottom, "top", top)
		return append(elements, element), nil
	}

	for _, f := range fragments {
		elements = append(elements, element.AtLevel(levelMap.Resolve(f.Level.Name), f.Level.Elevation, f.Volume))
	}
	return elements, nil
}

// extent returns the vertical extent of the elements split across levels:
// columns by their end points, walls from their base level.
func extent(record Record, category embodiedcarbon.Category, level embodiedcarbon.Level, levelFound bool) (bottom, top, height float64, ok bool) {
	switch {
	case category == embodiedcarbon.Column && record.Extent != nil:
		// an inverted extent has no positive height and is not split
		bottom, top = record.Extent.Bottom, record.Extent.Top
		return bottom, top, top - bottom, true
	case category == embodiedcarbon.Wall && record.Wall != nil && levelFound && record.Wall.UnconnectedHeight > 0:
		bottom = level.Elevation + record.Wall.BaseOffset
		height = record.Wall.UnconnectedHeight
		return bottom, bottom + height, height, true
	}
	return 0, 0, 0, false
}

// extractDeck carves the composite metal deck out of a floor. The concrete
// volume loses half the rib height over the floor area and the deck becomes
// an element of its own, weighed from its unfolded profile.
func extractDeck(floor *embodiedcarbon.Element, deck Deck) (embodiedcarbon.Element, bool) {
	hr, wr, rr, sr, thickness := deck.RibHeight, deck.RibWidth, deck.RibRoot, deck.RibSpacing, deck.Thickness
	density := deck.Material.Density
	if floor.Area <= 0 || sr <= 0 || hr <= 0 || wr <= 0 || rr <= 0 || thickness <= 0 || density <= 0 {
		return embodiedcarbon.Element{}, false
	}

	floor.Volume -= floor.Area * hr / 2

	web := math.Sqrt(math.Pow(hr, 2) + math.Pow((wr-rr)/2, 2))
	flattened := (sr - wr) + rr + 2*web
	psf := flattened * thickness * density / sr
	volume := floor.Area * psf / density

	element := embodiedcarbon.NewElement(
		floor.Category,
		floor.ID,
		deck.Family+" - "+deck.Profile,
		floor.Level,
		floor.LevelElevation,
		volume,
		deck.Material.Name,
		MaterialTypeOf(deck.Material.Class),
		density,
	)
	element.Area = floor.Area

	return element, true
}
