// Package demo generates a fictive building, used to try the estimation
// without a structural model.
package demo

import (
	"context"
	"fmt"
	"math/rand/v2"

	embodiedcarbon "github.com/superdango/embodied-carbon"
	"github.com/superdango/embodied-carbon/internal/ingest"
)

const storyHeight = 12.0

// Building implements ingest.Source. The same seed always yields the same
// building.
type Building struct {
	name    string
	stories int
	seed    uint64
}

type Option func(b *Building)

func WithStories(n int) Option {
	return func(b *Building) {
		b.stories = max(n, 1)
	}
}

func WithSeed(seed uint64) Option {
	return func(b *Building) {
		b.seed = seed
	}
}

// NewBuilding returns a five story demo building.
func NewBuilding(opts ...Option) *Building {
	b := &Building{name: "Demo Tower", stories: 5, seed: 2923}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Document implements ingest.Source.
func (b *Building) Document(ctx context.Context) (ingest.Document, error) {
	rnd := rand.New(rand.NewPCG(b.seed, b.seed))
	// noise returns v varied by up to 10%
	noise := func(v float64) float64 {
		return v * (0.9 + rnd.Float64()*0.2)
	}

	doc := ingest.Document{Name: b.name}
	for i := range b.stories {
		doc.Levels = append(doc.Levels, embodiedcarbon.Level{Name: fmt.Sprintf("Level %d", i+1), Elevation: float64(i) * storyHeight})
	}
	roof := float64(b.stories) * storyHeight
	doc.Levels = append(doc.Levels, embodiedcarbon.Level{Name: "Roof", Elevation: roof})

	id := 0
	add := func(element map[string]any) {
		id++
		element["id"] = fmt.Sprint(id)
		element["phase"] = "New Construction"
		doc.Elements = append(doc.Elements, element)
	}
	material := func(name, class string, density float64) map[string]any {
		return map[string]any{"name": name, "class": class, "density": density}
	}

	for i := range 4 {
		add(map[string]any{
			"name":     fmt.Sprintf("Spread Footing F%d", i+1),
			"category": "Foundation",
			"level":    "Level 1",
			"volume":   noise(480),
			"material": material("Concrete 4000 psi", "Concrete", 150),
		})
	}

	for i, level := range doc.Levels[:b.stories] {
		// columns are spliced every other story
		if i%2 == 0 {
			top := min(level.Elevation+2*storyHeight, roof)
			for c := range 4 {
				add(map[string]any{
					"name":     fmt.Sprintf("Column C%d", c+1),
					"category": "Column",
					"level":    level.Name,
					"volume":   4 * (top - level.Elevation),
					"material": material("Concrete 8000 psi", "Concrete", 150),
					"extent":   map[string]any{"bottom": level.Elevation, "top": top},
				})
			}
		}

		for w := range 2 {
			add(map[string]any{
				"name":     fmt.Sprintf("Core Wall W%d", w+1),
				"category": "Wall",
				"level":    level.Name,
				"volume":   noise(20 * storyHeight),
				"material": material("Concrete 6000 psi", "Concrete", 150),
				"wall":     map[string]any{"base_offset": 0.0, "unconnected_height": storyHeight},
			})
		}

		above := doc.Levels[i+1]
		area := noise(5000)
		add(map[string]any{
			"name":     fmt.Sprintf("Composite Slab %s", above.Name),
			"category": "Floor",
			"level":    above.Name,
			"area":     area,
			"volume":   area * 0.5,
			"material": material("Lightweight Concrete", "Concrete", 115),
			"deck": map[string]any{
				"family":    "Composite Metal Deck",
				"profile":   "3VLI20",
				"hr":        0.25,
				"wr":        0.5,
				"rr":        0.375,
				"sr":        1.0,
				"thickness": 0.003,
				"material":  material("Metal Deck", "Metal", 490),
			},
		})

		for beam := range 12 {
			add(map[string]any{
				"name":     fmt.Sprintf("W16X26 B%d", beam+1),
				"category": "Framing",
				"level":    above.Name,
				"volume":   noise(26.0 * 30 / 490),
				"material": material("Steel ASTM A992", "Metal", 490),
			})
		}
		add(map[string]any{
			"name":     "HSS6X6X3/8 Brace",
			"category": "Framing",
			"level":    above.Name,
			"volume":   noise(27.5 * 20 / 490),
			"material": material("Steel ASTM A500, Grade B, Rectangular", "Metal", 490),
		})
	}

	for beam := range 6 {
		add(map[string]any{
			"name":     fmt.Sprintf("Roof Glulam GL%d", beam+1),
			"category": "Framing",
			"level":    "Roof",
			"volume":   noise(12),
			"material": material("Glulam Douglas Fir", "Wood", 35),
		})
	}
	// a canopy without resolved material is only accounted as Unknown
	add(map[string]any{
		"name":     "Entrance Canopy",
		"category": "Framing",
		"level":    "Level 1",
		"volume":   8.0,
		"material": material("Canopy Finish", "Generic", 0),
	})

	return doc, ctx.Err()
}
