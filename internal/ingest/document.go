// Package ingest reads building documents exported from a structural model
// and turns them into elements ready for the estimation.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	embodiedcarbon "github.com/superdango/embodied-carbon"
)

// Document is a decoded building document. Elements stay generic until
// read so a malformed element only discards itself.
type Document struct {
	Name     string                 `mapstructure:"name"`
	Levels   []embodiedcarbon.Level `mapstructure:"levels"`
	Elements []map[string]any       `mapstructure:"elements"`
}

// Material is the structural material of an element.
type Material struct {
	Name string `mapstructure:"name"`
	// Class is the material class of the model (Metal, Wood, Concrete...).
	Class   string  `mapstructure:"class"`
	Density float64 `mapstructure:"density"`
}

// Extent is the vertical extent of a column, from its curve end points.
type Extent struct {
	Bottom float64 `mapstructure:"bottom"`
	Top    float64 `mapstructure:"top"`
}

// WallExtent locates a wall relative to its base constraint, which is the
// element level.
type WallExtent struct {
	BaseOffset        float64 `mapstructure:"base_offset"`
	UnconnectedHeight float64 `mapstructure:"unconnected_height"`
}

// Deck is the composite metal deck layer of a floor. Dimensions are in ft.
type Deck struct {
	Family     string   `mapstructure:"family"`
	Profile    string   `mapstructure:"profile"`
	RibHeight  float64  `mapstructure:"hr"`
	RibWidth   float64  `mapstructure:"wr"`
	RibRoot    float64  `mapstructure:"rr"`
	RibSpacing float64  `mapstructure:"sr"`
	Thickness  float64  `mapstructure:"thickness"`
	Material   Material `mapstructure:"material"`
}

// Record is one element of a document.
type Record struct {
	ID       string      `mapstructure:"id"`
	Name     string      `mapstructure:"name"`
	Category string      `mapstructure:"category"`
	Level    string      `mapstructure:"level"`
	Phase    string      `mapstructure:"phase"`
	Volume   float64     `mapstructure:"volume"`
	Area     float64     `mapstructure:"area"`
	Material *Material   `mapstructure:"material"`
	Extent   *Extent     `mapstructure:"extent"`
	Wall     *WallExtent `mapstructure:"wall"`
	Deck     *Deck       `mapstructure:"deck"`
}

// Format of a document.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf guesses the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported building document extension %q", filepath.Ext(path))
}

// Decode parses a document.
func Decode(r io.Reader, format Format) (Document, error) {
	raw := make(map[string]any)
	switch format {
	case JSON:
		if err := json.NewDecoder(r).Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("failed to decode json building document: %w", err)
		}
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("failed to decode yaml building document: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("unsupported building document format %q", format)
	}

	doc := Document{}
	if err := decode(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid building document: %w", err)
	}
	return doc, nil
}

func decode(input any, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Source provides the document of a building.
type Source interface {
	Document(ctx context.Context) (Document, error)
}

// Load reads the document of src.
func Load(ctx context.Context, src Source, opts Options) (embodiedcarbon.Building, error) {
	doc, err := src.Document(ctx)
	if err != nil {
		return embodiedcarbon.Building{}, err
	}
	return Read(ctx, doc, opts), nil
}

// File is a building document on disk, in JSON or YAML.
type File struct {
	Path string
}

// Document implements Source. The building is named after the file when
// the document has no name.
func (f File) Document(ctx context.Context) (Document, error) {
	format, err := FormatOf(f.Path)
	if err != nil {
		return Document{}, err
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open building document: %w", err)
	}
	defer file.Close()

	doc, err := Decode(file, format)
	if err != nil {
		return Document{}, err
	}

	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
	}

	return doc, nil
}
