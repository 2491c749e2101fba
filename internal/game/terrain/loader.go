package terrain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// yamlMapFile is the top-level YAML structure for map files.
type yamlMapFile struct {
	Map yamlMap `yaml:"map"`
}

// yamlMap is the YAML representation of a map: one string of tile glyphs per
// row, top row first.
type yamlMap struct {
	Kind string   `yaml:"kind"`
	Rows []string `yaml:"rows"`
}

// LoadMapFile reads and validates a hand-authored YAML map file.
//
// Precondition: path must point to a valid YAML map file.
// Postcondition: Returns a validated map or a non-nil error.
func LoadMapFile(path string) (*world.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file %s: %w", path, err)
	}
	m, err := LoadMapFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading map from %s: %w", path, err)
	}
	return m, nil
}

// LoadMapFromBytes parses and validates a map from YAML bytes.
//
// Postcondition: Returns a validated map or a non-nil error. Rows must all
// have the same width and every glyph must name a known tile.
func LoadMapFromBytes(data []byte) (*world.Map, error) {
	var file yamlMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing map YAML: %w", err)
	}

	var kind world.MapKind
	switch file.Map.Kind {
	case "Overworld", "":
		kind = world.Overworld
	case "Dungeon":
		kind = world.Dungeon
	default:
		return nil, fmt.Errorf("unknown map kind %q", file.Map.Kind)
	}

	rows := file.Map.Rows
	if len(rows) == 0 {
		return nil, fmt.Errorf("map has no rows")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("map row 0 is empty")
	}

	m := world.NewMap(kind, width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("map row %d has width %d, want %d", y, len(row), width)
		}
		for x := 0; x < width; x++ {
			t, ok := world.TileFromGlyph(row[x])
			if !ok {
				return nil, fmt.Errorf("map row %d column %d: unknown glyph %q", y, x, string(row[x]))
			}
			if err := m.SetTile(x, y, t); err != nil {
				return nil, err
			}
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validating map: %w", err)
	}
	return m, nil
}
