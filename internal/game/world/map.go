package world

import (
	"encoding/json"
	"fmt"
)

// MapKind identifies which of the two world maps a map or player belongs to.
type MapKind int

// The two map kinds.
const (
	Overworld MapKind = iota
	Dungeon
)

// String returns the stable kind name used on the wire.
func (k MapKind) String() string {
	switch k {
	case Overworld:
		return "Overworld"
	case Dungeon:
		return "Dungeon"
	default:
		return fmt.Sprintf("MapKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind as its stable name.
func (k MapKind) MarshalJSON() ([]byte, error) {
	switch k {
	case Overworld, Dungeon:
		return json.Marshal(k.String())
	default:
		return nil, fmt.Errorf("marshalling unknown map kind %d", int(k))
	}
}

// UnmarshalJSON decodes a kind from its stable name.
func (k *MapKind) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshalling map kind: %w", err)
	}
	switch n {
	case "Overworld":
		*k = Overworld
	case "Dungeon":
		*k = Dungeon
	default:
		return fmt.Errorf("unknown map kind %q", n)
	}
	return nil
}

// Coord is an integer grid coordinate.
type Coord struct {
	X int
	Y int
}

// Map is a bounded grid of tiles of a given kind.
// Every recorded coordinate satisfies 0 <= x < Width, 0 <= y < Height;
// a lookup outside the recorded tiles reports absence rather than a default.
type Map struct {
	Kind   MapKind
	Width  int
	Height int
	Tiles  map[Coord]Tile
}

// NewMap creates an empty map of the given kind and dimensions.
//
// Precondition: width and height must be positive.
func NewMap(kind MapKind, width, height int) *Map {
	return &Map{
		Kind:   kind,
		Width:  width,
		Height: height,
		Tiles:  make(map[Coord]Tile, width*height),
	}
}

// TileAt returns the tile at (x, y).
//
// Postcondition: Returns (tile, true) when the coordinate is recorded, or
// (0, false) when it is out of bounds or unrecorded.
func (m *Map) TileAt(x, y int) (Tile, bool) {
	t, ok := m.Tiles[Coord{X: x, Y: y}]
	return t, ok
}

// SetTile records the tile at (x, y).
//
// Precondition: (x, y) must lie within the map bounds.
// Postcondition: Returns an error if the coordinate is out of bounds.
func (m *Map) SetTile(x, y int, t Tile) error {
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return fmt.Errorf("tile (%d,%d) outside %dx%d map", x, y, m.Width, m.Height)
	}
	m.Tiles[Coord{X: x, Y: y}] = t
	return nil
}

// Find returns the coordinates of every tile of the given kind.
func (m *Map) Find(t Tile) []Coord {
	var coords []Coord
	for c, v := range m.Tiles {
		if v == t {
			coords = append(coords, c)
		}
	}
	return coords
}

// Validate checks the map invariants: every recorded coordinate is in bounds.
//
// Postcondition: Returns nil if the map is well-formed.
func (m *Map) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("map dimensions must be positive, got %dx%d", m.Width, m.Height)
	}
	for c := range m.Tiles {
		if c.X < 0 || c.X >= m.Width || c.Y < 0 || c.Y >= m.Height {
			return fmt.Errorf("tile (%d,%d) outside %dx%d map", c.X, c.Y, m.Width, m.Height)
		}
	}
	return nil
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	cp := NewMap(m.Kind, m.Width, m.Height)
	for c, t := range m.Tiles {
		cp.Tiles[c] = t
	}
	return cp
}
