package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// EncodeCoord renders an integer coordinate pair as an "x,y" string key.
// JSON object keys must be strings, so coordinate-keyed tile maps are
// serialized through this encoding rather than a composite key.
func EncodeCoord(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}

// DecodeCoord parses an "x,y" string key back to an integer pair.
//
// Postcondition: Returns the coordinates, or a non-nil error for any input
// not produced by EncodeCoord.
func DecodeCoord(key string) (x, y int, err error) {
	left, right, ok := strings.Cut(key, ",")
	if !ok {
		return 0, 0, fmt.Errorf("coordinate key %q: missing separator", key)
	}
	x, err = strconv.Atoi(left)
	if err != nil {
		return 0, 0, fmt.Errorf("coordinate key %q: %w", key, err)
	}
	y, err = strconv.Atoi(right)
	if err != nil {
		return 0, 0, fmt.Errorf("coordinate key %q: %w", key, err)
	}
	return x, y, nil
}

// EncodeMap converts a world map to its wire form with string-keyed tiles.
func EncodeMap(m *world.Map) WireMap {
	tiles := make(map[string]world.Tile, len(m.Tiles))
	for c, t := range m.Tiles {
		tiles[EncodeCoord(c.X, c.Y)] = t
	}
	return WireMap{Width: m.Width, Height: m.Height, Tiles: tiles}
}

// DecodeMap converts a wire map of the given kind back to a world map.
//
// Postcondition: Returns a validated map, or a non-nil error when a tile key
// does not parse or lies outside the declared dimensions.
func DecodeMap(wm WireMap, kind world.MapKind) (*world.Map, error) {
	m := world.NewMap(kind, wm.Width, wm.Height)
	for key, t := range wm.Tiles {
		x, y, err := DecodeCoord(key)
		if err != nil {
			return nil, err
		}
		if err := m.SetTile(x, y, t); err != nil {
			return nil, err
		}
	}
	return m, nil
}
