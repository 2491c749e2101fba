// Package world provides the authoritative game world model: tiles, maps,
// players, and the movement validator.
package world

import (
	"encoding/json"
	"fmt"
)

// Tile is a single terrain unit. The set of tiles is closed: every tile has
// a fixed display glyph and a passability classification, and both the
// movement validator and the wire codec operate on this one type.
type Tile int

// All tile kinds.
const (
	Floor Tile = iota
	Wall
	Grass
	Tree
	Mountain
	Water
	Road
	Village
	DungeonEntrance
	DungeonExit
)

// Tiles lists every tile kind in declaration order.
var Tiles = []Tile{
	Floor, Wall, Grass, Tree, Mountain, Water,
	Road, Village, DungeonEntrance, DungeonExit,
}

var tileNames = map[Tile]string{
	Floor:           "Floor",
	Wall:            "Wall",
	Grass:           "Grass",
	Tree:            "Tree",
	Mountain:        "Mountain",
	Water:           "Water",
	Road:            "Road",
	Village:         "Village",
	DungeonEntrance: "DungeonEntrance",
	DungeonExit:     "DungeonExit",
}

var tilesByName = func() map[string]Tile {
	m := make(map[string]Tile, len(tileNames))
	for t, n := range tileNames {
		m[n] = t
	}
	return m
}()

// String returns the stable tile name used on the wire.
func (t Tile) String() string {
	if n, ok := tileNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Tile(%d)", int(t))
}

// Glyph returns the single-character display glyph for the tile.
// This is a stable presentation contract shared with clients.
func (t Tile) Glyph() byte {
	switch t {
	case Floor:
		return '.'
	case Wall:
		return '#'
	case Grass:
		return '"'
	case Tree:
		return 'T'
	case Mountain:
		return '^'
	case Water:
		return '~'
	case Road:
		return '+'
	case Village:
		return 'V'
	case DungeonEntrance:
		return 'D'
	case DungeonExit:
		return '<'
	default:
		return '?'
	}
}

// Passable reports whether a player may stand on the tile. The switch is
// exhaustive over the tile enumeration so that a new tile kind forces this
// classification to be revisited.
func (t Tile) Passable() bool {
	switch t {
	case Wall, Mountain, Water:
		return false
	case Floor, Grass, Tree, Road, Village, DungeonEntrance, DungeonExit:
		return true
	default:
		return false
	}
}

// BlockedMessage returns the player-facing text for a move rejected by this
// tile.
//
// Precondition: t must be impassable.
func (t Tile) BlockedMessage() string {
	switch t {
	case Wall:
		return "A wall blocks your path."
	case Mountain:
		return "A mountain blocks your path."
	case Water:
		return "You can't swim across the water."
	default:
		return "Something blocks your path."
	}
}

// TileFromGlyph returns the tile with the given display glyph.
//
// Postcondition: Returns (tile, true) if the glyph is known, or (0, false) otherwise.
func TileFromGlyph(g byte) (Tile, bool) {
	for _, t := range Tiles {
		if t.Glyph() == g {
			return t, true
		}
	}
	return 0, false
}

// TileFromName returns the tile with the given wire name.
//
// Postcondition: Returns (tile, true) if the name is known, or (0, false) otherwise.
func TileFromName(name string) (Tile, bool) {
	t, ok := tilesByName[name]
	return t, ok
}

// MarshalJSON encodes the tile as its stable name.
func (t Tile) MarshalJSON() ([]byte, error) {
	n, ok := tileNames[t]
	if !ok {
		return nil, fmt.Errorf("marshalling unknown tile %d", int(t))
	}
	return json.Marshal(n)
}

// UnmarshalJSON decodes a tile from its stable name.
func (t *Tile) UnmarshalJSON(data []byte) error {
	var n string
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unmarshalling tile: %w", err)
	}
	v, ok := tilesByName[n]
	if !ok {
		return fmt.Errorf("unknown tile name %q", n)
	}
	*t = v
	return nil
}
