package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTile_GlyphTable(t *testing.T) {
	// The glyph table is a stable presentation contract.
	expected := map[Tile]byte{
		Floor:           '.',
		Wall:            '#',
		Grass:           '"',
		Tree:            'T',
		Mountain:        '^',
		Water:           '~',
		Road:            '+',
		Village:         'V',
		DungeonEntrance: 'D',
		DungeonExit:     '<',
	}
	for tile, glyph := range expected {
		assert.Equal(t, glyph, tile.Glyph(), "glyph for %s", tile)
	}
}

func TestTile_Passability(t *testing.T) {
	impassable := map[Tile]bool{Wall: true, Mountain: true, Water: true}
	for _, tile := range Tiles {
		assert.Equal(t, !impassable[tile], tile.Passable(), "passability of %s", tile)
	}
}

func TestTile_BlockedMessage(t *testing.T) {
	assert.Equal(t, "A wall blocks your path.", Wall.BlockedMessage())
	assert.Equal(t, "A mountain blocks your path.", Mountain.BlockedMessage())
	assert.Equal(t, "You can't swim across the water.", Water.BlockedMessage())
}

func TestTileFromGlyph(t *testing.T) {
	for _, tile := range Tiles {
		got, ok := TileFromGlyph(tile.Glyph())
		require.True(t, ok, "glyph %q", string(tile.Glyph()))
		assert.Equal(t, tile, got)
	}
	_, ok := TileFromGlyph('?')
	assert.False(t, ok)
}

func TestTileFromName(t *testing.T) {
	for _, tile := range Tiles {
		got, ok := TileFromName(tile.String())
		require.True(t, ok)
		assert.Equal(t, tile, got)
	}
	_, ok := TileFromName("Lava")
	assert.False(t, ok)
}

func TestPropertyTileJSONRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		idx := rapid.IntRange(0, len(Tiles)-1).Draw(t, "tile_idx")
		tile := Tiles[idx]

		data, err := json.Marshal(tile)
		require.NoError(t, err)

		var got Tile
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, tile, got)
	})
}

func TestTile_UnmarshalUnknownName(t *testing.T) {
	var tile Tile
	assert.Error(t, json.Unmarshal([]byte(`"Lava"`), &tile))
	assert.Error(t, json.Unmarshal([]byte(`42`), &tile))
}
