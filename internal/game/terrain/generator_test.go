package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

func testConfig() Config {
	return Config{
		OverworldWidth:  60,
		OverworldHeight: 30,
		DungeonWidth:    80,
		DungeonHeight:   50,
		OverworldSpawn:  world.Coord{X: 30, Y: 15},
		DungeonSpawn:    world.Coord{X: 10, Y: 10},
		Seed:            42,
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewGenerator(testConfig(), logger)
	require.NoError(t, err)

	bad := testConfig()
	bad.OverworldWidth = 0
	_, err = NewGenerator(bad, logger)
	assert.Error(t, err)

	bad = testConfig()
	bad.OverworldSpawn = world.Coord{X: 60, Y: 15}
	_, err = NewGenerator(bad, logger)
	assert.Error(t, err)

	bad = testConfig()
	bad.DungeonSpawn = world.Coord{X: -1, Y: 0}
	_, err = NewGenerator(bad, logger)
	assert.Error(t, err)
}

func TestGenerate_OverworldInvariants(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenerator(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	m, err := g.Generate(world.Overworld)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, world.Overworld, m.Kind)
	assert.Equal(t, cfg.OverworldWidth, m.Width)
	assert.Equal(t, cfg.OverworldHeight, m.Height)

	// Every coordinate is recorded.
	assert.Len(t, m.Tiles, cfg.OverworldWidth*cfg.OverworldHeight)

	// The spawn and its neighborhood are passable.
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			tile, ok := m.TileAt(cfg.OverworldSpawn.X+dx, cfg.OverworldSpawn.Y+dy)
			require.True(t, ok)
			assert.True(t, tile.Passable(), "spawn neighbor (%d,%d) is %s", dx, dy, tile)
		}
	}

	assert.NotEmpty(t, m.Find(world.DungeonEntrance), "overworld must have a dungeon entrance")
	assert.NotEmpty(t, m.Find(world.Village))
}

func TestGenerate_DungeonInvariants(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenerator(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	m, err := g.Generate(world.Dungeon)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, world.Dungeon, m.Kind)
	assert.Len(t, m.Tiles, cfg.DungeonWidth*cfg.DungeonHeight)

	// The exit sits on the spawn coordinate itself.
	tile, ok := m.TileAt(cfg.DungeonSpawn.X, cfg.DungeonSpawn.Y)
	require.True(t, ok)
	assert.Equal(t, world.DungeonExit, tile)
	assert.True(t, tile.Passable())

	// The outer wall is intact.
	for x := 0; x < m.Width; x++ {
		top, _ := m.TileAt(x, 0)
		bottom, _ := m.TileAt(x, m.Height-1)
		assert.Equal(t, world.Wall, top)
		assert.Equal(t, world.Wall, bottom)
	}
	for y := 0; y < m.Height; y++ {
		left, _ := m.TileAt(0, y)
		right, _ := m.TileAt(m.Width-1, y)
		assert.Equal(t, world.Wall, left)
		assert.Equal(t, world.Wall, right)
	}
}

func TestGenerate_SeedDeterminism(t *testing.T) {
	g, err := NewGenerator(testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	for _, kind := range []world.MapKind{world.Overworld, world.Dungeon} {
		a, err := g.Generate(kind)
		require.NoError(t, err)
		b, err := g.Generate(kind)
		require.NoError(t, err)
		assert.Equal(t, a.Tiles, b.Tiles, "same seed must reproduce the %s map", kind)
	}
}

func TestGenerate_DistinctSeeds(t *testing.T) {
	cfg := testConfig()
	ga, err := NewGenerator(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	cfg.Seed = 43
	gb, err := NewGenerator(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	a, err := ga.Generate(world.Overworld)
	require.NoError(t, err)
	b, err := gb.Generate(world.Overworld)
	require.NoError(t, err)
	assert.NotEqual(t, a.Tiles, b.Tiles)
}

func TestPropertyGenerateSpawnsAlwaysPassable(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := Config{
			OverworldWidth:  rapid.IntRange(12, 80).Draw(t, "ow"),
			OverworldHeight: rapid.IntRange(12, 60).Draw(t, "oh"),
			DungeonWidth:    rapid.IntRange(12, 80).Draw(t, "dw"),
			DungeonHeight:   rapid.IntRange(12, 60).Draw(t, "dh"),
			Seed:            rapid.Int64Range(1, 1<<40).Draw(t, "seed"),
		}
		cfg.OverworldSpawn = world.Coord{
			X: rapid.IntRange(0, cfg.OverworldWidth-1).Draw(t, "osx"),
			Y: rapid.IntRange(0, cfg.OverworldHeight-1).Draw(t, "osy"),
		}
		cfg.DungeonSpawn = world.Coord{
			X: rapid.IntRange(1, cfg.DungeonWidth-2).Draw(t, "dsx"),
			Y: rapid.IntRange(1, cfg.DungeonHeight-2).Draw(t, "dsy"),
		}

		g, err := NewGenerator(cfg, zaptest.NewLogger(t))
		require.NoError(t, err)

		ow, err := g.Generate(world.Overworld)
		require.NoError(t, err)
		tile, ok := ow.TileAt(cfg.OverworldSpawn.X, cfg.OverworldSpawn.Y)
		require.True(t, ok)
		assert.True(t, tile.Passable())
		assert.NotEmpty(t, ow.Find(world.DungeonEntrance))

		d, err := g.Generate(world.Dungeon)
		require.NoError(t, err)
		tile, ok = d.TileAt(cfg.DungeonSpawn.X, cfg.DungeonSpawn.Y)
		require.True(t, ok)
		assert.Equal(t, world.DungeonExit, tile)
	})
}
