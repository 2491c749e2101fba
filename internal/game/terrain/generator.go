// Package terrain generates the overworld and dungeon maps. The rest of the
// server treats generation as a black box behind the engine's Generator
// interface.
package terrain

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Config holds generation parameters.
type Config struct {
	// OverworldWidth, OverworldHeight are the overworld dimensions.
	OverworldWidth  int
	OverworldHeight int
	// DungeonWidth, DungeonHeight are the dungeon dimensions.
	DungeonWidth  int
	DungeonHeight int
	// OverworldSpawn is the fixed overworld spawn coordinate. The generator
	// guarantees it and its neighbors are passable.
	OverworldSpawn world.Coord
	// DungeonSpawn is the fixed dungeon spawn coordinate. The generator
	// places the dungeon exit tile there.
	DungeonSpawn world.Coord
	// Seed makes generation deterministic when non-zero.
	Seed int64
	// MapFile optionally replaces the procedural overworld with a
	// hand-authored YAML map file.
	MapFile string
}

// Generator produces maps per the configured parameters.
type Generator struct {
	cfg    Config
	logger *zap.Logger
}

// NewGenerator creates a Generator.
//
// Precondition: cfg dimensions must be positive and spawns in bounds; logger must be non-nil.
// Postcondition: Returns a Generator or a non-nil error describing the first violation.
func NewGenerator(cfg Config, logger *zap.Logger) (*Generator, error) {
	if cfg.OverworldWidth <= 0 || cfg.OverworldHeight <= 0 {
		return nil, fmt.Errorf("overworld dimensions must be positive, got %dx%d", cfg.OverworldWidth, cfg.OverworldHeight)
	}
	if cfg.DungeonWidth <= 0 || cfg.DungeonHeight <= 0 {
		return nil, fmt.Errorf("dungeon dimensions must be positive, got %dx%d", cfg.DungeonWidth, cfg.DungeonHeight)
	}
	if !inBounds(cfg.OverworldSpawn, cfg.OverworldWidth, cfg.OverworldHeight) {
		return nil, fmt.Errorf("overworld spawn (%d,%d) outside %dx%d map",
			cfg.OverworldSpawn.X, cfg.OverworldSpawn.Y, cfg.OverworldWidth, cfg.OverworldHeight)
	}
	if !inBounds(cfg.DungeonSpawn, cfg.DungeonWidth, cfg.DungeonHeight) {
		return nil, fmt.Errorf("dungeon spawn (%d,%d) outside %dx%d map",
			cfg.DungeonSpawn.X, cfg.DungeonSpawn.Y, cfg.DungeonWidth, cfg.DungeonHeight)
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Generate produces a map of the requested kind.
//
// Postcondition: The returned map validates, its spawn coordinate is
// passable, and (for the overworld) at least one DungeonEntrance exists.
func (g *Generator) Generate(kind world.MapKind) (*world.Map, error) {
	start := time.Now()

	seed := g.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var m *world.Map
	var err error
	switch kind {
	case world.Overworld:
		if g.cfg.MapFile != "" {
			m, err = LoadMapFile(g.cfg.MapFile)
		} else {
			m, err = g.generateOverworld(rng)
		}
	case world.Dungeon:
		m, err = g.generateDungeon(rng)
	default:
		return nil, fmt.Errorf("unknown map kind %s", kind)
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("generated %s map invalid: %w", kind, err)
	}

	g.logger.Info("map generated",
		zap.String("kind", kind.String()),
		zap.Int("width", m.Width),
		zap.Int("height", m.Height),
		zap.Duration("elapsed", time.Since(start)),
	)
	return m, nil
}

// generateOverworld builds the overworld in layers: a grass field, tree
// scatter, mountain ridges, a meandering river, a village, a dungeon
// entrance, and a road joining village to entrance. The spawn area is
// cleared last so the spawn is always passable.
func (g *Generator) generateOverworld(rng *rand.Rand) (*world.Map, error) {
	w, h := g.cfg.OverworldWidth, g.cfg.OverworldHeight
	m := world.NewMap(world.Overworld, w, h)

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			t := world.Grass
			if rng.Float64() < 0.12 {
				t = world.Tree
			}
			if err := m.SetTile(x, y, t); err != nil {
				return nil, err
			}
		}
	}

	g.paintRidges(m, rng)
	g.paintRiver(m, rng)

	spawn := g.cfg.OverworldSpawn
	village := g.placeOn(m, rng, world.Grass, world.Village, spawn, 4)
	entrance := g.placeOn(m, rng, world.Grass, world.DungeonEntrance, spawn, 2)
	g.paintRoad(m, village, entrance)

	// Clear the spawn neighborhood after every layer has painted.
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			x, y := spawn.X+dx, spawn.Y+dy
			if x >= 0 && x < w && y >= 0 && y < h {
				_ = m.SetTile(x, y, world.Grass)
			}
		}
	}
	return m, nil
}

// paintRidges draws a few mountain random walks.
func (g *Generator) paintRidges(m *world.Map, rng *rand.Rand) {
	ridges := m.Width/20 + 1
	for i := 0; i < ridges; i++ {
		x, y := rng.Intn(m.Width), rng.Intn(m.Height)
		length := 4 + rng.Intn(m.Width/4+1)
		for step := 0; step < length; step++ {
			if x >= 0 && x < m.Width && y >= 0 && y < m.Height {
				_ = m.SetTile(x, y, world.Mountain)
			}
			x += rng.Intn(3) - 1
			y += rng.Intn(3) - 1
		}
	}
}

// paintRiver flows one river from the top edge to the bottom, meandering
// sideways and skipping mountains, as the original generator did.
func (g *Generator) paintRiver(m *world.Map, rng *rand.Rand) {
	x := rng.Intn(m.Width)
	for y := 0; y < m.Height; y++ {
		if t, ok := m.TileAt(x, y); ok && t != world.Mountain {
			_ = m.SetTile(x, y, world.Water)
		}
		x += rng.Intn(3) - 1
		if x < 0 {
			x = 0
		}
		if x >= m.Width {
			x = m.Width - 1
		}
	}
}

// placeOn finds a tile of kind base at least minDist tiles from spawn and
// replaces it with mark, falling back to a fixed offset from spawn when the
// search fails. Returns the chosen coordinate.
func (g *Generator) placeOn(m *world.Map, rng *rand.Rand, base, mark world.Tile, spawn world.Coord, minDist int) world.Coord {
	for attempt := 0; attempt < 200; attempt++ {
		c := world.Coord{X: rng.Intn(m.Width), Y: rng.Intn(m.Height)}
		if abs(c.X-spawn.X) < minDist && abs(c.Y-spawn.Y) < minDist {
			continue
		}
		if t, ok := m.TileAt(c.X, c.Y); ok && t == base {
			_ = m.SetTile(c.X, c.Y, mark)
			return c
		}
	}
	c := world.Coord{X: clamp(spawn.X+minDist, 0, m.Width-1), Y: clamp(spawn.Y, 0, m.Height-1)}
	_ = m.SetTile(c.X, c.Y, mark)
	return c
}

// paintRoad draws a Bresenham line of Road tiles between two points,
// skipping the endpoints, water, and mountains.
func (g *Generator) paintRoad(m *world.Map, from, to world.Coord) {
	dx, dy := abs(to.X-from.X), abs(to.Y-from.Y)
	sx, sy := 1, 1
	if from.X > to.X {
		sx = -1
	}
	if from.Y > to.Y {
		sy = -1
	}
	err := dx - dy

	x, y := from.X, from.Y
	for {
		if (x != from.X || y != from.Y) && (x != to.X || y != to.Y) {
			if t, ok := m.TileAt(x, y); ok && t != world.Water && t != world.Mountain {
				_ = m.SetTile(x, y, world.Road)
			}
		}
		if x == to.X && y == to.Y {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// generateDungeon fills the map with walls and carves rectangular rooms
// joined by L-shaped corridors. The first room surrounds the dungeon spawn
// and the exit tile sits on the spawn coordinate itself.
func (g *Generator) generateDungeon(rng *rand.Rand) (*world.Map, error) {
	w, h := g.cfg.DungeonWidth, g.cfg.DungeonHeight
	m := world.NewMap(world.Dungeon, w, h)

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if err := m.SetTile(x, y, world.Wall); err != nil {
				return nil, err
			}
		}
	}

	spawn := g.cfg.DungeonSpawn
	rooms := []rect{roomAround(spawn, w, h)}
	roomCount := 3 + rng.Intn(3)
	for i := 0; i < roomCount; i++ {
		rw := 5 + rng.Intn(7)
		rh := 4 + rng.Intn(5)
		if w-rw-2 <= 1 || h-rh-2 <= 1 {
			continue
		}
		rooms = append(rooms, rect{
			x: 1 + rng.Intn(w-rw-2),
			y: 1 + rng.Intn(h-rh-2),
			w: rw,
			h: rh,
		})
	}

	for _, r := range rooms {
		g.carveRoom(m, r)
	}
	for i := 1; i < len(rooms); i++ {
		g.carveCorridor(m, rooms[i-1].center(), rooms[i].center())
	}

	_ = m.SetTile(spawn.X, spawn.Y, world.DungeonExit)
	return m, nil
}

type rect struct {
	x, y, w, h int
}

func (r rect) center() world.Coord {
	return world.Coord{X: r.x + r.w/2, Y: r.y + r.h/2}
}

// roomAround builds the spawn room, clipped to leave the outer wall intact.
func roomAround(spawn world.Coord, mapW, mapH int) rect {
	x := clamp(spawn.X-4, 1, mapW-2)
	y := clamp(spawn.Y-3, 1, mapH-2)
	return rect{
		x: x,
		y: y,
		w: clamp(9, 1, mapW-1-x),
		h: clamp(7, 1, mapH-1-y),
	}
}

func (g *Generator) carveRoom(m *world.Map, r rect) {
	for x := r.x; x < r.x+r.w; x++ {
		for y := r.y; y < r.y+r.h; y++ {
			if x > 0 && x < m.Width-1 && y > 0 && y < m.Height-1 {
				_ = m.SetTile(x, y, world.Floor)
			}
		}
	}
}

// carveCorridor cuts an L-shaped floor corridor, horizontal leg first.
func (g *Generator) carveCorridor(m *world.Map, from, to world.Coord) {
	x, y := from.X, from.Y
	for x != to.X {
		if x < to.X {
			x++
		} else {
			x--
		}
		if x > 0 && x < m.Width-1 && y > 0 && y < m.Height-1 {
			_ = m.SetTile(x, y, world.Floor)
		}
	}
	for y != to.Y {
		if y < to.Y {
			y++
		} else {
			y--
		}
		if x > 0 && x < m.Width-1 && y > 0 && y < m.Height-1 {
			_ = m.SetTile(x, y, world.Floor)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func inBounds(c world.Coord, w, h int) bool {
	return c.X >= 0 && c.X < w && c.Y >= 0 && c.Y < h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
