package world

import "fmt"

// World is the full authoritative server-side state: the overworld map, the
// shared dungeon map when one is active, and all connected players. It is
// owned and mutated only by the engine; it performs no locking of its own.
type World struct {
	overworld *Map
	dungeon   *Map // nil while no dungeon is active
	players   map[string]*Player
	active    MapKind
	turns     uint64
}

// New creates a World with the given overworld map and no players.
//
// Precondition: overworld must be a valid map of kind Overworld.
func New(overworld *Map) (*World, error) {
	if overworld == nil {
		return nil, fmt.Errorf("overworld map is required")
	}
	if overworld.Kind != Overworld {
		return nil, fmt.Errorf("overworld map has kind %s", overworld.Kind)
	}
	if err := overworld.Validate(); err != nil {
		return nil, fmt.Errorf("validating overworld: %w", err)
	}
	return &World{
		overworld: overworld,
		players:   make(map[string]*Player),
		active:    Overworld,
	}, nil
}

// ActiveKind returns the kind of the map all players currently occupy.
func (w *World) ActiveKind() MapKind { return w.active }

// ActiveMap returns the map all players currently occupy.
func (w *World) ActiveMap() *Map {
	if w.active == Dungeon && w.dungeon != nil {
		return w.dungeon
	}
	return w.overworld
}

// Overworld returns the overworld map.
func (w *World) Overworld() *Map { return w.overworld }

// DungeonMap returns the active dungeon map, or nil when none is active.
func (w *World) DungeonMap() *Map { return w.dungeon }

// EnterDungeon installs the shared dungeon map and marks it active. An
// already-active dungeon is kept so that late joiners share the same
// instance.
//
// Precondition: m must be a valid map of kind Dungeon when no dungeon is active.
// Postcondition: Returns the active dungeon map.
func (w *World) EnterDungeon(m *Map) (*Map, error) {
	if w.dungeon == nil {
		if m == nil {
			return nil, fmt.Errorf("dungeon map is required")
		}
		if m.Kind != Dungeon {
			return nil, fmt.Errorf("dungeon map has kind %s", m.Kind)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("validating dungeon: %w", err)
		}
		w.dungeon = m
	}
	w.active = Dungeon
	return w.dungeon, nil
}

// ExitDungeon discards the dungeon map and makes the overworld active.
func (w *World) ExitDungeon() {
	w.dungeon = nil
	w.active = Overworld
}

// AddPlayer inserts a player into the registry.
//
// Postcondition: Returns an error if the id is already registered.
func (w *World) AddPlayer(p *Player) error {
	if _, exists := w.players[p.ID]; exists {
		return fmt.Errorf("player %q already registered", p.ID)
	}
	w.players[p.ID] = p
	return nil
}

// RemovePlayer removes a player from the registry.
//
// Postcondition: Returns an error if the id is not registered.
func (w *World) RemovePlayer(id string) error {
	if _, exists := w.players[id]; !exists {
		return fmt.Errorf("player %q not registered", id)
	}
	delete(w.players, id)
	return nil
}

// Player returns the registered player with the given id.
//
// Postcondition: Returns (player, true) if found, or (nil, false) otherwise.
func (w *World) Player(id string) (*Player, bool) {
	p, ok := w.players[id]
	return p, ok
}

// Players returns the live player registry. Callers must not retain the
// returned map or its values beyond the current engine command.
func (w *World) Players() map[string]*Player { return w.players }

// PlayerCount returns the number of registered players.
func (w *World) PlayerCount() int { return len(w.players) }

// Turns returns the number of successful moves applied so far.
func (w *World) Turns() uint64 { return w.turns }

// CountTurn records one successful move.
func (w *World) CountTurn() { w.turns++ }

// SnapshotPlayers returns deep copies of every registered player, keyed by id.
func (w *World) SnapshotPlayers() map[string]*Player {
	out := make(map[string]*Player, len(w.players))
	for id, p := range w.players {
		out[id] = p.Clone()
	}
	return out
}

// CheckInvariants verifies the global world invariant: every player stands
// on a passable tile of the active map and carries the active map kind.
//
// Postcondition: Returns nil when the invariant holds.
func (w *World) CheckInvariants() error {
	m := w.ActiveMap()
	for id, p := range w.players {
		if p.MapKind != w.active {
			return fmt.Errorf("player %q on map %s while world is on %s", id, p.MapKind, w.active)
		}
		t, ok := m.TileAt(p.X, p.Y)
		if !ok {
			return fmt.Errorf("player %q at unrecorded coordinate (%d,%d)", id, p.X, p.Y)
		}
		if !t.Passable() {
			return fmt.Errorf("player %q standing on impassable %s at (%d,%d)", id, t, p.X, p.Y)
		}
	}
	return nil
}
