package world

// Player is a connected player's authoritative state. Player values are
// owned exclusively by the World; everything that leaves the engine is a
// copy made by Snapshot or Clone.
type Player struct {
	// ID is the opaque unique player identifier.
	ID string
	// Name is the display name given at connect time.
	Name string
	// X, Y is the player's position on the map identified by MapKind.
	X int
	Y int
	// MapKind identifies which map the player currently occupies.
	MapKind MapKind
	// InventoryOpen reports whether the player's inventory screen is open.
	InventoryOpen bool
}

// Clone returns a copy of the player.
func (p *Player) Clone() *Player {
	cp := *p
	return &cp
}
