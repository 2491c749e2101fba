package world

// MoveVerdict is the result of validating a candidate destination.
type MoveVerdict struct {
	// Allowed reports whether the destination may be occupied.
	Allowed bool
	// OutOfBounds reports a destination outside the map's recorded tiles.
	OutOfBounds bool
	// Obstruction is the impassable tile blocking the move. Meaningful only
	// when Allowed and OutOfBounds are both false.
	Obstruction Tile
}

// CheckMove validates the candidate destination (x, y) on the given map.
// The boundary check precedes the tile check, and only the destination tile
// is evaluated; diagonal moves are not required to have passable orthogonal
// neighbors.
//
// Postcondition: Exactly one of Allowed, OutOfBounds, or a Blocked verdict
// (with Obstruction set) is reported.
func CheckMove(m *Map, x, y int) MoveVerdict {
	t, ok := m.TileAt(x, y)
	if !ok {
		return MoveVerdict{OutOfBounds: true}
	}
	if !t.Passable() {
		return MoveVerdict{Obstruction: t}
	}
	return MoveVerdict{Allowed: true}
}
