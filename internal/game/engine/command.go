// Package engine provides the world engine: the single serialized processor
// that owns and mutates all world state.
package engine

// Command is a request for one state mutation. Commands are applied strictly
// in the order the engine's intake receives them.
type Command interface {
	// PlayerID identifies the player the command acts for.
	PlayerID() string
}

// Join inserts a new player into the world. The engine confirms through
// Reply and then pushes Connected plus a full snapshot to the new session's
// queue, and PlayerJoined to everyone else.
type Join struct {
	ID   string
	Name string
	// Reply receives the join outcome. Must be buffered.
	Reply chan error
}

// Move requests a one-tile move. Dx and Dy must each be in {-1, 0, 1} and
// must not both be zero; anything else is rejected without state change.
type Move struct {
	ID string
	Dx int
	Dy int
}

// EnterDungeon triggers the world-wide dungeon transition. Valid only when
// the issuing player stands on a DungeonEntrance tile.
type EnterDungeon struct {
	ID string
}

// ExitDungeon triggers the world-wide return to the overworld. Valid only
// when the issuing player stands on a DungeonExit tile.
type ExitDungeon struct {
	ID string
}

// SetInventory opens or closes the issuing player's inventory. Purely local
// to that player.
type SetInventory struct {
	ID   string
	Open bool
}

// Chat broadcasts a chat line from the issuing player to everyone.
type Chat struct {
	ID   string
	Text string
}

// Leave removes the player from the world. Sessions submit exactly one
// Leave regardless of how they closed.
type Leave struct {
	ID string
	// Reason records why the session ended, for logging.
	Reason string
}

func (c Join) PlayerID() string         { return c.ID }
func (c Move) PlayerID() string         { return c.ID }
func (c EnterDungeon) PlayerID() string { return c.ID }
func (c ExitDungeon) PlayerID() string  { return c.ID }
func (c SetInventory) PlayerID() string { return c.ID }
func (c Chat) PlayerID() string         { return c.ID }
func (c Leave) PlayerID() string        { return c.ID }
