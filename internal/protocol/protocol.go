// Package protocol defines the wire messages exchanged with clients and the
// codec that (de)serializes them. Every frame is a self-describing JSON
// object carrying a "type" discriminator.
package protocol

import (
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Client-to-server message types.
const (
	TypeConnect        = "connect"
	TypeMove           = "move"
	TypeEnterDungeon   = "enter_dungeon"
	TypeExitDungeon    = "exit_dungeon"
	TypeOpenInventory  = "open_inventory"
	TypeCloseInventory = "close_inventory"
	TypeChat           = "chat"
	TypeDisconnect     = "disconnect"
)

// Server-to-client message types.
const (
	TypeConnected    = "connected"
	TypeGameState    = "game_state"
	TypePlayerMoved  = "player_moved"
	TypePlayerJoined = "player_joined"
	TypePlayerLeft   = "player_left"
	TypeError        = "error"
	TypeMessage      = "message"
	TypeChatMessage  = "chat_message"
)

// ClientMessage is implemented by every client-to-server message.
type ClientMessage interface {
	clientMessage()
}

// ServerMessage is implemented by every server-to-client message.
type ServerMessage interface {
	serverMessage()
}

// Connect opens a session; it must be the first frame a client sends.
type Connect struct {
	Type       string `json:"type"`
	PlayerName string `json:"player_name"`
}

// Move requests a one-tile move by (dx, dy), each in {-1, 0, 1}.
type Move struct {
	Type string `json:"type"`
	Dx   int    `json:"dx"`
	Dy   int    `json:"dy"`
}

// EnterDungeon requests the world-wide dungeon transition. The issuing
// player must stand on a DungeonEntrance tile.
type EnterDungeon struct {
	Type string `json:"type"`
}

// ExitDungeon requests the world-wide return to the overworld. The issuing
// player must stand on a DungeonExit tile.
type ExitDungeon struct {
	Type string `json:"type"`
}

// OpenInventory marks the player's inventory as open.
type OpenInventory struct {
	Type string `json:"type"`
}

// CloseInventory marks the player's inventory as closed.
type CloseInventory struct {
	Type string `json:"type"`
}

// Chat broadcasts a chat line to every connected player.
type Chat struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Disconnect cleanly ends the session.
type Disconnect struct {
	Type string `json:"type"`
}

func (Connect) clientMessage()        {}
func (Move) clientMessage()           {}
func (EnterDungeon) clientMessage()   {}
func (ExitDungeon) clientMessage()    {}
func (OpenInventory) clientMessage()  {}
func (CloseInventory) clientMessage() {}
func (Chat) clientMessage()           {}
func (Disconnect) clientMessage()     {}

// NewConnect builds a Connect frame.
func NewConnect(playerName string) Connect {
	return Connect{Type: TypeConnect, PlayerName: playerName}
}

// NewMove builds a Move frame.
func NewMove(dx, dy int) Move {
	return Move{Type: TypeMove, Dx: dx, Dy: dy}
}

// NewEnterDungeon builds an EnterDungeon frame.
func NewEnterDungeon() EnterDungeon { return EnterDungeon{Type: TypeEnterDungeon} }

// NewExitDungeon builds an ExitDungeon frame.
func NewExitDungeon() ExitDungeon { return ExitDungeon{Type: TypeExitDungeon} }

// NewOpenInventory builds an OpenInventory frame.
func NewOpenInventory() OpenInventory { return OpenInventory{Type: TypeOpenInventory} }

// NewCloseInventory builds a CloseInventory frame.
func NewCloseInventory() CloseInventory { return CloseInventory{Type: TypeCloseInventory} }

// NewChat builds a Chat frame.
func NewChat(message string) Chat {
	return Chat{Type: TypeChat, Message: message}
}

// NewDisconnect builds a Disconnect frame.
func NewDisconnect() Disconnect { return Disconnect{Type: TypeDisconnect} }

// WirePlayer is a player as serialized inside GameState.
type WirePlayer struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	X             int           `json:"x"`
	Y             int           `json:"y"`
	MapKind       world.MapKind `json:"map_kind"`
	InventoryOpen bool          `json:"inventory_open"`
}

// WireMap is a tile map as serialized inside GameState. Tile coordinates are
// encoded as "x,y" string keys; a structural composite key is never emitted.
type WireMap struct {
	Width  int                   `json:"width"`
	Height int                   `json:"height"`
	Tiles  map[string]world.Tile `json:"tiles"`
}

// Connected confirms a successful join handshake.
type Connected struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

// GameState is a full snapshot of the active map and every player.
type GameState struct {
	Type      string                `json:"type"`
	MapKind   world.MapKind         `json:"map_kind"`
	Map       WireMap               `json:"map"`
	Players   map[string]WirePlayer `json:"players"`
	TurnCount uint64                `json:"turn_count"`
}

// PlayerMoved announces a successful move.
type PlayerMoved struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// PlayerJoined announces a new player.
type PlayerJoined struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// PlayerLeft announces a departed player.
type PlayerLeft struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
}

// ErrorFrame reports a protocol-level failure to the client.
type ErrorFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message carries player-facing game text (blocked moves, flavor lines).
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ChatMessage relays a chat line from another player.
type ChatMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
}

func (Connected) serverMessage()    {}
func (GameState) serverMessage()    {}
func (PlayerMoved) serverMessage()  {}
func (PlayerJoined) serverMessage() {}
func (PlayerLeft) serverMessage()   {}
func (ErrorFrame) serverMessage()   {}
func (Message) serverMessage()      {}
func (ChatMessage) serverMessage()  {}

// NewConnected builds a Connected frame.
func NewConnected(playerID string) Connected {
	return Connected{Type: TypeConnected, PlayerID: playerID}
}

// NewGameState builds a GameState frame from world state.
//
// Precondition: m must be non-nil; players must hold copies, not live registry values.
func NewGameState(m *world.Map, players map[string]*world.Player, turns uint64) GameState {
	wire := make(map[string]WirePlayer, len(players))
	for id, p := range players {
		wire[id] = WirePlayer{
			ID:            p.ID,
			Name:          p.Name,
			X:             p.X,
			Y:             p.Y,
			MapKind:       p.MapKind,
			InventoryOpen: p.InventoryOpen,
		}
	}
	return GameState{
		Type:      TypeGameState,
		MapKind:   m.Kind,
		Map:       EncodeMap(m),
		Players:   wire,
		TurnCount: turns,
	}
}

// NewPlayerMoved builds a PlayerMoved frame.
func NewPlayerMoved(playerID string, x, y int) PlayerMoved {
	return PlayerMoved{Type: TypePlayerMoved, PlayerID: playerID, X: x, Y: y}
}

// NewPlayerJoined builds a PlayerJoined frame.
func NewPlayerJoined(playerID, name string) PlayerJoined {
	return PlayerJoined{Type: TypePlayerJoined, PlayerID: playerID, Name: name}
}

// NewPlayerLeft builds a PlayerLeft frame.
func NewPlayerLeft(playerID string) PlayerLeft {
	return PlayerLeft{Type: TypePlayerLeft, PlayerID: playerID}
}

// NewError builds an ErrorFrame.
func NewError(text string) ErrorFrame {
	return ErrorFrame{Type: TypeError, Text: text}
}

// NewMessage builds a Message frame.
func NewMessage(text string) Message {
	return Message{Type: TypeMessage, Text: text}
}

// NewChatMessage builds a ChatMessage frame.
func NewChatMessage(playerName, message string) ChatMessage {
	return ChatMessage{Type: TypeChatMessage, PlayerName: playerName, Message: message}
}
