package protocol

import (
	"encoding/json"
	"fmt"
)

// Error is a protocol-level failure: a frame that is not valid JSON, lacks a
// recognized type, or carries a malformed payload. Protocol errors are
// non-fatal to the session that produced them.
type Error struct {
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "protocol error: " + e.Reason
}

// envelope is the minimal frame shape used to route by type.
type envelope struct {
	Type string `json:"type"`
}

// DecodeClient decodes one client frame. Decoding is total: every input
// yields either a ClientMessage or a *Error, never a panic.
func DecodeClient(data []byte) (ClientMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("malformed frame: %v", err)}
	}

	switch env.Type {
	case TypeConnect:
		var m Connect
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		if m.PlayerName == "" {
			return nil, &Error{Reason: "connect frame missing player_name"}
		}
		return m, nil
	case TypeMove:
		var m Move
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case TypeEnterDungeon:
		return NewEnterDungeon(), nil
	case TypeExitDungeon:
		return NewExitDungeon(), nil
	case TypeOpenInventory:
		return NewOpenInventory(), nil
	case TypeCloseInventory:
		return NewCloseInventory(), nil
	case TypeChat:
		var m Chat
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		if m.Message == "" {
			return nil, &Error{Reason: "chat frame missing message"}
		}
		return m, nil
	case TypeDisconnect:
		return NewDisconnect(), nil
	case "":
		return nil, &Error{Reason: "frame missing type"}
	default:
		return nil, &Error{Reason: fmt.Sprintf("unknown message type %q", env.Type)}
	}
}

// DecodeServer decodes one server frame. Used by clients and tests; decoding
// is total in the same way as DecodeClient.
func DecodeServer(data []byte) (ServerMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("malformed frame: %v", err)}
	}

	switch env.Type {
	case TypeConnected:
		var m Connected
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case TypeGameState:
		var m GameState
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		for key := range m.Map.Tiles {
			if _, _, err := DecodeCoord(key); err != nil {
				return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
			}
		}
		return m, nil
	case TypePlayerMoved:
		var m PlayerMoved
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case TypePlayerJoined:
		var m PlayerJoined
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case TypePlayerLeft:
		var m PlayerLeft
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case TypeError:
		var m ErrorFrame
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case TypeMessage:
		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case TypeChatMessage:
		var m ChatMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, &Error{Reason: fmt.Sprintf("malformed %s frame: %v", env.Type, err)}
		}
		return m, nil
	case "":
		return nil, &Error{Reason: "frame missing type"}
	default:
		return nil, &Error{Reason: fmt.Sprintf("unknown message type %q", env.Type)}
	}
}

// Encode serializes one message (client or server) to a JSON frame.
//
// Precondition: msg must be built by one of the New* constructors so its
// type discriminator is set.
func Encode(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	return b, nil
}
