// internal/handlers/messages.go
package handlers

import (
	"github.com/dnghia/tienlen/internal/deck"
	"github.com/dnghia/tienlen/internal/game"
)

// Client intent names.
const (
	ActionJoinRoom    = "joinRoom"
	ActionGetRooms    = "getRooms"
	ActionToggleReady = "toggleReady"
	ActionStartGame   = "startGame"
	ActionPlayMove    = "playMove"
	ActionPassMove    = "passMove"
	ActionSurrender   = "surrender"
	ActionRematch     = "rematch"
	ActionLeaveRoom   = "leaveRoom"
	ActionSendMessage = "sendMessage"
)

// ClientMessage is the envelope for every inbound websocket message. Only the
// fields relevant to the given Type are populated.
type ClientMessage struct {
	Type       string      `json:"type"`
	RoomID     string      `json:"roomId,omitempty"`
	PlayerName string      `json:"playerName,omitempty"`
	Cards      []deck.Card `json:"cards,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Lobby-side server messages. Engine-fired messages (gameStarted, movePlayed,
// gameOver, returnToWaiting) live in the game package.

type RoomsListMessage struct {
	Type  string             `json:"type"`
	Rooms []game.RoomListing `json:"rooms"`
}

type RoomUpdateMessage struct {
	Type string            `json:"type"`
	Room game.RoomSnapshot `json:"room"`
}

// ChatBroadcastMessage relays one chat line; name/text/time are inlined.
type ChatBroadcastMessage struct {
	Type string `json:"type"`
	game.ChatMessage
}

type RoomDestroyedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newError(msg string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: msg}
}
