// internal/game/events.go
package game

import (
	"github.com/google/uuid"

	"github.com/dnghia/tienlen/internal/deck"
)

// Server event type names fired by the engine. The protocol layer marshals
// these structs verbatim onto the wire.
const (
	EventGameStarted     = "gameStarted"
	EventMovePlayed      = "movePlayed"
	EventGameOver        = "gameOver"
	EventReturnToWaiting = "returnToWaiting"
)

// PlayerSummary is the public view of a seated player during a game: no hand
// contents, only the count.
type PlayerSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CardCount int       `json:"cardCount"`
}

// PlayerResult is one line of the final standings.
type PlayerResult struct {
	Name      string `json:"name"`
	CardsLeft int    `json:"cardsLeft"`
}

// GameStartedMessage is sent to each player individually; Cards holds only
// the recipient's own hand.
type GameStartedMessage struct {
	Type        string          `json:"type"`
	Players     []PlayerSummary `json:"players"`
	CurrentTurn int             `json:"currentTurn"`
	Cards       []deck.Card     `json:"cards"`
}

// MovePlayedMessage is broadcast after every accepted play or pass. LastMove
// is null right after a round closes.
type MovePlayedMessage struct {
	Type         string          `json:"type"`
	LastMove     []deck.Card     `json:"lastMove"`
	CurrentTurn  int             `json:"currentTurn"`
	LastPlayerID uuid.UUID       `json:"lastPlayerId"`
	Players      []PlayerSummary `json:"players"`
}

// GameOverMessage carries the winner and final standings.
type GameOverMessage struct {
	Type    string         `json:"type"`
	Winner  string         `json:"winner"`
	Results []PlayerResult `json:"results"`
}

// ReturnToWaitingMessage is broadcast on rematch.
type ReturnToWaitingMessage struct {
	Type string       `json:"type"`
	Room RoomSnapshot `json:"room"`
}

// ChatMessage is one chat line, kept in the room's history and relayed to
// members as newChatMessage.
type ChatMessage struct {
	Name string `json:"name"`
	Text string `json:"text"`
	Time string `json:"time"`
}

// RoomListing is the lobby view of one room.
type RoomListing struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Bet         string    `json:"bet"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	Type        string    `json:"type"`
	State       GameState `json:"state"`
}

// SeatInfo is the waiting-room view of one player.
type SeatInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Ready bool      `json:"ready"`
}

// RoomSnapshot is the full room view sent to members on join/ready changes.
// Hands are never included.
type RoomSnapshot struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Bet        string     `json:"bet"`
	Type       string     `json:"type"`
	GameState  GameState  `json:"gameState"`
	Players    []SeatInfo `json:"players"`
	IsGameOver bool       `json:"isGameOver"`
}
